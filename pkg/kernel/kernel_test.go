package kernel_test

import (
	"testing"

	"github.com/brickingsoft/ringexec/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	v, err := kernel.Get()
	require.NoError(t, err)
	t.Log(v)
	assert.True(t, v.Major > 0)
}

func TestParse(t *testing.T) {
	cases := []struct {
		release string
		want    kernel.Version
	}{
		{"5.15.0-91-generic", kernel.Version{Major: 5, Minor: 15, Patch: 0, Flavor: "-91-generic"}},
		{"6.1", kernel.Version{Major: 6, Minor: 1}},
		{"4.19.112+", kernel.Version{Major: 4, Minor: 19, Patch: 112, Flavor: "+"}},
		{"5.4-rc1", kernel.Version{Major: 5, Minor: 4, Flavor: "-rc1"}},
		{"6.18.44-fc-v130\n", kernel.Version{Major: 6, Minor: 18, Patch: 44, Flavor: "-fc-v130"}},
	}
	for _, c := range cases {
		v, err := kernel.Parse(c.release)
		require.NoError(t, err, c.release)
		assert.Equal(t, c.want, v, c.release)
	}

	_, err := kernel.Parse("linux")
	assert.Error(t, err)
	_, err = kernel.Parse("6")
	assert.Error(t, err)
}

func TestVersion_Compare(t *testing.T) {
	v := kernel.Version{Major: 5, Minor: 6, Patch: 0}
	assert.True(t, v.GTE(5, 5, 0))
	assert.True(t, v.GTE(5, 6, 0))
	assert.False(t, v.GTE(5, 6, 1))
	assert.True(t, v.LT(6, 0, 0))
	assert.Equal(t, 0, v.Compare(kernel.Version{Major: 5, Minor: 6}))
	assert.Equal(t, "5.6.0", v.String())
}
