//go:build linux

package liburing

import (
	"strings"

	"github.com/brickingsoft/ringexec/pkg/kernel"
)

// Capabilities
// opcode support that changes how operations are encoded.
type Capabilities struct {
	// AsyncCancel is IORING_OP_ASYNC_CANCEL, since 5.5.
	AsyncCancel bool
	// OpRead is IORING_OP_READ, since 5.6. Without it reads are encoded as
	// IORING_OP_READV over a single iovec.
	OpRead bool
}

func CapabilitiesOf(version kernel.Version) Capabilities {
	return Capabilities{
		AsyncCancel: version.GTE(5, 5, 0),
		OpRead:      version.GTE(5, 6, 0),
	}
}

// DetectCapabilities
// capabilities of the running kernel.
func DetectCapabilities() (Capabilities, error) {
	version, err := kernel.Get()
	if err != nil {
		return Capabilities{}, err
	}
	return CapabilitiesOf(version), nil
}

func (c Capabilities) String() string {
	ss := make([]string, 0, 2)
	if c.AsyncCancel {
		ss = append(ss, "async_cancel")
	}
	if c.OpRead {
		ss = append(ss, "op_read")
	}
	if len(ss) == 0 {
		return "none"
	}
	return strings.Join(ss, ",")
}
