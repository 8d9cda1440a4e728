package liburing

import "math/bits"

func RoundupPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	shift := bits.Len32(n - 1)
	return 1 << shift
}

func IsPow2(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
