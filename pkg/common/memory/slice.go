package memory

import (
	"unsafe"

	"github.com/accelrt-io/accelrt/pkg/common/types"
)

func Slice(s []byte, offset, length uint64) []byte {
	return s[offset : offset+length]
}

func Cast[T types.Number](s []byte, length uint64) []T {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&s[0])), length)
}

func CastFrom[T types.Number](pointer unsafe.Pointer, length uint64) []T {
	return unsafe.Slice((*T)(pointer), length)
}
