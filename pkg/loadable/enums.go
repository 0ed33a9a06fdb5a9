/** Copyright 2024-2026 The accelrt Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package loadable

import "fmt"

// Interface tags the hardware interface a loadable (or one task of it)
// was compiled against.
type Interface uint8

const (
	InterfaceNone Interface = iota
	InterfaceAccel1
)

func (i Interface) Valid() bool {
	return i == InterfaceNone || i == InterfaceAccel1
}

func (i Interface) String() string {
	switch i {
	case InterfaceNone:
		return "none"
	case InterfaceAccel1:
		return "accel1"
	}
	return fmt.Sprintf("interface(%d)", uint8(i))
}

// MemoryDomain selects the placement pool for a memory object.
type MemoryDomain uint8

const (
	DomainSysmem MemoryDomain = iota
	DomainSRAM
)

func (d MemoryDomain) Valid() bool {
	return d == DomainSysmem || d == DomainSRAM
}

func (d MemoryDomain) String() string {
	switch d {
	case DomainSysmem:
		return "sysmem"
	case DomainSRAM:
		return "sram"
	}
	return fmt.Sprintf("domain(%d)", uint8(d))
}

// MemoryFlags is a bitwise combination of memory-object roles.
type MemoryFlags uint8

const (
	FlagsNone  MemoryFlags = 0
	FlagAlloc  MemoryFlags = 1 << 0
	FlagSet    MemoryFlags = 1 << 1
	FlagInput  MemoryFlags = 1 << 2
	FlagOutput MemoryFlags = 1 << 3

	flagsAll = FlagAlloc | FlagSet | FlagInput | FlagOutput
)

func (f MemoryFlags) Valid() bool {
	return f&^flagsAll == 0
}

func (f MemoryFlags) Has(other MemoryFlags) bool {
	return f&other == other
}

func (f MemoryFlags) IsBound() bool {
	return f.Has(FlagInput) || f.Has(FlagOutput)
}

func (f MemoryFlags) String() string {
	if f == FlagsNone {
		return "none"
	}
	s := ""
	appendFlag := func(flag MemoryFlags, name string) {
		if !f.Has(flag) {
			return
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	appendFlag(FlagAlloc, "alloc")
	appendFlag(FlagSet, "set")
	appendFlag(FlagInput, "input")
	appendFlag(FlagOutput, "output")
	return s
}

// EventOp is the role a task plays against an event.
type EventOp uint8

const (
	OpWait EventOp = iota
	OpSignal
)

func (o EventOp) Valid() bool {
	return o == OpWait || o == OpSignal
}

func (o EventOp) String() string {
	switch o {
	case OpWait:
		return "wait"
	case OpSignal:
		return "signal"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// DataType is the element type of a tensor surface.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeFloat16
	DataTypeInt16
	DataTypeInt8
	DataTypeUInt8
)

// ElementSize returns the byte width of one element, or 0 for unknown.
func (t DataType) ElementSize() uint64 {
	switch t {
	case DataTypeFloat16, DataTypeInt16:
		return 2
	case DataTypeInt8, DataTypeUInt8:
		return 1
	}
	return 0
}

func (t DataType) String() string {
	switch t {
	case DataTypeFloat16:
		return "float16"
	case DataTypeInt16:
		return "int16"
	case DataTypeInt8:
		return "int8"
	case DataTypeUInt8:
		return "uint8"
	}
	return "unknown"
}

// DataFormat is the in-memory logical layout of a tensor.
type DataFormat uint8

const (
	DataFormatUnknown DataFormat = iota
	DataFormatNCHW
	DataFormatNHWC
)

// DataCategory distinguishes image-shaped surfaces from feature maps.
type DataCategory uint8

const (
	DataCategoryUnknown DataCategory = iota
	DataCategoryImage
	DataCategoryFeature
)

// PixelFormat describes the channel packing of image surfaces.
type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatR8
	PixelFormatA8B8G8R8
	PixelFormatFeature
)

// PixelMapping describes how image pixels map onto surfaces.
type PixelMapping uint8

const (
	PixelMappingUnknown PixelMapping = iota
	PixelMappingPitchLinear
)
