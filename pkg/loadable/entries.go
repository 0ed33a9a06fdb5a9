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

import "github.com/accelrt-io/accelrt/pkg/common/types"

// Content is one symbolic reference from a memory object to a named
// content blob, placed at the given offset inside the object.
type Content struct {
	Name   string
	Offset uint64
}

// MemoryEntry describes one memory object referenced anywhere in the
// loadable.
type MemoryEntry struct {
	ID        types.MemoryID
	Size      uint64
	Alignment uint32 // 0 for n/a, otherwise byte alignment
	Domain    MemoryDomain
	Flags     MemoryFlags

	// BindID and TensorDescID are valid iff Flags has input or output set.
	BindID       types.TensorID
	TensorDescID types.TensorID

	Contents []Content
}

// EventEntry describes one synchronization primitive.
type EventEntry struct {
	ID     types.EventID
	Target uint16
	Op     EventOp
	Val    uint32
}

// TaskEntry describes one unit of work for an engine.
type TaskEntry struct {
	ID        types.TaskID
	Interface Interface
	Instance  types.Instance // InstanceAny for any available

	Preactions  []types.EventID   // events waited on before execution
	Postactions []types.EventID   // events signaled after completion
	AddressList []types.AddressID // ordered address table the task consumes
}

// SubmitEntry is a batch of tasks submitted together.
type SubmitEntry struct {
	ID    types.SubmitID
	Tasks []types.TaskID
}

// AddressEntry is a bound memory window used by a task.
type AddressEntry struct {
	ID     types.AddressID
	MemID  types.MemoryID
	Offset uint64
	Size   uint64 // offset + size must lie within memory[MemID].Size
}

// Dims4 is the 4D shape of a tensor surface.
type Dims4 struct {
	N int32 `json:"n"`
	C int32 `json:"c"`
	H int32 `json:"h"`
	W int32 `json:"w"`
}

// TensorDesc is the physical and logical binding of one network input
// or output.
type TensorDesc struct {
	ID     types.TensorID
	MemID  types.MemoryID
	Offset uint64
	Size   uint64

	Dims         Dims4
	DataFormat   DataFormat
	DataType     DataType
	DataCategory DataCategory
	PixelFormat  PixelFormat
	PixelMapping PixelMapping

	LineStride  uint32
	SurfStride  uint32
	PlaneStride uint32
}

// Blob is the loadable's own identity.
type Blob struct {
	Name      string
	Size      uint64
	Interface Interface
	Version   Version
}
