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

import (
	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/types"
)

// The wire shapes below mirror the container ABI produced by the offline
// compiler. They exist only at this boundary; resolution code never sees
// them. Conversion is explicit in both directions.

type wireMemoryEntry struct {
	ID           uint16   `json:"id"`
	Size         uint64   `json:"size"`
	Alignment    uint32   `json:"alignment"`
	Domain       uint8    `json:"domain"`
	Flags        uint8    `json:"flags"`
	BindID       uint16   `json:"bind_id"`
	TensorDescID uint16   `json:"tensor_desc_id"`
	Contents     []string `json:"contents"`
	Offsets      []uint64 `json:"offsets"`
}

type wireEventEntry struct {
	ID     uint16 `json:"id"`
	Target uint16 `json:"target"`
	Op     uint8  `json:"op"`
	Val    uint32 `json:"val"`
}

type wireTaskEntry struct {
	ID          uint16   `json:"id"`
	Interface   uint8    `json:"interface"`
	Instance    int16    `json:"instance"`
	Preactions  []uint16 `json:"preactions"`
	Postactions []uint16 `json:"postactions"`
	AddressList []uint16 `json:"address_list"`
}

type wireSubmitEntry struct {
	ID    uint16   `json:"id"`
	Tasks []uint16 `json:"tasks"`
}

type wireAddressEntry struct {
	ID     uint16 `json:"id"`
	MemID  uint16 `json:"mem_id"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

type wireTensorDesc struct {
	ID     uint16 `json:"id"`
	MemID  uint16 `json:"mem_id"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`

	Dims         Dims4 `json:"dims"`
	DataFormat   uint8 `json:"data_format"`
	DataType     uint8 `json:"data_type"`
	DataCategory uint8 `json:"data_category"`
	PixelFormat  uint8 `json:"pixel_format"`
	PixelMapping uint8 `json:"pixel_mapping"`

	LineStride  uint32 `json:"line_stride"`
	SurfStride  uint32 `json:"surf_stride"`
	PlaneStride uint32 `json:"plane_stride"`
}

type wireLoadable struct {
	Name            string  `json:"name"`
	Size            uint64  `json:"size"`
	Interface       uint8   `json:"interface"`
	Version         Version `json:"version"`
	NetworkDataType uint8   `json:"network_data_type"`

	Memory    []wireMemoryEntry  `json:"memory_list"`
	Events    []wireEventEntry   `json:"event_list"`
	Tasks     []wireTaskEntry    `json:"task_list"`
	Submits   []wireSubmitEntry  `json:"submit_list"`
	Addresses []wireAddressEntry `json:"address_list"`
	Tensors   []wireTensorDesc   `json:"tensor_desc_list"`
}

func decodeMemoryEntry(w wireMemoryEntry) (MemoryEntry, error) {
	if len(w.Contents) != len(w.Offsets) {
		return MemoryEntry{}, common.Errorf(common.KMalformedEntry,
			"memory %s: %d content names but %d offsets",
			types.MemoryIDToString(w.ID), len(w.Contents), len(w.Offsets))
	}
	m := MemoryEntry{
		ID:           w.ID,
		Size:         w.Size,
		Alignment:    w.Alignment,
		Domain:       MemoryDomain(w.Domain),
		Flags:        MemoryFlags(w.Flags),
		BindID:       w.BindID,
		TensorDescID: w.TensorDescID,
	}
	for i, name := range w.Contents {
		m.Contents = append(m.Contents, Content{Name: name, Offset: w.Offsets[i]})
	}
	return m, nil
}

func encodeMemoryEntry(m MemoryEntry) wireMemoryEntry {
	w := wireMemoryEntry{
		ID:           m.ID,
		Size:         m.Size,
		Alignment:    m.Alignment,
		Domain:       uint8(m.Domain),
		Flags:        uint8(m.Flags),
		BindID:       m.BindID,
		TensorDescID: m.TensorDescID,
	}
	for _, c := range m.Contents {
		w.Contents = append(w.Contents, c.Name)
		w.Offsets = append(w.Offsets, c.Offset)
	}
	return w
}

func decodeTensorDesc(w wireTensorDesc) TensorDesc {
	return TensorDesc{
		ID:           w.ID,
		MemID:        w.MemID,
		Offset:       w.Offset,
		Size:         w.Size,
		Dims:         w.Dims,
		DataFormat:   DataFormat(w.DataFormat),
		DataType:     DataType(w.DataType),
		DataCategory: DataCategory(w.DataCategory),
		PixelFormat:  PixelFormat(w.PixelFormat),
		PixelMapping: PixelMapping(w.PixelMapping),
		LineStride:   w.LineStride,
		SurfStride:   w.SurfStride,
		PlaneStride:  w.PlaneStride,
	}
}

func encodeTensorDesc(t TensorDesc) wireTensorDesc {
	return wireTensorDesc{
		ID:           t.ID,
		MemID:        t.MemID,
		Offset:       t.Offset,
		Size:         t.Size,
		Dims:         t.Dims,
		DataFormat:   uint8(t.DataFormat),
		DataType:     uint8(t.DataType),
		DataCategory: uint8(t.DataCategory),
		PixelFormat:  uint8(t.PixelFormat),
		PixelMapping: uint8(t.PixelMapping),
		LineStride:   t.LineStride,
		SurfStride:   t.SurfStride,
		PlaneStride:  t.PlaneStride,
	}
}

// Decode parses a serialized container and assembles a validated Loadable.
func Decode(data []byte) (*Loadable, error) {
	var w wireLoadable
	if err := common.ParseJson(data, &w); err != nil {
		return nil, err
	}

	blob := Blob{
		Name:      w.Name,
		Size:      w.Size,
		Interface: Interface(w.Interface),
		Version:   w.Version,
	}

	memory := make([]MemoryEntry, 0, len(w.Memory))
	for _, wm := range w.Memory {
		m, err := decodeMemoryEntry(wm)
		if err != nil {
			return nil, err
		}
		memory = append(memory, m)
	}

	events := make([]EventEntry, 0, len(w.Events))
	for _, we := range w.Events {
		events = append(events, EventEntry{
			ID:     we.ID,
			Target: we.Target,
			Op:     EventOp(we.Op),
			Val:    we.Val,
		})
	}

	tasks := make([]TaskEntry, 0, len(w.Tasks))
	for _, wt := range w.Tasks {
		tasks = append(tasks, TaskEntry{
			ID:          wt.ID,
			Interface:   Interface(wt.Interface),
			Instance:    wt.Instance,
			Preactions:  wt.Preactions,
			Postactions: wt.Postactions,
			AddressList: wt.AddressList,
		})
	}

	submits := make([]SubmitEntry, 0, len(w.Submits))
	for _, ws := range w.Submits {
		submits = append(submits, SubmitEntry{ID: ws.ID, Tasks: ws.Tasks})
	}

	addresses := make([]AddressEntry, 0, len(w.Addresses))
	for _, wa := range w.Addresses {
		addresses = append(addresses, AddressEntry{
			ID:     wa.ID,
			MemID:  wa.MemID,
			Offset: wa.Offset,
			Size:   wa.Size,
		})
	}

	tensors := make([]TensorDesc, 0, len(w.Tensors))
	for _, wt := range w.Tensors {
		tensors = append(tensors, decodeTensorDesc(wt))
	}

	return New(blob, DataType(w.NetworkDataType),
		memory, events, tasks, submits, addresses, tensors)
}

// Encode serializes a Loadable back into its container form.
func Encode(l *Loadable) ([]byte, error) {
	w := wireLoadable{
		Name:            l.blob.Name,
		Size:            l.blob.Size,
		Interface:       uint8(l.blob.Interface),
		Version:         l.blob.Version,
		NetworkDataType: uint8(l.networkDataType),
	}
	for _, m := range l.memory {
		w.Memory = append(w.Memory, encodeMemoryEntry(m))
	}
	for _, e := range l.events {
		w.Events = append(w.Events, wireEventEntry{
			ID: e.ID, Target: e.Target, Op: uint8(e.Op), Val: e.Val,
		})
	}
	for _, t := range l.tasks {
		w.Tasks = append(w.Tasks, wireTaskEntry{
			ID:          t.ID,
			Interface:   uint8(t.Interface),
			Instance:    t.Instance,
			Preactions:  t.Preactions,
			Postactions: t.Postactions,
			AddressList: t.AddressList,
		})
	}
	for _, s := range l.submits {
		w.Submits = append(w.Submits, wireSubmitEntry{ID: s.ID, Tasks: s.Tasks})
	}
	for _, a := range l.addresses {
		w.Addresses = append(w.Addresses, wireAddressEntry{
			ID: a.ID, MemID: a.MemID, Offset: a.Offset, Size: a.Size,
		})
	}
	for _, t := range l.tensors {
		w.Tensors = append(w.Tensors, encodeTensorDesc(t))
	}
	return common.EncodeJson(w)
}
