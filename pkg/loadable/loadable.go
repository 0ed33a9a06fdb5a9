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

// Package loadable holds the parsed, immutable form of a compiled network
// program: its memory objects, events, tasks, submit batches, address
// windows and tensor descriptors, plus the identity blob the runtime's
// version gate inspects.
package loadable

import (
	"sort"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/types"
)

type Loadable struct {
	blob            Blob
	networkDataType DataType

	memory    []MemoryEntry
	events    []EventEntry
	tasks     []TaskEntry
	submits   []SubmitEntry
	addresses []AddressEntry
	tensors   []TensorDesc

	// inputs and outputs index into tensors, ordered by bind id.
	inputs  []int
	outputs []int

	memByID    map[types.MemoryID]int
	eventByID  map[types.EventID]int
	taskByID   map[types.TaskID]int
	submitByID map[types.SubmitID]int
	addrByID   map[types.AddressID]int
	tensorByID map[types.TensorID]int
}

// New assembles a Loadable from its parsed lists and validates the
// structural invariants that don't need backing memory: id uniqueness,
// enum validity, and non-dangling cross-list references. Violations are
// MalformedEntry errors attributed to the offending entry.
func New(
	blob Blob,
	networkDataType DataType,
	memory []MemoryEntry,
	events []EventEntry,
	tasks []TaskEntry,
	submits []SubmitEntry,
	addresses []AddressEntry,
	tensors []TensorDesc,
) (*Loadable, error) {
	l := &Loadable{
		blob:            blob,
		networkDataType: networkDataType,
		memory:          memory,
		events:          events,
		tasks:           tasks,
		submits:         submits,
		addresses:       addresses,
		tensors:         tensors,
		memByID:         make(map[types.MemoryID]int, len(memory)),
		eventByID:       make(map[types.EventID]int, len(events)),
		taskByID:        make(map[types.TaskID]int, len(tasks)),
		submitByID:      make(map[types.SubmitID]int, len(submits)),
		addrByID:        make(map[types.AddressID]int, len(addresses)),
		tensorByID:      make(map[types.TensorID]int, len(tensors)),
	}
	if err := l.index(); err != nil {
		return nil, err
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	l.collectBindings()
	return l, nil
}

func (l *Loadable) index() error {
	for i, m := range l.memory {
		if _, ok := l.memByID[m.ID]; ok {
			return common.Errorf(common.KMalformedEntry,
				"duplicate memory id %s", types.MemoryIDToString(m.ID))
		}
		l.memByID[m.ID] = i
	}
	for i, e := range l.events {
		if _, ok := l.eventByID[e.ID]; ok {
			return common.Errorf(common.KMalformedEntry,
				"duplicate event id %s", types.EventIDToString(e.ID))
		}
		l.eventByID[e.ID] = i
	}
	for i, t := range l.tasks {
		if _, ok := l.taskByID[t.ID]; ok {
			return common.Errorf(common.KMalformedEntry,
				"duplicate task id %s", types.TaskIDToString(t.ID))
		}
		l.taskByID[t.ID] = i
	}
	for i, s := range l.submits {
		if _, ok := l.submitByID[s.ID]; ok {
			return common.Errorf(common.KMalformedEntry,
				"duplicate submit id %d", s.ID)
		}
		l.submitByID[s.ID] = i
	}
	for i, a := range l.addresses {
		if _, ok := l.addrByID[a.ID]; ok {
			return common.Errorf(common.KMalformedEntry,
				"duplicate address id %d", a.ID)
		}
		l.addrByID[a.ID] = i
	}
	for i, t := range l.tensors {
		if _, ok := l.tensorByID[t.ID]; ok {
			return common.Errorf(common.KMalformedEntry,
				"duplicate tensor desc id %d", t.ID)
		}
		l.tensorByID[t.ID] = i
	}
	return nil
}

func (l *Loadable) validate() error {
	if !l.blob.Interface.Valid() {
		return common.Errorf(common.KMalformedEntry,
			"unrecognized target interface %d", uint8(l.blob.Interface))
	}
	for _, m := range l.memory {
		if !m.Domain.Valid() {
			return common.Errorf(common.KMalformedEntry,
				"memory %s: unknown domain %d",
				types.MemoryIDToString(m.ID), uint8(m.Domain))
		}
		if !m.Flags.Valid() {
			return common.Errorf(common.KMalformedEntry,
				"memory %s: unknown flags %#x",
				types.MemoryIDToString(m.ID), uint8(m.Flags))
		}
		if m.Flags.IsBound() {
			if _, ok := l.tensorByID[m.TensorDescID]; !ok {
				return common.Errorf(common.KMalformedEntry,
					"memory %s: dangling tensor desc id %d",
					types.MemoryIDToString(m.ID), m.TensorDescID)
			}
		}
	}
	for _, e := range l.events {
		if !e.Op.Valid() {
			return common.Errorf(common.KMalformedEntry,
				"event %s: unknown op %d",
				types.EventIDToString(e.ID), uint8(e.Op))
		}
	}
	for _, t := range l.tasks {
		if !t.Interface.Valid() {
			return common.Errorf(common.KMalformedEntry,
				"task %s: unrecognized interface %d",
				types.TaskIDToString(t.ID), uint8(t.Interface))
		}
		if t.Instance < types.InstanceAny {
			return common.Errorf(common.KMalformedEntry,
				"task %s: invalid instance %d",
				types.TaskIDToString(t.ID), t.Instance)
		}
		for _, event := range append(append([]types.EventID{}, t.Preactions...), t.Postactions...) {
			if _, ok := l.eventByID[event]; !ok {
				return common.Errorf(common.KUnresolvedReference,
					"task %s: dangling event id %s",
					types.TaskIDToString(t.ID), types.EventIDToString(event))
			}
		}
		for _, addr := range t.AddressList {
			if _, ok := l.addrByID[addr]; !ok {
				return common.Errorf(common.KUnresolvedReference,
					"task %s: dangling address id %d",
					types.TaskIDToString(t.ID), addr)
			}
		}
	}
	claimed := make(map[types.TaskID]types.SubmitID)
	for _, s := range l.submits {
		for _, task := range s.Tasks {
			if _, ok := l.taskByID[task]; !ok {
				return common.Errorf(common.KUnresolvedReference,
					"submit %d: dangling task id %s",
					s.ID, types.TaskIDToString(task))
			}
			if owner, ok := claimed[task]; ok {
				return common.Errorf(common.KMalformedEntry,
					"task %s claimed by both submit %d and submit %d",
					types.TaskIDToString(task), owner, s.ID)
			}
			claimed[task] = s.ID
		}
	}
	for _, a := range l.addresses {
		if _, ok := l.memByID[a.MemID]; !ok {
			return common.Errorf(common.KUnresolvedReference,
				"address %d: dangling memory id %s",
				a.ID, types.MemoryIDToString(a.MemID))
		}
	}
	for _, t := range l.tensors {
		if _, ok := l.memByID[t.MemID]; !ok {
			return common.Errorf(common.KUnresolvedReference,
				"tensor desc %d: dangling memory id %s",
				t.ID, types.MemoryIDToString(t.MemID))
		}
		if elem := t.DataType.ElementSize(); elem > 0 &&
			t.Dims.N > 0 && t.Dims.C > 0 && t.Dims.H > 0 && t.Dims.W > 0 {
			need := elem * uint64(t.Dims.N) * uint64(t.Dims.C) *
				uint64(t.Dims.H) * uint64(t.Dims.W)
			if t.Size < need {
				return common.Errorf(common.KMalformedEntry,
					"tensor desc %d: size %d smaller than shape %v x %s",
					t.ID, t.Size, t.Dims, t.DataType)
			}
		}
		// Declared strides must be mutually consistent and fit the size:
		// a line covers W elements, a surface covers H lines, a plane
		// covers at least a surface.
		if elem := t.DataType.ElementSize(); t.LineStride > 0 && elem > 0 &&
			t.Dims.W > 0 && uint64(t.LineStride) < elem*uint64(t.Dims.W) {
			return common.Errorf(common.KMalformedEntry,
				"tensor desc %d: line stride %d smaller than %d elements of %s",
				t.ID, t.LineStride, t.Dims.W, t.DataType)
		}
		if t.SurfStride > 0 {
			if t.LineStride > 0 && t.Dims.H > 0 &&
				uint64(t.SurfStride) < uint64(t.LineStride)*uint64(t.Dims.H) {
				return common.Errorf(common.KMalformedEntry,
					"tensor desc %d: surface stride %d smaller than %d lines of stride %d",
					t.ID, t.SurfStride, t.Dims.H, t.LineStride)
			}
			if t.Size < uint64(t.SurfStride) {
				return common.Errorf(common.KMalformedEntry,
					"tensor desc %d: size %d smaller than surface stride %d",
					t.ID, t.Size, t.SurfStride)
			}
		}
		if t.PlaneStride > 0 && t.SurfStride > 0 &&
			uint64(t.PlaneStride) < uint64(t.SurfStride) {
			return common.Errorf(common.KMalformedEntry,
				"tensor desc %d: plane stride %d smaller than surface stride %d",
				t.ID, t.PlaneStride, t.SurfStride)
		}
	}
	return nil
}

// collectBindings derives the network's input/output contract from the
// memory list: every input/output flagged memory object contributes its
// tensor descriptor, ordered by bind id for a stable external index.
func (l *Loadable) collectBindings() {
	type bound struct {
		bindID types.TensorID
		tensor int
	}
	var inputs, outputs []bound
	for _, m := range l.memory {
		if !m.Flags.IsBound() {
			continue
		}
		b := bound{bindID: m.BindID, tensor: l.tensorByID[m.TensorDescID]}
		if m.Flags.Has(FlagInput) {
			inputs = append(inputs, b)
		}
		if m.Flags.Has(FlagOutput) {
			outputs = append(outputs, b)
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].bindID < inputs[j].bindID })
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].bindID < outputs[j].bindID })
	for _, b := range inputs {
		l.inputs = append(l.inputs, b.tensor)
	}
	for _, b := range outputs {
		l.outputs = append(l.outputs, b.tensor)
	}
}

func (l *Loadable) Name() string { return l.blob.Name }

func (l *Loadable) Blob() Blob { return l.blob }

func (l *Loadable) Version() Version { return l.blob.Version }

func (l *Loadable) TargetInterface() Interface { return l.blob.Interface }

func (l *Loadable) NetworkDataType() DataType { return l.networkDataType }

func (l *Loadable) MemoryEntryCount() int { return len(l.memory) }

func (l *Loadable) MemoryEntryAt(i int) (MemoryEntry, error) {
	if i < 0 || i >= len(l.memory) {
		return MemoryEntry{}, common.IndexOutOfRange("memory entry", i, len(l.memory))
	}
	return l.memory[i], nil
}

func (l *Loadable) MemoryEntryByID(id types.MemoryID) (MemoryEntry, bool) {
	i, ok := l.memByID[id]
	if !ok {
		return MemoryEntry{}, false
	}
	return l.memory[i], true
}

func (l *Loadable) EventEntryCount() int { return len(l.events) }

func (l *Loadable) EventEntryAt(i int) (EventEntry, error) {
	if i < 0 || i >= len(l.events) {
		return EventEntry{}, common.IndexOutOfRange("event entry", i, len(l.events))
	}
	return l.events[i], nil
}

func (l *Loadable) EventEntryByID(id types.EventID) (EventEntry, bool) {
	i, ok := l.eventByID[id]
	if !ok {
		return EventEntry{}, false
	}
	return l.events[i], true
}

func (l *Loadable) TaskEntryCount() int { return len(l.tasks) }

func (l *Loadable) TaskEntryAt(i int) (TaskEntry, error) {
	if i < 0 || i >= len(l.tasks) {
		return TaskEntry{}, common.IndexOutOfRange("task entry", i, len(l.tasks))
	}
	return l.tasks[i], nil
}

func (l *Loadable) TaskEntryByID(id types.TaskID) (TaskEntry, bool) {
	i, ok := l.taskByID[id]
	if !ok {
		return TaskEntry{}, false
	}
	return l.tasks[i], true
}

func (l *Loadable) SubmitEntryCount() int { return len(l.submits) }

func (l *Loadable) SubmitEntryAt(i int) (SubmitEntry, error) {
	if i < 0 || i >= len(l.submits) {
		return SubmitEntry{}, common.IndexOutOfRange("submit entry", i, len(l.submits))
	}
	return l.submits[i], nil
}

func (l *Loadable) SubmitEntryByID(id types.SubmitID) (SubmitEntry, bool) {
	i, ok := l.submitByID[id]
	if !ok {
		return SubmitEntry{}, false
	}
	return l.submits[i], true
}

func (l *Loadable) AddressEntryCount() int { return len(l.addresses) }

func (l *Loadable) AddressEntryAt(i int) (AddressEntry, error) {
	if i < 0 || i >= len(l.addresses) {
		return AddressEntry{}, common.IndexOutOfRange("address entry", i, len(l.addresses))
	}
	return l.addresses[i], nil
}

func (l *Loadable) AddressEntryByID(id types.AddressID) (AddressEntry, bool) {
	i, ok := l.addrByID[id]
	if !ok {
		return AddressEntry{}, false
	}
	return l.addresses[i], true
}

func (l *Loadable) TensorDescCount() int { return len(l.tensors) }

func (l *Loadable) TensorDescAt(i int) (TensorDesc, error) {
	if i < 0 || i >= len(l.tensors) {
		return TensorDesc{}, common.IndexOutOfRange("tensor desc", i, len(l.tensors))
	}
	return l.tensors[i], nil
}

func (l *Loadable) TensorDescByID(id types.TensorID) (TensorDesc, bool) {
	i, ok := l.tensorByID[id]
	if !ok {
		return TensorDesc{}, false
	}
	return l.tensors[i], true
}

func (l *Loadable) InputTensorCount() int { return len(l.inputs) }

func (l *Loadable) InputTensorAt(i int) (TensorDesc, error) {
	if i < 0 || i >= len(l.inputs) {
		return TensorDesc{}, common.IndexOutOfRange("input tensor", i, len(l.inputs))
	}
	return l.tensors[l.inputs[i]], nil
}

func (l *Loadable) OutputTensorCount() int { return len(l.outputs) }

func (l *Loadable) OutputTensorAt(i int) (TensorDesc, error) {
	if i < 0 || i >= len(l.outputs) {
		return TensorDesc{}, common.IndexOutOfRange("output tensor", i, len(l.outputs))
	}
	return l.tensors[l.outputs[i]], nil
}
