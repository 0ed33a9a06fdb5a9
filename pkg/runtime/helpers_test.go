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

package runtime

import (
	"context"
	"sync"
	"testing"

	arrow "github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// builder assembles small loadables for tests without dragging the wire
// codec in.
type builder struct {
	blob      loadable.Blob
	memory    []loadable.MemoryEntry
	events    []loadable.EventEntry
	tasks     []loadable.TaskEntry
	submits   []loadable.SubmitEntry
	addresses []loadable.AddressEntry
	tensors   []loadable.TensorDesc
}

func newBuilder() *builder {
	return &builder{
		blob: loadable.Blob{
			Name:      "test-net",
			Interface: loadable.InterfaceAccel1,
			Version:   loadable.Version{Major: 1},
		},
	}
}

func (b *builder) mem(m loadable.MemoryEntry) *builder {
	b.memory = append(b.memory, m)
	return b
}

func (b *builder) scratch(id types.MemoryID, size uint64) *builder {
	return b.mem(loadable.MemoryEntry{
		ID: id, Size: size, Domain: loadable.DomainSysmem,
		Flags: loadable.FlagAlloc,
	})
}

func (b *builder) event(id types.EventID) *builder {
	b.events = append(b.events, loadable.EventEntry{ID: id, Op: loadable.OpSignal})
	return b
}

func (b *builder) task(t loadable.TaskEntry) *builder {
	b.tasks = append(b.tasks, t)
	return b
}

func (b *builder) submit(id types.SubmitID, tasks ...types.TaskID) *builder {
	b.submits = append(b.submits, loadable.SubmitEntry{ID: id, Tasks: tasks})
	return b
}

func (b *builder) addr(a loadable.AddressEntry) *builder {
	b.addresses = append(b.addresses, a)
	return b
}

func (b *builder) tensor(t loadable.TensorDesc) *builder {
	b.tensors = append(b.tensors, t)
	return b
}

func (b *builder) build(t *testing.T) *loadable.Loadable {
	t.Helper()
	l, err := loadable.New(b.blob, loadable.DataTypeFloat16,
		b.memory, b.events, b.tasks, b.submits, b.addresses, b.tensors)
	require.NoError(t, err)
	return l
}

// recordingEngine acknowledges tasks and records submission order.
type recordingEngine struct {
	name string

	mu        sync.Mutex
	submitted []types.TaskID
}

func (e *recordingEngine) Name() string { return e.name }

func (e *recordingEngine) Submit(ctx context.Context, task *SubmittedTask) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitted = append(e.submitted, task.Entry.ID)
	return nil
}

func (e *recordingEngine) order() []types.TaskID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.TaskID{}, e.submitted...)
}

// rejectingEngine refuses the configured task ids.
type rejectingEngine struct {
	recordingEngine
	reject map[types.TaskID]bool
}

func (e *rejectingEngine) Submit(ctx context.Context, task *SubmittedTask) error {
	if e.reject[task.Entry.ID] {
		return context.DeadlineExceeded
	}
	return e.recordingEngine.Submit(ctx, task)
}

// countingAllocator observes allocations for zero-materialization checks.
type countingAllocator struct {
	arrow.Allocator

	mu     sync.Mutex
	allocs int
}

func newCountingAllocator() *countingAllocator {
	return &countingAllocator{Allocator: arrow.NewGoAllocator()}
}

func (a *countingAllocator) Allocate(size int) []byte {
	a.mu.Lock()
	a.allocs++
	a.mu.Unlock()
	return a.Allocator.Allocate(size)
}

func (a *countingAllocator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}
