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
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// UnsatisfiedWait names one wait that no task in the graph signals. It is
// reported, not fatal: independent tasks still resolve.
type UnsatisfiedWait struct {
	Task  types.TaskID
	Event types.EventID
	Entry loadable.EventEntry
}

// ResolutionReport collects entry-level resolution failures, attributed
// to the smallest enclosing scope: entry first, then the tasks that
// reference the entry. A non-empty report doesn't fail the load; batches
// that contain a poisoned task abort at submit time instead.
type ResolutionReport struct {
	Memory  map[types.MemoryID]error
	Address map[types.AddressID]error
	Tensor  map[types.TensorID]error

	// Tasks maps each poisoned task to the first error that poisoned it.
	Tasks map[types.TaskID]error

	Unsatisfied []UnsatisfiedWait
}

func newResolutionReport() *ResolutionReport {
	return &ResolutionReport{
		Memory:  make(map[types.MemoryID]error),
		Address: make(map[types.AddressID]error),
		Tensor:  make(map[types.TensorID]error),
		Tasks:   make(map[types.TaskID]error),
	}
}

func (r *ResolutionReport) memoryFailed(id types.MemoryID, err error) {
	if _, ok := r.Memory[id]; !ok {
		r.Memory[id] = err
	}
}

func (r *ResolutionReport) addressFailed(id types.AddressID, err error) {
	if _, ok := r.Address[id]; !ok {
		r.Address[id] = err
	}
}

func (r *ResolutionReport) tensorFailed(id types.TensorID, err error) {
	if _, ok := r.Tensor[id]; !ok {
		r.Tensor[id] = err
	}
}

func (r *ResolutionReport) taskPoisoned(id types.TaskID, err error) {
	if _, ok := r.Tasks[id]; !ok {
		r.Tasks[id] = err
	}
}

// TaskPoisoned reports whether the task failed address or memory
// resolution and returns the attributed error.
func (r *ResolutionReport) TaskPoisoned(id types.TaskID) (error, bool) {
	err, ok := r.Tasks[id]
	return err, ok
}

// TaskUnsatisfied reports whether the task carries a wait that nothing
// in the graph signals.
func (r *ResolutionReport) TaskUnsatisfied(id types.TaskID) bool {
	for _, u := range r.Unsatisfied {
		if u.Task == id {
			return true
		}
	}
	return false
}

// Clean reports whether every entry resolved and every wait is
// satisfiable.
func (r *ResolutionReport) Clean() bool {
	return len(r.Memory) == 0 && len(r.Address) == 0 &&
		len(r.Tensor) == 0 && len(r.Tasks) == 0 && len(r.Unsatisfied) == 0
}
