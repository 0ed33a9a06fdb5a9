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
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/log"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// eventOrder is the event resolver's result: a linear submission order
// consistent with the wait/signal partial order, plus the waits that no
// task in the graph satisfies.
type eventOrder struct {
	// order holds every task id in a valid topological order, ties
	// broken by ascending task id.
	order []types.TaskID

	// producers maps each event id to the tasks signaling it.
	producers map[types.EventID][]types.TaskID

	unsatisfied []UnsatisfiedWait
}

// resolveEvents builds the wait/signal dependency graph over all tasks
// and assigns them a linear submission order. A cycle is fatal to the
// whole batch; unsatisfiable waits are recorded and skipped so that
// independent tasks still order.
func resolveEvents(l *loadable.Loadable, report *ResolutionReport) (*eventOrder, error) {
	logger := log.WithName("events")

	tasks := make([]loadable.TaskEntry, 0, l.TaskEntryCount())
	for i := 0; i < l.TaskEntryCount(); i++ {
		task, _ := l.TaskEntryAt(i)
		tasks = append(tasks, task)
	}
	slices.SortFunc(tasks, func(a, b loadable.TaskEntry) bool { return a.ID < b.ID })

	producers := make(map[types.EventID][]types.TaskID)
	for _, task := range tasks {
		for _, event := range task.Postactions {
			producers[event] = append(producers[event], task.ID)
		}
	}

	// Edges run producer -> consumer per event; a wait with no producer
	// anywhere in the task list is "still unsatisfied".
	indegree := make(map[types.TaskID]int, len(tasks))
	dependents := make(map[types.TaskID][]types.TaskID)
	var unsatisfied []UnsatisfiedWait
	for _, task := range tasks {
		indegree[task.ID] = 0
	}
	for _, task := range tasks {
		for _, event := range task.Preactions {
			// A task signaling its own waited-on event doesn't satisfy
			// the wait; only external producers count.
			external := false
			for _, producer := range producers[event] {
				if producer == task.ID {
					continue
				}
				dependents[producer] = append(dependents[producer], task.ID)
				indegree[task.ID]++
				external = true
			}
			if !external {
				entry, _ := l.EventEntryByID(event)
				unsatisfied = append(unsatisfied, UnsatisfiedWait{
					Task:  task.ID,
					Event: event,
					Entry: entry,
				})
			}
		}
	}

	// Kahn's walk with a sorted ready list keeps the order reproducible:
	// among simultaneously ready tasks the smallest id goes first.
	ready := make([]types.TaskID, 0, len(tasks))
	for _, task := range tasks {
		if indegree[task.ID] == 0 {
			ready = append(ready, task.ID)
		}
	}
	slices.Sort(ready)

	order := make([]types.TaskID, 0, len(tasks))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				i, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, i, dependent)
			}
		}
	}

	if len(order) < len(tasks) {
		err := cycleError(tasks, order, producers)
		logger.Error(err, "event graph contains a dependency cycle")
		return nil, err
	}

	for _, u := range unsatisfied {
		logger.Info("wait is still unsatisfied",
			"task", types.TaskIDToString(u.Task),
			"event", types.EventIDToString(u.Event))
	}
	report.Unsatisfied = append(report.Unsatisfied, unsatisfied...)

	return &eventOrder{
		order:       order,
		producers:   producers,
		unsatisfied: unsatisfied,
	}, nil
}

// cycleError names the event ids implicated in the cycle: every event
// whose producer and consumer both remain unordered.
func cycleError(
	tasks []loadable.TaskEntry,
	ordered []types.TaskID,
	producers map[types.EventID][]types.TaskID,
) error {
	remaining := make(map[types.TaskID]bool, len(tasks))
	for _, task := range tasks {
		remaining[task.ID] = true
	}
	for _, id := range ordered {
		delete(remaining, id)
	}

	implicated := make(map[types.EventID]bool)
	for _, task := range tasks {
		if !remaining[task.ID] {
			continue
		}
		for _, event := range task.Preactions {
			for _, producer := range producers[event] {
				if remaining[producer] {
					implicated[event] = true
				}
			}
		}
	}

	events := make([]types.EventID, 0, len(implicated))
	for event := range implicated {
		events = append(events, event)
	}
	slices.Sort(events)

	names := make([]string, 0, len(events))
	for _, event := range events {
		names = append(names, types.EventIDToString(event))
	}
	return common.Error(common.KDependencyCycle,
		fmt.Sprintf("no submission order satisfies events [%s]",
			strings.Join(names, ", ")))
}

// restrict returns the submission order filtered down to the given task
// set, preserving relative order.
func (o *eventOrder) restrict(members map[types.TaskID]bool) []types.TaskID {
	order := make([]types.TaskID, 0, len(members))
	for _, id := range o.order {
		if members[id] {
			order = append(order, id)
		}
	}
	return order
}
