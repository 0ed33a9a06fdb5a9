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
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/log"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// TaskState is the submission engine's per-task state machine. Failed is
// reachable from any non-terminal state.
type TaskState int32

const (
	TaskPending TaskState = iota
	TaskAddressBound
	TaskEventReady
	TaskSubmitted
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskAddressBound:
		return "address-bound"
	case TaskEventReady:
		return "event-ready"
	case TaskSubmitted:
		return "submitted"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	}
	return "unknown"
}

// taskRun is the mutable dispatch state of one task. The address table
// is bound at load time; everything else belongs to the submission walk.
type taskRun struct {
	entry loadable.TaskEntry
	table []*ResolvedAddress

	state atomic.Int32
	err   error
}

func (t *taskRun) setState(s TaskState) {
	t.state.Store(int32(s))
}

func (t *taskRun) State() TaskState {
	return TaskState(t.state.Load())
}

func (t *taskRun) fail(err error) {
	t.err = err
	t.setState(TaskFailed)
}

// eventSignal is the cross-task ordering primitive during a dispatch:
// signaled closes when some producer completes, aborted closes when no
// producer can signal anymore.
type eventSignal struct {
	signaled chan struct{}
	aborted  chan struct{}

	signalOnce sync.Once
	abortOnce  sync.Once
	pending    atomic.Int32
}

func newEventSignal(producers int) *eventSignal {
	s := &eventSignal{
		signaled: make(chan struct{}),
		aborted:  make(chan struct{}),
	}
	s.pending.Store(int32(producers))
	return s
}

func (s *eventSignal) signal() {
	s.signalOnce.Do(func() { close(s.signaled) })
}

// withhold records that one producer finished without signaling. Once no
// producer remains and none signaled, waiters are released into failure
// instead of being blocked forever. signal() strictly precedes done(),
// so the signaled check here cannot race a late signal.
func (s *eventSignal) withhold() {
	if s.pending.Add(-1) <= 0 {
		select {
		case <-s.signaled:
		default:
			s.abortOnce.Do(func() { close(s.aborted) })
		}
	}
}

func (s *eventSignal) done() {
	s.pending.Add(-1)
}

// BatchResult reports the terminal state of every task in one submitted
// batch, plus the events the batch signaled.
type BatchResult struct {
	Submit types.SubmitID

	States   map[types.TaskID]TaskState
	Errors   map[types.TaskID]error
	Signaled []types.EventID
}

// Failed reports whether any task of the batch missed completion.
func (r *BatchResult) Failed() bool {
	for _, state := range r.States {
		if state != TaskCompleted {
			return true
		}
	}
	return false
}

// submitter dispatches submit batches for one loaded network. Engines
// are fixed at load time; signaled events accumulate across batches so
// a later batch can wait on an earlier one.
type submitter struct {
	cfg    Config
	order  *eventOrder
	runs   map[types.TaskID]*taskRun
	report *ResolutionReport
	accel  []Engine
	cpu    Engine
}

func newSubmitter(cfg Config, order *eventOrder, runs map[types.TaskID]*taskRun, report *ResolutionReport) *submitter {
	s := &submitter{
		cfg:    cfg,
		order:  order,
		runs:   runs,
		report: report,
		accel:  cfg.Accel,
		cpu:    cfg.CPU,
	}
	if s.accel == nil {
		for i := 0; i < cfg.AccelInstances; i++ {
			s.accel = append(s.accel, newAccelEngine(i))
		}
	}
	if s.cpu == nil {
		s.cpu = newCPUEngine()
	}
	return s
}

// engineFor maps a task to its execution context: the companion CPU for
// interface "none", otherwise the declared accelerator instance or a
// policy-picked one for "any available".
func (s *submitter) engineFor(task loadable.TaskEntry) (Engine, error) {
	if task.Interface == loadable.InterfaceNone {
		return s.cpu, nil
	}
	instance := int(task.Instance)
	if task.Instance == types.InstanceAny {
		instance = s.cfg.Policy.Pick(task, len(s.accel))
	}
	if instance < 0 || instance >= len(s.accel) {
		return nil, common.Errorf(common.KMalformedEntry,
			"task %s: no accelerator instance %d (have %d)",
			types.TaskIDToString(task.ID), task.Instance, len(s.accel))
	}
	return s.accel[instance], nil
}

// precheck is the batch-level gate: a batch with any unresolved memory,
// poisoned address table, unsatisfiable wait or unmappable engine aborts
// as a whole before anything is dispatched.
func (s *submitter) precheck(
	submit loadable.SubmitEntry,
	members map[types.TaskID]bool,
	assigned map[types.TaskID]Engine,
	signaled map[types.EventID]bool,
) error {
	for _, id := range submit.Tasks {
		run, ok := s.runs[id]
		if !ok {
			return common.Errorf(common.KBatchUnresolved,
				"submit %d: unknown task %s", submit.ID, types.TaskIDToString(id))
		}
		if cause, poisoned := s.report.TaskPoisoned(id); poisoned {
			return common.Errorf(common.KBatchUnresolved,
				"submit %d: task %s is unresolved: %v",
				submit.ID, types.TaskIDToString(id), cause)
		}
		if assigned[id] == nil {
			return common.Errorf(common.KBatchUnresolved,
				"submit %d: task %s has no execution engine",
				submit.ID, types.TaskIDToString(id))
		}
		for _, event := range run.entry.Preactions {
			if signaled[event] {
				continue
			}
			satisfiable := false
			for _, producer := range s.order.producers[event] {
				if members[producer] && producer != id {
					satisfiable = true
					break
				}
			}
			if !satisfiable {
				return common.Errorf(common.KBatchUnresolved,
					"submit %d: task %s waits on event %s which nothing signals",
					submit.ID, types.TaskIDToString(id),
					types.EventIDToString(event))
			}
		}
	}
	return nil
}

// dispatch runs one batch: tasks grouped by execution context run
// serially per context and concurrently across contexts, in the event
// resolver's submission order. Postconditions of failed tasks are
// withheld, never falsely signaled.
func (s *submitter) dispatch(
	ctx context.Context,
	submit loadable.SubmitEntry,
	signaled map[types.EventID]bool,
) (*BatchResult, error) {
	logger := log.FromContext(ctx).WithName("submit")

	members := make(map[types.TaskID]bool, len(submit.Tasks))
	for _, id := range submit.Tasks {
		members[id] = true
	}

	// Instance selection happens exactly once per task per dispatch, so
	// the precheck and the queues agree on the assignment.
	assigned := make(map[types.TaskID]Engine, len(submit.Tasks))
	for _, id := range submit.Tasks {
		run, ok := s.runs[id]
		if !ok {
			continue
		}
		engine, err := s.engineFor(run.entry)
		if err != nil {
			logger.Error(err, "batch precheck failed, nothing dispatched",
				"submit", submit.ID)
			return nil, common.Errorf(common.KBatchUnresolved,
				"submit %d: %v", submit.ID, err)
		}
		assigned[id] = engine
	}

	if err := s.precheck(submit, members, assigned, signaled); err != nil {
		logger.Error(err, "batch precheck failed, nothing dispatched",
			"submit", submit.ID)
		return nil, err
	}

	order := s.order.restrict(members)

	// One signal tracker per event this batch waits on or produces.
	signals := make(map[types.EventID]*eventSignal)
	producerCount := make(map[types.EventID]int)
	for _, id := range order {
		for _, event := range s.runs[id].entry.Postactions {
			producerCount[event]++
		}
	}
	for event, producers := range producerCount {
		signals[event] = newEventSignal(producers)
	}

	// Per-context queues preserve the topological order within each
	// engine; cross-context ordering rides on the event signals alone.
	queues := make(map[Engine][]*taskRun)
	var engines []Engine
	for _, id := range order {
		engine := assigned[id]
		if _, ok := queues[engine]; !ok {
			engines = append(engines, engine)
		}
		queues[engine] = append(queues[engine], s.runs[id])
	}

	var wg sync.WaitGroup
	for _, engine := range engines {
		wg.Add(1)
		go func(engine Engine, queue []*taskRun) {
			defer wg.Done()
			for _, run := range queue {
				s.runTask(ctx, logger, engine, run, signals, signaled)
			}
		}(engine, queues[engine])
	}
	wg.Wait()

	result := &BatchResult{
		Submit: submit.ID,
		States: make(map[types.TaskID]TaskState, len(order)),
		Errors: make(map[types.TaskID]error),
	}
	for _, id := range order {
		run := s.runs[id]
		result.States[id] = run.State()
		if run.err != nil {
			result.Errors[id] = run.err
		}
		if run.State() == TaskCompleted {
			for _, event := range run.entry.Postactions {
				if !signaled[event] {
					signaled[event] = true
					result.Signaled = append(result.Signaled, event)
				}
			}
		}
	}
	slices.Sort(result.Signaled)
	return result, nil
}

func (s *submitter) runTask(
	ctx context.Context,
	logger log.Logger,
	engine Engine,
	run *taskRun,
	signals map[types.EventID]*eventSignal,
	signaled map[types.EventID]bool,
) {
	id := types.TaskIDToString(run.entry.ID)

	withhold := func() {
		for _, event := range run.entry.Postactions {
			signals[event].withhold()
		}
	}

	// Preconditions either close as signaled, close as aborted (all
	// producers failed), or the context ends the batch.
	for _, event := range run.entry.Preactions {
		if signaled[event] {
			continue
		}
		signal := signals[event]
		select {
		case <-signal.signaled:
		case <-signal.aborted:
			run.fail(common.Errorf(common.KUnresolvedReference,
				"task %s: event %s was never signaled",
				id, types.EventIDToString(event)))
			logger.Error(run.err, "task skipped, precondition withheld",
				"task", id, "engine", engine.Name())
			withhold()
			return
		case <-ctx.Done():
			run.fail(ctx.Err())
			withhold()
			return
		}
	}
	run.setState(TaskEventReady)

	run.setState(TaskSubmitted)
	if err := engine.Submit(ctx, &SubmittedTask{
		Entry:     run.entry,
		Addresses: run.table,
	}); err != nil {
		run.fail(common.Errorf(common.KEngineRejected,
			"task %s rejected by %s: %v", id, engine.Name(), err))
		logger.Error(run.err, "engine rejected task",
			"task", id, "engine", engine.Name())
		withhold()
		return
	}

	// Engine acknowledgment: postconditions become visible to waiters
	// only now.
	run.setState(TaskCompleted)
	for _, event := range run.entry.Postactions {
		signals[event].signal()
		signals[event].done()
	}
	logger.V(1).Info("task completed",
		"task", id, "engine", engine.Name())
}
