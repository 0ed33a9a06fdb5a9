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

// Package runtime resolves a parsed loadable into concrete memory
// regions, bound address tables and an event-consistent submission
// order, then dispatches its tasks to the right execution engines.
//
// Resolution is two-phase: Load performs the whole-graph work (version
// gate, memory objects, event ordering, address windows, tensor
// bindings) and Submit dispatches one batch at a time, checking that
// every member task is fully resolved before anything reaches an engine.
package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/log"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

type Runtime struct {
	cfg Config
}

func New(cfg Config) *Runtime {
	return &Runtime{cfg: cfg.withDefaults()}
}

// Default returns a runtime with DefaultConfig.
func Default() *Runtime {
	return New(DefaultConfig())
}

// LoadedNetwork is one resolved loadable instance. It exclusively owns
// the backing regions until Unload; bindings and address tables only
// reference them.
type LoadedNetwork struct {
	ID       uuid.UUID
	loadable *loadable.Loadable

	regions *regionSet
	order   *eventOrder
	report  *ResolutionReport

	inputs  []*TensorBinding
	outputs []*TensorBinding

	submitter *submitter
	runs      map[types.TaskID]*taskRun

	mu       sync.Mutex
	signaled map[types.EventID]bool
	unloaded bool
}

// Load resolves a loadable end to end. The version gate runs first and
// rejects before any materialization; a dependency cycle is fatal.
// Entry-level failures are collected into the report instead: the load
// succeeds and the affected batches abort at submit time.
func (r *Runtime) Load(
	l *loadable.Loadable,
	contents map[string][]byte,
) (*LoadedNetwork, error) {
	logger := log.WithName("load").WithValues("loadable", l.Name())

	if err := checkVersion(r.cfg, l.Blob()); err != nil {
		logger.Error(err, "version gate rejected loadable")
		return nil, err
	}

	report := newResolutionReport()

	regions := newMemoryResolver(r.cfg).resolve(l, contents, report)

	order, err := resolveEvents(l, report)
	if err != nil {
		regions.releaseAll()
		return nil, err
	}

	bound := bindAddresses(l, regions, report)
	inputs, outputs := bindTensors(l, regions, report)

	runs := make(map[types.TaskID]*taskRun, l.TaskEntryCount())
	for i := 0; i < l.TaskEntryCount(); i++ {
		entry, _ := l.TaskEntryAt(i)
		run := &taskRun{entry: entry}
		if table, err := taskAddressTable(entry, bound, report); err == nil {
			run.table = table
			run.setState(TaskAddressBound)
		}
		runs[entry.ID] = run
	}

	net := &LoadedNetwork{
		ID:        uuid.New(),
		loadable:  l,
		regions:   regions,
		order:     order,
		report:    report,
		inputs:    inputs,
		outputs:   outputs,
		runs:      runs,
		signaled:  make(map[types.EventID]bool),
		submitter: newSubmitter(r.cfg, order, runs, report),
	}
	logger.Info("loadable resolved",
		"instance", net.ID.String(),
		"tasks", l.TaskEntryCount(),
		"clean", report.Clean())
	return net, nil
}

// Report exposes the entry-level resolution outcome.
func (n *LoadedNetwork) Report() *ResolutionReport { return n.report }

// SubmissionOrder is the linear task order the event resolver fixed.
func (n *LoadedNetwork) SubmissionOrder() []types.TaskID {
	order := make([]types.TaskID, len(n.order.order))
	copy(order, n.order.order)
	return order
}

// TaskState returns the current state of one task.
func (n *LoadedNetwork) TaskState(id types.TaskID) (TaskState, bool) {
	run, ok := n.runs[id]
	if !ok {
		return TaskFailed, false
	}
	return run.State(), true
}

// EventSignaled reports whether the event has been signaled by some
// completed batch.
func (n *LoadedNetwork) EventSignaled(id types.EventID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.signaled[id]
}

// Submit dispatches one submit batch. It blocks until every engine has
// drained its share of the batch, then reports per-task outcomes. An
// aborted batch signals none of its postcondition events.
func (n *LoadedNetwork) Submit(ctx context.Context, id types.SubmitID) (*BatchResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.unloaded {
		return nil, common.Error(common.KInvalid, "network is unloaded")
	}
	entry, ok := n.loadable.SubmitEntryByID(id)
	if !ok {
		return nil, common.Errorf(common.KKeyError, "no submit entry %d", id)
	}
	return n.submitter.dispatch(ctx, entry, n.signaled)
}

// InputCount and the indexed accessors below are the only interface
// external callers use to feed inputs and harvest outputs.
func (n *LoadedNetwork) InputCount() int { return len(n.inputs) }

func (n *LoadedNetwork) Input(i int) (*TensorBinding, error) {
	if i < 0 || i >= len(n.inputs) {
		return nil, common.IndexOutOfRange("input binding", i, len(n.inputs))
	}
	if n.inputs[i] == nil {
		desc, _ := n.loadable.InputTensorAt(i)
		return nil, n.report.Tensor[desc.ID]
	}
	return n.inputs[i], nil
}

func (n *LoadedNetwork) OutputCount() int { return len(n.outputs) }

func (n *LoadedNetwork) Output(i int) (*TensorBinding, error) {
	if i < 0 || i >= len(n.outputs) {
		return nil, common.IndexOutOfRange("output binding", i, len(n.outputs))
	}
	if n.outputs[i] == nil {
		desc, _ := n.loadable.OutputTensorAt(i)
		return nil, n.report.Tensor[desc.ID]
	}
	return n.outputs[i], nil
}

// Unload releases every backing region and invalidates pending events.
// The network cannot be submitted afterwards.
func (n *LoadedNetwork) Unload() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.unloaded {
		return
	}
	n.unloaded = true
	n.signaled = make(map[types.EventID]bool)
	n.regions.releaseAll()
	log.Info("network unloaded", "instance", n.ID.String())
}
