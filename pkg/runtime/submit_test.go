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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// chainBuilder wires t1 -> e1 -> t2 -> e2 -> t3 plus an independent t4,
// all on accelerator instance 0, in one submit batch.
func chainBuilder() *builder {
	return newBuilder().
		event(1).event(2).
		task(loadable.TaskEntry{
			ID: 1, Interface: loadable.InterfaceAccel1,
			Postactions: []uint16{1},
		}).
		task(loadable.TaskEntry{
			ID: 2, Interface: loadable.InterfaceAccel1,
			Preactions: []uint16{1}, Postactions: []uint16{2},
		}).
		task(loadable.TaskEntry{
			ID: 3, Interface: loadable.InterfaceAccel1,
			Preactions: []uint16{2},
		}).
		task(loadable.TaskEntry{ID: 4, Interface: loadable.InterfaceAccel1}).
		submit(1, 1, 2, 3, 4)
}

func TestSubmitChainCompletes(t *testing.T) {
	engine := &recordingEngine{name: "accel/0"}
	cfg := DefaultConfig()
	cfg.Accel = []Engine{engine}

	net, err := New(cfg).Load(chainBuilder().build(t), nil)
	require.NoError(t, err)
	defer net.Unload()

	result, err := net.Submit(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Failed())

	for _, id := range []types.TaskID{1, 2, 3, 4} {
		state, ok := net.TaskState(id)
		require.True(t, ok)
		assert.Equal(t, TaskCompleted, state, "task %d", id)
	}
	assert.Equal(t, []types.EventID{1, 2}, result.Signaled)
	assert.True(t, net.EventSignaled(1))
	assert.True(t, net.EventSignaled(2))

	// Chained tasks reach the engine in dependency order.
	order := engine.order()
	require.Len(t, order, 4)
	pos := make(map[types.TaskID]int)
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos[1], pos[2])
	assert.Less(t, pos[2], pos[3])
}

// Tasks on different engines still dispatch in dependency order: the
// producer's engine acknowledgment gates the consumer.
func TestCrossEngineOrdering(t *testing.T) {
	accel := &recordingEngine{name: "accel/0"}
	cpu := &recordingEngine{name: "cpu"}
	cfg := DefaultConfig()
	cfg.Accel = []Engine{accel}
	cfg.CPU = cpu

	l := newBuilder().
		event(1).
		task(loadable.TaskEntry{
			ID: 1, Interface: loadable.InterfaceNone, // companion CPU
			Postactions: []uint16{1},
		}).
		task(loadable.TaskEntry{
			ID: 2, Interface: loadable.InterfaceAccel1,
			Preactions: []uint16{1},
		}).
		submit(1, 1, 2).
		build(t)

	net, err := New(cfg).Load(l, nil)
	require.NoError(t, err)
	defer net.Unload()

	result, err := net.Submit(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Equal(t, []types.TaskID{1}, cpu.order())
	assert.Equal(t, []types.TaskID{2}, accel.order())
}

func TestInstanceAnyRoundRobin(t *testing.T) {
	engines := []Engine{
		&recordingEngine{name: "accel/0"},
		&recordingEngine{name: "accel/1"},
	}
	cfg := DefaultConfig()
	cfg.Accel = engines
	cfg.AccelInstances = 2

	l := newBuilder().
		task(loadable.TaskEntry{
			ID: 1, Interface: loadable.InterfaceAccel1, Instance: types.InstanceAny,
		}).
		task(loadable.TaskEntry{
			ID: 2, Interface: loadable.InterfaceAccel1, Instance: types.InstanceAny,
		}).
		submit(1, 1, 2).
		build(t)

	net, err := New(cfg).Load(l, nil)
	require.NoError(t, err)
	defer net.Unload()

	result, err := net.Submit(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Failed())

	spread := len(engines[0].(*recordingEngine).order()) +
		len(engines[1].(*recordingEngine).order())
	assert.Equal(t, 2, spread)
	assert.Len(t, engines[0].(*recordingEngine).order(), 1)
	assert.Len(t, engines[1].(*recordingEngine).order(), 1)
}

// A batch containing a poisoned task aborts whole: nothing reaches any
// engine, no postcondition is signaled.
func TestBatchUnresolvedAborts(t *testing.T) {
	engine := &recordingEngine{name: "accel/0"}
	cfg := DefaultConfig()
	cfg.Accel = []Engine{engine}

	l := newBuilder().
		scratch(1, 64).
		addr(loadable.AddressEntry{ID: 10, MemID: 1, Offset: 32, Size: 64}). // out of range
		event(1).
		task(loadable.TaskEntry{
			ID: 1, Interface: loadable.InterfaceAccel1,
			AddressList: []uint16{10}, Postactions: []uint16{1},
		}).
		task(loadable.TaskEntry{
			ID: 2, Interface: loadable.InterfaceAccel1,
			Preactions: []uint16{1},
		}).
		submit(1, 1, 2).
		build(t)

	net, err := New(cfg).Load(l, nil)
	require.NoError(t, err)
	defer net.Unload()

	_, err = net.Submit(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, common.KBatchUnresolved, common.StatusCode(err))
	assert.Empty(t, engine.order())
	assert.False(t, net.EventSignaled(1))
}

// A wait whose producer is outside the batch is unsatisfiable at
// dispatch time and aborts the batch before any submission.
func TestBatchUnsatisfiableWaitAborts(t *testing.T) {
	engine := &recordingEngine{name: "accel/0"}
	cfg := DefaultConfig()
	cfg.Accel = []Engine{engine}

	l := newBuilder().
		event(1).
		task(loadable.TaskEntry{
			ID: 1, Interface: loadable.InterfaceAccel1,
			Postactions: []uint16{1},
		}).
		task(loadable.TaskEntry{
			ID: 2, Interface: loadable.InterfaceAccel1,
			Preactions: []uint16{1},
		}).
		task(loadable.TaskEntry{ID: 3, Interface: loadable.InterfaceAccel1}).
		submit(1, 2).
		submit(2, 1).
		submit(3, 3).
		build(t)

	net, err := New(cfg).Load(l, nil)
	require.NoError(t, err)
	defer net.Unload()

	// Batch 1 only holds the consumer; its producer never ran.
	_, err = net.Submit(context.Background(), 1)
	assert.Equal(t, common.KBatchUnresolved, common.StatusCode(err))
	assert.Empty(t, engine.order())

	// The independent batch is unaffected.
	result, err := net.Submit(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, result.Failed())

	// Once the producer's batch completes and signals, the consumer's
	// batch becomes submittable.
	_, err = net.Submit(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, net.EventSignaled(1))
	result, err = net.Submit(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Failed())
}

// An engine rejection fails the task, withholds its postconditions and
// skips dependents; siblings on other engines are unaffected.
func TestEngineRejection(t *testing.T) {
	accel := &rejectingEngine{
		recordingEngine: recordingEngine{name: "accel/0"},
		reject:          map[types.TaskID]bool{1: true},
	}
	cpu := &recordingEngine{name: "cpu"}
	cfg := DefaultConfig()
	cfg.Accel = []Engine{accel}
	cfg.CPU = cpu

	l := newBuilder().
		event(1).
		task(loadable.TaskEntry{
			ID: 1, Interface: loadable.InterfaceAccel1,
			Postactions: []uint16{1},
		}).
		task(loadable.TaskEntry{
			ID: 2, Interface: loadable.InterfaceAccel1,
			Preactions: []uint16{1},
		}).
		task(loadable.TaskEntry{ID: 3, Interface: loadable.InterfaceNone}).
		submit(1, 1, 2, 3).
		build(t)

	net, err := New(cfg).Load(l, nil)
	require.NoError(t, err)
	defer net.Unload()

	result, err := net.Submit(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Failed())

	assert.Equal(t, TaskFailed, result.States[1])
	assert.Equal(t, common.KEngineRejected, common.StatusCode(result.Errors[1]))

	// The dependent is skipped, its wait reported as never signaled.
	assert.Equal(t, TaskFailed, result.States[2])
	assert.Equal(t, common.KUnresolvedReference, common.StatusCode(result.Errors[2]))
	assert.False(t, net.EventSignaled(1))

	// The CPU sibling completed regardless.
	assert.Equal(t, TaskCompleted, result.States[3])
	assert.Equal(t, []types.TaskID{3}, cpu.order())
}

func TestSubmitUnknownBatch(t *testing.T) {
	net, err := Default().Load(newBuilder().build(t), nil)
	require.NoError(t, err)
	defer net.Unload()

	_, err = net.Submit(context.Background(), 42)
	assert.Equal(t, common.KKeyError, common.StatusCode(err))
}
