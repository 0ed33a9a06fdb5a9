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
	"fmt"
	"sync/atomic"

	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// SubmittedTask is what an engine receives: the task entry plus its
// fully resolved, ordered address table.
type SubmittedTask struct {
	Entry     loadable.TaskEntry
	Addresses []*ResolvedAddress
}

// Engine is one execution context: a specific accelerator instance or
// the companion CPU. Submit blocks until the engine has accepted and
// completed the task; a returned error is an engine rejection and the
// task's postconditions are withheld.
type Engine interface {
	Name() string
	Submit(ctx context.Context, task *SubmittedTask) error
}

// emulatedEngine acknowledges every task without touching hardware. The
// real register-level interface lives behind the Engine boundary and is
// out of scope here.
type emulatedEngine struct {
	name string
}

func (e *emulatedEngine) Name() string { return e.name }

func (e *emulatedEngine) Submit(ctx context.Context, task *SubmittedTask) error {
	return ctx.Err()
}

func newAccelEngine(instance int) Engine {
	return &emulatedEngine{name: fmt.Sprintf("accel/%d", instance)}
}

func newCPUEngine() Engine {
	return &emulatedEngine{name: "cpu"}
}

// InstancePolicy picks an accelerator instance for tasks targeting "any
// available". Implementations must be safe for concurrent use.
type InstancePolicy interface {
	Pick(task loadable.TaskEntry, instances int) int
}

type roundRobinPolicy struct {
	next atomic.Uint32
}

// NewRoundRobinPolicy returns the default instance-selection policy:
// successive "any" tasks rotate across instances.
func NewRoundRobinPolicy() InstancePolicy {
	return &roundRobinPolicy{}
}

func (p *roundRobinPolicy) Pick(task loadable.TaskEntry, instances int) int {
	return int(p.next.Add(1)-1) % instances
}
