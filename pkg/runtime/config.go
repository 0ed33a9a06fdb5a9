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
	arrow "github.com/apache/arrow/go/v11/arrow/memory"
)

// Config is the immutable runtime configuration table, built once and
// never mutated afterwards.
type Config struct {
	// SupportedMajors is the set of loadable major versions this runtime
	// accepts.
	SupportedMajors []uint8

	// SysmemCapacity and SRAMCapacity bound how many bytes the memory
	// resolver may place in each domain. Zero means unbounded (sysmem
	// defaults to unbounded, SRAM to a small on-chip pool).
	SysmemCapacity uint64
	SRAMCapacity   uint64

	// AccelInstances is the number of accelerator execution contexts.
	AccelInstances int

	// Policy selects an instance for tasks targeting "any available".
	Policy InstancePolicy

	// Accel and CPU, when non-nil, replace the built-in emulated engines.
	Accel []Engine
	CPU   Engine

	// Allocator backs all resolved memory regions.
	Allocator arrow.Allocator
}

// DefaultConfig returns the configuration the runtime ships with: one
// accelerator instance, a 512 KiB on-chip pool, round-robin instance
// selection and the Go allocator.
func DefaultConfig() Config {
	return Config{
		SupportedMajors: []uint8{1},
		SRAMCapacity:    512 << 10,
		AccelInstances:  1,
		Policy:          NewRoundRobinPolicy(),
		Allocator:       arrow.NewGoAllocator(),
	}
}

func (c Config) withDefaults() Config {
	if c.AccelInstances <= 0 {
		c.AccelInstances = 1
	}
	if c.Policy == nil {
		c.Policy = NewRoundRobinPolicy()
	}
	if c.Allocator == nil {
		c.Allocator = arrow.NewGoAllocator()
	}
	if len(c.SupportedMajors) == 0 {
		c.SupportedMajors = []uint8{1}
	}
	return c
}
