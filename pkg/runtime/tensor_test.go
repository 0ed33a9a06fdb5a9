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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

func ioBuilder() *builder {
	return newBuilder().
		mem(loadable.MemoryEntry{
			ID: 1, Size: 128, Domain: loadable.DomainSysmem,
			Flags:  loadable.FlagAlloc | loadable.FlagInput,
			BindID: 0, TensorDescID: 20,
		}).
		mem(loadable.MemoryEntry{
			ID: 2, Size: 128, Domain: loadable.DomainSysmem,
			Flags:  loadable.FlagAlloc | loadable.FlagOutput,
			BindID: 0, TensorDescID: 21,
		}).
		tensor(loadable.TensorDesc{
			ID: 20, MemID: 1, Offset: 0, Size: 32,
			Dims:     loadable.Dims4{N: 1, C: 1, H: 2, W: 8},
			DataType: loadable.DataTypeFloat16,
		}).
		tensor(loadable.TensorDesc{
			ID: 21, MemID: 2, Offset: 64, Size: 32,
			Dims:     loadable.Dims4{N: 1, C: 1, H: 2, W: 8},
			DataType: loadable.DataTypeFloat16,
		})
}

func TestBindTensors(t *testing.T) {
	l := ioBuilder().build(t)

	regions, report := resolveMemory(t, l, nil, DefaultConfig())
	inputs, outputs := bindTensors(l, regions, report)
	require.True(t, report.Clean())

	require.Len(t, inputs, 1)
	require.Len(t, outputs, 1)
	assert.Len(t, inputs[0].Bytes(), 32)
	assert.Len(t, outputs[0].Bytes(), 32)

	// The output window starts at its declared offset in the region.
	region := outputs[0].Region()
	region.Bytes()[64] = 0xab
	assert.Equal(t, byte(0xab), outputs[0].Bytes()[0])
	regions.releaseAll()
}

func TestTensorFloat16View(t *testing.T) {
	l := ioBuilder().build(t)
	regions, report := resolveMemory(t, l, nil, DefaultConfig())
	inputs, _ := bindTensors(l, regions, report)
	require.Len(t, inputs, 1)

	view, err := inputs[0].Float16View()
	require.NoError(t, err)
	require.Len(t, view, 16)

	view[0] = float16.Fromfloat32(1.5)
	assert.Equal(t, float32(1.5), view[0].Float32())

	// The view aliases the binding's bytes.
	assert.NotEqual(t, byte(0), inputs[0].Bytes()[0]|inputs[0].Bytes()[1])
	regions.releaseAll()
}

func TestTensorFloat16ViewEmpty(t *testing.T) {
	// A zero-size descriptor binds to an empty window; the typed view
	// must come back empty rather than touching out-of-range memory.
	l := newBuilder().
		mem(loadable.MemoryEntry{
			ID: 1, Size: 16, Domain: loadable.DomainSysmem,
			Flags:  loadable.FlagAlloc | loadable.FlagInput,
			BindID: 0, TensorDescID: 20,
		}).
		tensor(loadable.TensorDesc{
			ID: 20, MemID: 1, Offset: 0, Size: 0,
			DataType: loadable.DataTypeFloat16,
		}).
		build(t)

	regions, report := resolveMemory(t, l, nil, DefaultConfig())
	inputs, _ := bindTensors(l, regions, report)
	require.True(t, report.Clean())
	require.Len(t, inputs, 1)

	view, err := inputs[0].Float16View()
	require.NoError(t, err)
	assert.Empty(t, view)
	regions.releaseAll()
}

func TestBindTensorOutOfRange(t *testing.T) {
	l := newBuilder().
		mem(loadable.MemoryEntry{
			ID: 1, Size: 16, Domain: loadable.DomainSysmem,
			Flags:  loadable.FlagAlloc | loadable.FlagInput,
			BindID: 0, TensorDescID: 20,
		}).
		tensor(loadable.TensorDesc{
			ID: 20, MemID: 1, Offset: 8, Size: 32,
			DataType: loadable.DataTypeInt8,
		}).
		build(t)

	regions, report := resolveMemory(t, l, nil, DefaultConfig())
	inputs, _ := bindTensors(l, regions, report)

	require.Len(t, inputs, 1)
	assert.Nil(t, inputs[0])
	assert.Equal(t, common.KMalformedEntry, common.StatusCode(report.Tensor[20]))
	regions.releaseAll()
}
