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
	"github.com/x448/float16"

	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/common/log"
	"github.com/accelrt-io/accelrt/pkg/common/memory"
	"github.com/accelrt-io/accelrt/pkg/common/types"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// TensorBinding is the external contract for one network input or
// output: its descriptor plus the physical window callers read or write.
// The binding never moves data itself.
type TensorBinding struct {
	Desc loadable.TensorDesc

	region *Region
	data   []byte
}

// Region returns the backing region the binding points into.
func (b *TensorBinding) Region() *Region { return b.region }

// Bytes is the raw byte view of the tensor window.
func (b *TensorBinding) Bytes() []byte { return b.data }

// Float16View reinterprets the window as half-precision elements. Only
// valid for float16-typed tensors.
func (b *TensorBinding) Float16View() ([]float16.Float16, error) {
	if b.Desc.DataType != loadable.DataTypeFloat16 {
		return nil, common.Errorf(common.KInvalid,
			"tensor desc %d has data type %s, not float16",
			b.Desc.ID, b.Desc.DataType)
	}
	return memory.Cast[float16.Float16](b.data, b.Desc.Size/2), nil
}

// bindTensor resolves one tensor descriptor to its physical window,
// using the same bounds rule as the address binder.
func bindTensor(
	desc loadable.TensorDesc,
	regions *regionSet,
	report *ResolutionReport,
) (*TensorBinding, error) {
	region, err := regions.get(desc.MemID)
	if err != nil {
		report.tensorFailed(desc.ID, err)
		return nil, err
	}
	data, err := region.Window(desc.Offset, desc.Size)
	if err != nil {
		err = common.Errorf(common.KMalformedEntry,
			"tensor desc %d: window [%d, %d) exceeds memory %s size %d",
			desc.ID, desc.Offset, desc.Offset+desc.Size,
			types.MemoryIDToString(desc.MemID), region.Size)
		report.tensorFailed(desc.ID, err)
		return nil, err
	}
	return &TensorBinding{Desc: desc, region: region, data: data}, nil
}

// bindTensors produces the stable input and output binding tables for
// the network, indexed the way the loadable's input/output contract
// orders them.
func bindTensors(
	l *loadable.Loadable,
	regions *regionSet,
	report *ResolutionReport,
) (inputs, outputs []*TensorBinding) {
	logger := log.WithName("tensor")

	for i := 0; i < l.InputTensorCount(); i++ {
		desc, _ := l.InputTensorAt(i)
		binding, err := bindTensor(desc, regions, report)
		if err != nil {
			logger.Error(err, "input tensor failed to bind", "index", i, "id", desc.ID)
			inputs = append(inputs, nil)
			continue
		}
		inputs = append(inputs, binding)
	}
	for i := 0; i < l.OutputTensorCount(); i++ {
		desc, _ := l.OutputTensorAt(i)
		binding, err := bindTensor(desc, regions, report)
		if err != nil {
			logger.Error(err, "output tensor failed to bind", "index", i, "id", desc.ID)
			outputs = append(outputs, nil)
			continue
		}
		outputs = append(outputs, binding)
	}
	return inputs, outputs
}
