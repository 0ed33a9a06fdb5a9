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

package common

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	err := Errorf(KDependencyCycle, "events [%s]", "e0001")
	assert.Equal(t, KDependencyCycle, StatusCode(err))
	assert.Contains(t, err.Error(), "DependencyCycle")

	// The code survives further wrapping.
	wrapped := errors.Wrap(err, "resolving batch")
	assert.Equal(t, KDependencyCycle, StatusCode(wrapped))

	assert.Equal(t, KOK, StatusCode(nil))
	assert.Equal(t, KUnknownError, StatusCode(errors.New("plain")))
}

func TestIndexOutOfRange(t *testing.T) {
	err := IndexOutOfRange("input tensor", 3, 2)
	assert.Equal(t, KKeyError, StatusCode(err))
	assert.Contains(t, err.Error(), "input tensor index 3 out of range [0, 2)")
}
