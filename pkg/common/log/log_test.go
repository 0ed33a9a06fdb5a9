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

package log

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
)

func TestChainedCallsKeepLoggerType(t *testing.T) {
	// Chains off FromContext must stay assignable to Logger so callers
	// can pass them to functions taking the package type.
	var logger Logger = FromContext(context.Background()).
		WithName("submit").
		WithValues("batch", 1).
		V(1)
	logger.Info("ok")
	logger.Infof("ok %d", 1)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := IntoContext(context.Background(), WithName("load"))
	inner, err := logr.FromContext(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, inner.GetSink())
}
