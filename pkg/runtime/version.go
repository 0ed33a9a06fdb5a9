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
	"github.com/accelrt-io/accelrt/pkg/common"
	"github.com/accelrt-io/accelrt/pkg/loadable"
)

// checkVersion is the version gate: it runs before any resolution work
// and rejects loadables whose major version or target interface the
// runtime doesn't support. No side effects beyond the check.
func checkVersion(cfg Config, blob loadable.Blob) error {
	if !blob.Version.Compatible(cfg.SupportedMajors) {
		return common.Errorf(common.KIncompatibleVersion,
			"loadable %q version %s: supported majors %v",
			blob.Name, blob.Version, cfg.SupportedMajors)
	}
	if !blob.Interface.Valid() {
		return common.Errorf(common.KIncompatibleVersion,
			"loadable %q: unrecognized target interface %d",
			blob.Name, uint8(blob.Interface))
	}
	return nil
}
