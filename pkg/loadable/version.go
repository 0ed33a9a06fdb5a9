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

package loadable

import "fmt"

// Version is the compiler/runtime interface compatibility tag carried by
// a loadable. Only the major number participates in the compatibility
// decision; minor and sub-minor are informational.
type Version struct {
	Major    uint8 `json:"major"`
	Minor    uint8 `json:"minor"`
	SubMinor uint8 `json:"sub_minor"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.SubMinor)
}

// Compatible reports whether the version's major number is in the
// supported set.
func (v Version) Compatible(supported []uint8) bool {
	for _, major := range supported {
		if v.Major == major {
			return true
		}
	}
	return false
}
