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

import "fmt"

const (
	ACCELRT_VERSION_MAJOR = 0
	ACCELRT_VERSION_MINOR = 9
	ACCELRT_VERSION_PATCH = 1

	ACCELRT_VERSION = ((ACCELRT_VERSION_MAJOR*1000)+ACCELRT_VERSION_MINOR)*1000 +
		ACCELRT_VERSION_PATCH
)

var ACCELRT_VERSION_STRING = fmt.Sprintf(
	"%d.%d.%d",
	ACCELRT_VERSION_MAJOR,
	ACCELRT_VERSION_MINOR,
	ACCELRT_VERSION_PATCH,
)
