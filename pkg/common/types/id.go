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

package types

import "fmt"

// Entry ids are dense, compiler-assigned, and unique per list within one
// loadable. They are kept as distinct aliases so call sites document which
// list an id indexes into.

type MemoryID = uint16

type EventID = uint16

type TaskID = uint16

type SubmitID = uint16

type AddressID = uint16

type TensorID = uint16

func MemoryIDToString(id MemoryID) string {
	return fmt.Sprintf("m%04x", id)
}

func EventIDToString(id EventID) string {
	return fmt.Sprintf("e%04x", id)
}

func TaskIDToString(id TaskID) string {
	return fmt.Sprintf("t%04x", id)
}

// Instance designates one execution unit of the target interface.
// InstanceAny lets the runtime pick.
type Instance = int16

const InstanceAny Instance = -1
