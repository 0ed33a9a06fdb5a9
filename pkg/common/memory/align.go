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

package memory

// IsAlignment reports whether alignment is a valid byte alignment, i.e. a
// power of two. Zero means unconstrained and is accepted.
func IsAlignment(alignment uint32) bool {
	return alignment&(alignment-1) == 0
}

// AlignUp rounds offset up to the next multiple of alignment. An alignment
// of zero leaves offset unchanged.
func AlignUp(offset uint64, alignment uint32) uint64 {
	if alignment == 0 {
		return offset
	}
	a := uint64(alignment)
	return (offset + a - 1) &^ (a - 1)
}
