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
	"fmt"

	"github.com/pkg/errors"
)

const (
	KOK                  = 0
	KInvalid             = 1
	KKeyError            = 2
	KIncompatibleVersion = 11
	KMalformedEntry      = 12
	KUnresolvedReference = 13
	KDependencyCycle     = 14
	KBatchUnresolved     = 15
	KEngineRejected      = 16
	KNotEnoughMemory     = 21
	KUnknownError        = 255
)

var ErrCodes map[int]string

func init() {
	ErrCodes = make(map[int]string)

	ErrCodes[KOK] = "OK"
	ErrCodes[KInvalid] = "Invalid"
	ErrCodes[KKeyError] = "KeyError"
	ErrCodes[KIncompatibleVersion] = "IncompatibleVersion"
	ErrCodes[KMalformedEntry] = "MalformedEntry"
	ErrCodes[KUnresolvedReference] = "UnresolvedReference"
	ErrCodes[KDependencyCycle] = "DependencyCycle"
	ErrCodes[KBatchUnresolved] = "BatchUnresolved"
	ErrCodes[KEngineRejected] = "EngineRejected"
	ErrCodes[KNotEnoughMemory] = "NotEnoughMemory"
	ErrCodes[KUnknownError] = "UnknownError"
}

type Status struct {
	Code    int
	Message string
}

func (r *Status) Error() string {
	m := "UnknownError"
	if k, ok := ErrCodes[r.Code]; ok {
		m = k
	}
	return fmt.Sprintf("code: %v, message: %v: %+v", r.Code, m, r.Message)
}

func (r *Status) Wrap() error {
	return errors.WithStack(r)
}

func Error(code int, message string) error {
	err := &Status{code, message}
	return err.Wrap()
}

func Errorf(code int, format string, v ...any) error {
	return Error(code, fmt.Sprintf(format, v...))
}

// StatusCode unwraps err down to its Status code, or KUnknownError when
// err doesn't carry one.
func StatusCode(err error) int {
	if err == nil {
		return KOK
	}
	var status *Status
	if errors.As(err, &status) {
		return status.Code
	}
	return KUnknownError
}

func IndexOutOfRange(what string, index, count int) error {
	return Errorf(KKeyError, "%s index %d out of range [0, %d)", what, index, count)
}
