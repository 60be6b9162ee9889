//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package multierror collects errors from steps that must all run, such as
// flag checks or closing a session after a failed operation.
package multierror

import (
	"bytes"
	"fmt"
)

type Error struct {
	errs []error
}

func (e *Error) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	buf := bytes.NewBuffer(nil)

	fmt.Fprintf(buf, "%d errors occurred:", len(e.errs))
	for _, err := range e.errs {
		fmt.Fprintf(buf, "\n  %s", err)
	}
	return buf.String()
}

// Errors returns the collected errors in the order they were added.
func (e *Error) Errors() []error {
	return e.errs
}

// Append adds errs to err. Nil errors are skipped, and the result is nil
// if no error remains.
func Append(err error, errs ...error) error {
	var add []error
	for _, e := range errs {
		if e != nil {
			add = append(add, e)
		}
	}
	switch err := err.(type) {
	case nil:
		if len(add) == 0 {
			return nil
		}
		return &Error{add}
	case *Error:
		err.errs = append(err.errs, add...)
		return err
	default:
		if len(add) == 0 {
			return err
		}
		return &Error{append([]error{err}, add...)}
	}
}
