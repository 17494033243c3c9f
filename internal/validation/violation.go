// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Violation is a rule a setting or an argument failed
type Violation struct {
	// Field names the offending value, empty for free form assertions
	Field   string
	Message string
}

// enforce compilation error
var (
	_ error     = (*Violation)(nil)
	_ Validator = (*assertion)(nil)
)

// Error returns "the [field] message", or the message alone without a field
func (v *Violation) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("the [%s] %s", v.Field, v.Message)
}

// Violations lists the violations combined in err by a Chain.
// Errors that are not violations are skipped.
func Violations(err error) []*Violation {
	var out []*Violation
	for _, e := range multierr.Errors(err) {
		var violation *Violation
		if errors.As(e, &violation) {
			out = append(out, violation)
		}
	}
	return out
}

type assertion struct {
	isTrue  bool
	message string
}

// NewAssertion creates a validator that reports message when isTrue is false
func NewAssertion(isTrue bool, message string) Validator {
	return &assertion{isTrue: isTrue, message: message}
}

// Validate implements Validator
func (a *assertion) Validate() error {
	if a.isTrue {
		return nil
	}
	return &Violation{Message: a.message}
}
