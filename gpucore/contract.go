// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "fmt"

// ContractError is the panic value raised when a caller breaks a usage rule
// of the API, such as overflowing the barrier batch or recording into a
// context after Finish. It is a programming error and is not meant to be
// recovered.
type ContractError struct {
	Pkg  string
	Rule string
}

func (e *ContractError) Error() string {
	return e.Pkg + ": contract violation: " + e.Rule
}

// Assert panics with a *ContractError when cond is false.
func Assert(cond bool, pkg, format string, args ...any) {
	if !cond {
		panic(&ContractError{Pkg: pkg, Rule: fmt.Sprintf(format, args...)})
	}
}
