/*
Copyright 2026 The Vitess Authors.

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

// Package mserrors provides the error taxonomy of the multi-stage planner.
//
// Every error produced by the planner carries a Kind. Callers should switch
// on KindOf(err) rather than on error strings. Errors created here record a
// stack trace; format them with %+v to print it.
package mserrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a planning failure.
type Kind int

const (
	// Unknown is returned by KindOf for errors that were not produced by this package.
	Unknown Kind = iota
	// StructuralPlan means the input operator tree is malformed.
	StructuralPlan
	// WorkerAssignment means the cluster state cannot satisfy a stage's placement.
	WorkerAssignment
	// OptimizationInvariant means a physical optimizer safety check failed.
	OptimizationInvariant
	// Internal means a precondition of the planner itself was violated.
	Internal
)

var kindNames = map[Kind]string{
	Unknown:               "UNKNOWN",
	StructuralPlan:        "STRUCTURAL_PLAN",
	WorkerAssignment:      "WORKER_ASSIGNMENT",
	OptimizationInvariant: "OPTIMIZATION_INVARIANT",
	Internal:              "INTERNAL",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type msError struct {
	kind Kind
	err  error
}

func (e *msError) Error() string { return e.err.Error() }

// Cause implements the pkg/errors causer interface.
func (e *msError) Cause() error { return e.err }

// Unwrap implements the errors.Unwrap contract.
func (e *msError) Unwrap() error { return e.err }

// Format lets %+v print the recorded stack trace.
func (e *msError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%+v", e.err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// New returns an error of the given kind with the supplied message.
func New(kind Kind, message string) error {
	return &msError{kind: kind, err: errors.New(message)}
}

// Errorf returns an error of the given kind formatted according to a format specifier.
func Errorf(kind Kind, format string, args ...any) error {
	return &msError{kind: kind, err: errors.Errorf(format, args...)}
}

// Wrapf annotates err with a message and a kind. If err is nil, Wrapf returns nil.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &msError{kind: kind, err: errors.Wrapf(err, format, args...)}
}

// Wrap annotates err with a message, keeping the kind of err.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &msError{kind: KindOf(err), err: errors.Wrap(err, message)}
}

// KindOf returns the kind of the outermost planner error in the chain of err.
func KindOf(err error) Kind {
	var e *msError
	if errors.As(err, &e) {
		return e.kind
	}
	return Unknown
}

// Is reports whether err is a planner error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// NewStructuralPlanError reports a malformed input tree.
func NewStructuralPlanError(format string, args ...any) error {
	return Errorf(StructuralPlan, format, args...)
}

// NewWorkerAssignmentError reports a stage that cannot be placed on the cluster.
func NewWorkerAssignmentError(format string, args ...any) error {
	return Errorf(WorkerAssignment, format, args...)
}

// NewOptimizationInvariantViolation reports a failed optimizer safety check.
func NewOptimizationInvariantViolation(format string, args ...any) error {
	return Errorf(OptimizationInvariant, format, args...)
}

// NewInternalError reports a bug or misuse of the planner.
func NewInternalError(format string, args ...any) error {
	return Errorf(Internal, "[BUG] "+format, args...)
}
