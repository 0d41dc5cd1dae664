// Package errors provides the classified error primitives used across nbharness.
//
// A ClassifiedError carries a category, a severity, a retry strategy and a free-form
// context map. Errors are built with a fluent builder:
//
//	err := errors.NewError(errors.CategoryExecution, "jupyter nbconvert failed").
//		WithContext("notebook", path).
//		WithCause(runErr).
//		Build()
//
// The CLI adapter turns a classified error into a process exit code and a
// user-facing message.
package errors
