// Package errors carries the module's sentinel errors and re-exports the
// wrap helpers used throughout, so call sites import a single errors
// package.
package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	New       = errors.New
	Errorf    = errors.Errorf
	Wrapf     = errors.Wrapf
	WithStack = errors.WithStack
	Cause     = errors.Cause

	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
)
