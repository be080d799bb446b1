// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import "github.com/pkg/errors"

// Errors returned by signal and database queries. Use errors.Cause to compare
// wrapped errors against these values.
var (
	ErrNegativeIndex      = errors.New("negative index")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrRangeTooWide       = errors.New("bit range exceeds signal width")
	ErrNotSignal          = errors.New("object is not a signal")
	ErrNotSingleBit       = errors.New("signal is not a single bit")
	ErrPathConflict       = errors.New("path conflicts with an existing object")
	ErrTransitionNotFound = errors.New("transition not found")
)

// NotFound is the time returned when a transition search runs off the
// timeline.
//
const NotFound int64 = -1
