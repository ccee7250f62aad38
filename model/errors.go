// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package model

// Error is returned by Serialize and Deserialize.
type Error struct {
	Message string
}

func (e *Error) Error() string { return "model: " + e.Message }
