// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package updatestate models the external update dispatcher's state
// machine as the API server sees it: enough to validate which
// /actions/{...} commands are currently legal (spec §4.G), without
// implementing the dispatcher itself (out of scope per spec.md §1).
package updatestate

import "fmt"

// State is one of the update dispatcher's lifecycle states.
type State int

const (
	Idle State = iota
	Available
	Staged
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Available:
		return "available"
	case Staged:
		return "staged"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Action is one of the dispatcher commands the API server's
// /actions/{...} endpoint can relay.
type Action string

const (
	Reboot           Action = "reboot"
	RefreshUpdates   Action = "refresh-updates"
	PrepareUpdate    Action = "prepare-update"
	ActivateUpdate   Action = "activate-update"
	DeactivateUpdate Action = "deactivate-update"
)

// allowed maps each action to the set of states it may be dispatched from.
// Reboot is always legal; the others follow the update lifecycle: you can
// only look for updates while idle, only stage an update once one is
// available, only activate once staged, and only deactivate once ready.
var allowed = map[Action]map[State]bool{
	Reboot:           {Idle: true, Available: true, Staged: true, Ready: true},
	RefreshUpdates:   {Idle: true},
	PrepareUpdate:    {Available: true},
	ActivateUpdate:   {Staged: true},
	DeactivateUpdate: {Ready: true},
}

// Allowed reports whether action may be dispatched while the update
// subsystem is in state s.
func Allowed(action Action, s State) bool {
	return allowed[action][s]
}
