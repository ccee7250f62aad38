// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package collaborators

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/bottlerocket-os/settings-engine/updatestate"
)

// UpdateState implements apiserver.UpdateStateCollaborator against a small
// JSON status file, guarded by an advisory flock the way fsstore guards a
// transaction directory during commit. The real update dispatcher (out of
// scope per spec.md §1) is expected to write the same file; this
// collaborator only relays state and records requested actions, it does
// not itself drive the update lifecycle.
type UpdateState struct {
	Path string
}

type updateStatus struct {
	State      updatestate.State  `json:"state"`
	LastAction updatestate.Action `json:"last_action,omitempty"`
}

func (u UpdateState) lock() (*flock.Flock, error) {
	lock := flock.New(u.Path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("collaborators: locking %s: %w", u.Path, err)
	}
	return lock, nil
}

func (u UpdateState) read() (updateStatus, error) {
	body, err := os.ReadFile(u.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return updateStatus{State: updatestate.Idle}, nil
		}
		return updateStatus{}, fmt.Errorf("collaborators: reading %s: %w", u.Path, err)
	}
	var st updateStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return updateStatus{}, fmt.Errorf("collaborators: parsing %s: %w", u.Path, err)
	}
	return st, nil
}

func (u UpdateState) write(st updateStatus) error {
	body, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(u.Path, body, 0o640)
}

// State implements apiserver.UpdateStateCollaborator.
func (u UpdateState) State(_ context.Context) (updatestate.State, error) {
	lock, err := u.lock()
	if err != nil {
		return 0, err
	}
	defer lock.Unlock()

	st, err := u.read()
	return st.State, err
}

// Dispatch implements apiserver.UpdateStateCollaborator. It is the API
// server's side of handing an already-validated action off to the update
// dispatcher: it records the requested action and advances State the way
// updatestate's transition table implies, so repeated status reads are
// consistent even before the external dispatcher has run.
func (u UpdateState) Dispatch(_ context.Context, action updatestate.Action) error {
	lock, err := u.lock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	st, err := u.read()
	if err != nil {
		return err
	}
	st.LastAction = action
	st.State = nextState(action, st.State)
	return u.write(st)
}

// Status implements apiserver.UpdateStateCollaborator.
func (u UpdateState) Status(_ context.Context) (interface{}, error) {
	lock, err := u.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	st, err := u.read()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"state":       st.State.String(),
		"last_action": st.LastAction,
	}, nil
}

// nextState advances the dispatcher's state the way each action implies,
// independent of the external dispatcher actually having run yet. Reboot
// does not change state: it is always legal and does not enter the update
// lifecycle.
func nextState(action updatestate.Action, current updatestate.State) updatestate.State {
	switch action {
	case updatestate.RefreshUpdates:
		return updatestate.Available
	case updatestate.PrepareUpdate:
		return updatestate.Staged
	case updatestate.ActivateUpdate:
		return updatestate.Ready
	case updatestate.DeactivateUpdate:
		return updatestate.Idle
	default:
		return current
	}
}
