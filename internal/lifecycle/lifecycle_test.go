package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nannyhub/internal/types"
)

func TestApply(t *testing.T) {
	testCases := []struct {
		name     string
		from     Status
		action   Action
		hasNanny bool
		want     Status
		wantErr  error
	}{
		{name: "assign draft", from: Draft, action: ActionAssign, want: Pending},
		{name: "assign twice", from: Pending, action: ActionAssign, hasNanny: true, want: Pending, wantErr: types.ErrAlreadyAssigned},
		{name: "assign confirmed without nanny", from: Confirmed, action: ActionAssign, want: Confirmed, wantErr: types.ErrInvalidTransition},
		{name: "accept pending", from: Pending, action: ActionAccept, hasNanny: true, want: Confirmed},
		{name: "accept draft", from: Draft, action: ActionAccept, want: Draft, wantErr: types.ErrInvalidTransition},
		{name: "accept confirmed", from: Confirmed, action: ActionAccept, hasNanny: true, want: Confirmed, wantErr: types.ErrInvalidTransition},
		{name: "reject pending", from: Pending, action: ActionReject, hasNanny: true, want: Draft},
		{name: "reject confirmed", from: Confirmed, action: ActionReject, hasNanny: true, want: Confirmed, wantErr: types.ErrInvalidTransition},
		{name: "unassign pending", from: Pending, action: ActionUnassign, hasNanny: true, want: Draft},
		{name: "unassign confirmed", from: Confirmed, action: ActionUnassign, hasNanny: true, want: Draft},
		{name: "unassign without nanny", from: Draft, action: ActionUnassign, want: Draft, wantErr: types.ErrInvalidTransition},
		{name: "unassign in progress", from: InProgress, action: ActionUnassign, hasNanny: true, want: InProgress, wantErr: types.ErrInvalidTransition},
		{name: "cancel draft", from: Draft, action: ActionCancel, want: Cancelled},
		{name: "cancel in progress", from: InProgress, action: ActionCancel, hasNanny: true, want: Cancelled},
		{name: "cancel cancelled", from: Cancelled, action: ActionCancel, want: Cancelled, wantErr: types.ErrInvalidTransition},
		{name: "cancel completed", from: Completed, action: ActionCancel, hasNanny: true, want: Completed, wantErr: types.ErrInvalidTransition},
		{name: "assign completed", from: Completed, action: ActionAssign, hasNanny: true, want: Completed, wantErr: types.ErrInvalidTransition},
		{name: "unknown action", from: Draft, action: Action("archive"), want: Draft, wantErr: types.ErrInvalidTransition},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(tc.from, tc.action, tc.hasNanny)
			assert.Equal(t, tc.want, got)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPassive(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	before := start.Add(-time.Minute)
	during := start.Add(time.Hour)

	testCases := []struct {
		name   string
		status Status
		now    time.Time
		want   Status
	}{
		{name: "confirmed before start", status: Confirmed, now: before, want: Confirmed},
		{name: "confirmed at start", status: Confirmed, now: start, want: InProgress},
		{name: "confirmed during", status: Confirmed, now: during, want: InProgress},
		{name: "confirmed at end", status: Confirmed, now: end, want: Completed},
		{name: "confirmed long past", status: Confirmed, now: end.Add(48 * time.Hour), want: Completed},
		{name: "in progress during", status: InProgress, now: during, want: InProgress},
		{name: "in progress after end", status: InProgress, now: end, want: Completed},
		{name: "pending never starts", status: Pending, now: during, want: Pending},
		{name: "pending never completes", status: Pending, now: end.Add(time.Hour), want: Pending},
		{name: "draft untouched", status: Draft, now: end.Add(time.Hour), want: Draft},
		{name: "cancelled untouched", status: Cancelled, now: during, want: Cancelled},
		{name: "completed untouched", status: Completed, now: before, want: Completed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Passive(tc.status, start, end, tc.now)
			assert.Equal(t, tc.want, got)
			assert.True(t, Forward(tc.status, got))
		})
	}
}

func TestPassiveNeverRegresses(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	for _, status := range Statuses() {
		current := status
		for now := start.Add(-time.Hour); now.Before(end.Add(time.Hour)); now = now.Add(15 * time.Minute) {
			next := Passive(current, start, end, now)
			require.True(t, Forward(current, next), "%s -> %s at %s", current, next, now)
			current = next
		}
	}
}

func TestForward(t *testing.T) {
	assert.True(t, Forward(Draft, Pending))
	assert.True(t, Forward(Confirmed, Cancelled))
	assert.True(t, Forward(Completed, Completed))
	assert.False(t, Forward(Confirmed, Pending))
	assert.False(t, Forward(Cancelled, Draft))
	assert.False(t, Forward(Completed, Cancelled))
}

func TestLabels(t *testing.T) {
	for _, status := range Statuses() {
		assert.True(t, Valid(status))
		assert.NotEqual(t, string(status), Label(status))
	}
	assert.False(t, Valid(Status("archived")))
	assert.Equal(t, "archived", Label(Status("archived")))
	assert.ElementsMatch(t, []Status{Draft, Pending, Confirmed, InProgress}, NonTerminal())
}
