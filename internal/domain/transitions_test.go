package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from  Status
		to    Status
		valid bool
	}{
		{StatusPending, StatusCalled, true},
		{StatusCalled, StatusServed, true},
		{StatusCalled, StatusNoShow, true},
		{StatusPending, StatusServed, false},
		{StatusPending, StatusNoShow, false},
		{StatusCalled, StatusPending, false},
		{StatusCalled, StatusCalled, false},
		{StatusServed, StatusCalled, false},
		{StatusServed, StatusPending, false},
		{StatusServed, StatusNoShow, false},
		{StatusNoShow, StatusCalled, false},
		{StatusNoShow, StatusServed, false},
		{StatusServed, StatusServed, false},
		{Status("unknown"), StatusCalled, false},
	}

	for _, tt := range cases {
		if got := CanTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("CanTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestApplyTransitionCall(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	tok := Token{ID: "t-1", Number: 101, Status: StatusPending}

	called, err := ApplyTransition(tok, StatusCalled, "Counter 2", now)
	require.NoError(t, err)
	assert.Equal(t, StatusCalled, called.Status)
	require.NotNil(t, called.CounterName)
	assert.Equal(t, "Counter 2", *called.CounterName)
	require.NotNil(t, called.CalledAt)
	assert.Equal(t, now, *called.CalledAt)
}

func TestApplyTransitionCallRequiresCounter(t *testing.T) {
	tok := Token{ID: "t-1", Status: StatusPending}

	_, err := ApplyTransition(tok, StatusCalled, "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyTransitionTerminalKeepsCounter(t *testing.T) {
	counter := "Counter 1"
	calledAt := time.Now().UTC()
	tok := Token{ID: "t-1", Status: StatusCalled, CounterName: &counter, CalledAt: &calledAt}

	served, err := ApplyTransition(tok, StatusServed, "", calledAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusServed, served.Status)
	require.NotNil(t, served.CounterName)
	assert.Equal(t, "Counter 1", *served.CounterName)
	require.NotNil(t, served.ServedAt)
}

func TestApplyTransitionRejectsIllegalMoves(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
	}{
		{"served to called", StatusServed, StatusCalled},
		{"pending to served skips called", StatusPending, StatusServed},
		{"noshow to served", StatusNoShow, StatusServed},
		{"called back to pending", StatusCalled, StatusPending},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tok := Token{ID: "t-1", Status: tt.from}
			got, err := ApplyTransition(tok, tt.to, "Counter 1", time.Now())
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, got.Status, "token status must be unchanged after a rejected transition")
		})
	}
}
