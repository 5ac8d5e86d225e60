package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Outcome
		kind string
	}{
		{nil, OutcomeOK, ""},
		{ErrInvalidChoice, OutcomeRejected, "validation"},
		{ErrSessionActive, OutcomeRejected, "conflict"},
		{ErrSessionEnded, OutcomeRejected, "not_found"},
		{ErrAlreadyCompleted, OutcomeRejected, "already_completed"},
		{fmt.Errorf("open window: %w", ErrNoActiveSession), OutcomeRejected, "not_found"},
		{Storage("insert answer", errors.New("connection reset")), OutcomeFailure, "storage"},
		{errors.New("boom"), OutcomeFailure, ""},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
		if got := Kind(tc.err); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
	}
}

func TestStorageKeepsDomainErrors(t *testing.T) {
	err := Storage("get session", ErrSessionNotFound)
	if err != ErrSessionNotFound {
		t.Fatalf("expected domain error passthrough, got %v", err)
	}
	var se *StorageError
	if !errors.As(Storage("get session", errors.New("timeout")), &se) || se.Op != "get session" {
		t.Fatalf("expected StorageError with op")
	}
}

func TestParseChoice(t *testing.T) {
	for _, raw := range []string{"a", "B", " c ", "D"} {
		if _, err := ParseChoice(raw); err != nil {
			t.Fatalf("ParseChoice(%q): %v", raw, err)
		}
	}
	for _, raw := range []string{"", "E", "ab", "1"} {
		if _, err := ParseChoice(raw); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseChoice(%q) expected validation error, got %v", raw, err)
		}
	}
	if !Choice("b").Matches(ChoiceB) {
		t.Fatalf("expected case-insensitive match")
	}
}
