package fallible

import (
	"errors"
	"testing"
)

func TestOr(t *testing.T) {
	got := Or(func() (string, error) { return "value", nil }, "default")
	if got != "value" {
		t.Errorf("Or success: got %q, want %q", got, "value")
	}

	got = Or(func() (string, error) { return "partial", errors.New("boom") }, "default")
	if got != "default" {
		t.Errorf("Or failure: got %q, want %q", got, "default")
	}
}

func TestOrZero(t *testing.T) {
	if got := OrZero(func() (bool, error) { return true, errors.New("boom") }); got {
		t.Error("OrZero should return false on error")
	}
}

func TestFirst(t *testing.T) {
	var calls []string
	step := func(name, value string, err error) func() (string, error) {
		return func() (string, error) {
			calls = append(calls, name)
			return value, err
		}
	}

	got, ok := First(
		step("fails", "ignored", errors.New("boom")),
		step("empty", "", nil),
		step("hit", "winner", nil),
		step("never", "late", nil),
	)
	if !ok || got != "winner" {
		t.Fatalf("First: got (%q, %v), want (%q, true)", got, ok, "winner")
	}
	if len(calls) != 3 {
		t.Errorf("First should stop at the first hit, ran %v", calls)
	}

	if _, ok := First(step("empty", "", nil)); ok {
		t.Error("First with no answers should report ok=false")
	}
}
