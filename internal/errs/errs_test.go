package errs

import (
	"errors"
	"testing"
)

func TestWrapKeepsChain(t *testing.T) {
	root := errors.New("disk full")
	err := Wrapf(Wrap(root, "insert form"), "mutation %d", 7)

	if !errors.Is(err, root) {
		t.Fatalf("errors.Is(err, root) = false")
	}
	if err.Error() != "mutation 7: insert form: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
	chain := ErrorChainStrings(err)
	if len(chain) != 3 {
		t.Fatalf("ErrorChainStrings() len = %d, want 3", len(chain))
	}
	if Wrap(nil, "noop") != nil {
		t.Fatalf("Wrap(nil) should stay nil")
	}
}

func TestMarkTransientSurvivesWrapping(t *testing.T) {
	root := errors.New("database is locked")
	err := Wrap(MarkTransient(root), "commit")

	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true")
	}
	if !errors.Is(err, root) {
		t.Fatalf("transient marker broke the chain")
	}
	if IsTransient(errors.New("constraint failed")) {
		t.Fatalf("IsTransient() = true for plain error")
	}
	if MarkTransient(nil) != nil {
		t.Fatalf("MarkTransient(nil) should stay nil")
	}

	twice := MarkTransient(err)
	if twice != err {
		t.Fatalf("MarkTransient() should not double wrap")
	}
}
