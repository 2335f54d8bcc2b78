package jobs

import (
	"errors"
	"fmt"
	"testing"
)

func TestPermanent(t *testing.T) {
	base := errors.New("session not found")

	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if IsPermanent(base) {
		t.Error("plain error reported as permanent")
	}

	wrapped := fmt.Errorf("handler: %w", Permanent(base))
	if !IsPermanent(wrapped) {
		t.Error("wrapped permanent error not detected")
	}
	if !errors.Is(wrapped, base) {
		t.Error("permanent error must unwrap to its cause")
	}
	if wrapped.Error() != "handler: session not found" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
