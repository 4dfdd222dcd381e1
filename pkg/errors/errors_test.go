package errors

import (
	"fmt"
	"testing"
)

func TestTypedErrorsMatchSentinelsThroughWrapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		target error
		code   string
	}{
		{"validation", NewValidationError("empty", "message", ""), ErrValidation, CodeValidation},
		{"not found", NewNotFoundError("no prompt", "fixed_prompt"), ErrNotFound, CodeNotFound},
		{"index", NewIndexError(3, 2), ErrIndex, CodeIndex},
		{"template", NewTemplateNotViewableError(), ErrTemplateNotViewable, CodeTemplateNotViewable},
		{"context", NewUnsupportedContextError("guild only"), ErrUnsupportedContext, CodeUnsupportedContext},
		{"capability", NewRemoteCapabilityError("c1", "dm"), ErrRemoteCapability, CodeRemoteCapability},
		{"store", NewStoreError("write failed", "upsert", fmt.Errorf("conn reset")), ErrTransientStore, CodeTransientStore},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tc.err)
			if !Is(wrapped, tc.target) {
				t.Fatalf("expected %v to match sentinel %s", wrapped, tc.code)
			}
			if got := CodeOf(wrapped); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
		})
	}
}

func TestSentinelsDoNotCrossMatch(t *testing.T) {
	err := NewNotFoundError("no prompt", "fixed_prompt")
	if Is(err, ErrValidation) {
		t.Fatalf("not-found error must not match validation sentinel")
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestStoreErrorUnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("driver: bad connection")
	err := NewStoreError("upsert fixed prompt", "upsert", cause)
	if !Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "upsert fixed prompt: driver: bad connection" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestIndexErrorContext(t *testing.T) {
	err := NewIndexError(0, 2)
	if err.Index != 0 || err.Length != 2 {
		t.Fatalf("unexpected fields: %+v", err)
	}
	if err.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", err.StatusCode)
	}
}
