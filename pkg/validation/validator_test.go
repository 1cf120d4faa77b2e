package validation

import (
	"errors"
	"strings"
	"testing"
)

type adjustRequest struct {
	Delta  int    `json:"delta" validate:"ne=0"`
	Reason string `json:"reason" validate:"required,max=20"`
	Mode   string `json:"mode" validate:"omitempty,oneof=add remove"`
}

func TestStruct(t *testing.T) {
	if err := Struct(&adjustRequest{Delta: 2, Reason: "recount"}); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	err := Struct(&adjustRequest{Mode: "swap"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(verr.Fields), verr)
	}

	msg := verr.Error()
	for _, want := range []string{"delta must not be 0", "reason is required", "mode must be one of: add remove"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not contain %q", msg, want)
		}
	}
}
