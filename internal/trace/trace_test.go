package trace

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	a := GenerateRunID(PrefixImport)
	b := GenerateRunID(PrefixImport)
	if !strings.HasPrefix(a, "imp_") {
		t.Errorf("GenerateRunID() = %q, want imp_ prefix", a)
	}
	if len(a) != len("imp_")+16 {
		t.Errorf("GenerateRunID() length = %d, want %d", len(a), len("imp_")+16)
	}
	if a == b {
		t.Errorf("GenerateRunID() returned %q twice", a)
	}
}

func TestRunIDContext(t *testing.T) {
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID(empty) = %q, want empty", got)
	}

	ctx, id := NewRun(context.Background(), PrefixMessage)
	if got := GetRunID(ctx); got != id {
		t.Errorf("GetRunID() = %q, want %q", got, id)
	}

	ctx = WithRunID(ctx, "msg_fixed")
	if got := GetRunID(ctx); got != "msg_fixed" {
		t.Errorf("GetRunID() = %q, want msg_fixed", got)
	}
}
