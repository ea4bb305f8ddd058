package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCode(t *testing.T) {
	base := fmt.Errorf("disk gone")
	err := Wrap(base, CodeFileUnreadable, "read source file")

	if !IsCode(err, CodeFileUnreadable) {
		t.Fatalf("expected FILE_UNREADABLE, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to the base error")
	}
}

func TestAddContextOnPlainError(t *testing.T) {
	err := AddContext(fmt.Errorf("boom"), CtxPath, "Code.js")

	var ae *AuditError
	if !errors.As(err, &ae) {
		t.Fatal("expected AuditError")
	}
	if ae.Code != CodeInternal {
		t.Errorf("plain errors should be promoted to INTERNAL_ERROR, got %s", ae.Code)
	}
	if ae.Context[CtxPath] != "Code.js" {
		t.Errorf("context not attached: %v", ae.Context)
	}
}

func TestIsCodeMismatch(t *testing.T) {
	err := New(CodeCacheCorrupt, "stale blob")
	if IsCode(err, CodeConfigMissing) {
		t.Error("CACHE_CORRUPT should not match CONFIG_MISSING")
	}
	if IsCode(fmt.Errorf("plain"), CodeCacheCorrupt) {
		t.Error("plain error should not match any code")
	}
}
