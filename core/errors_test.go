package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Checks(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
		code  string
	}{
		{Errorf(ModuleRagged, ErrorCodeMalformedOffsets, "offsets[0] = %d", 1), IsMalformedOffsets, ErrorCodeMalformedOffsets},
		{Errorf(ModuleBatch, ErrorCodeSchemaMismatch, "missing"), IsSchemaMismatch, ErrorCodeSchemaMismatch},
		{Errorf(ModuleRagged, ErrorCodeInvalidInput, "bad"), IsInvalidInput, ErrorCodeInvalidInput},
		{Errorf(ModuleStore, ErrorCodeNotFound, "key"), IsNotFound, ErrorCodeNotFound},
		{Errorf(ModuleDataset, ErrorCodeNotSupported, "orc"), IsNotSupported, ErrorCodeNotSupported},
		{Errorf(ModuleService, ErrorCodeUnavailable, "down"), IsUnavailable, ErrorCodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			wrapped := fmt.Errorf("batch 3: %w", tt.err)
			if !tt.check(tt.err) || !tt.check(wrapped) {
				t.Errorf("check failed for %v", wrapped)
			}
			if got := ErrorCode(wrapped); got != tt.code {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.code)
			}
		})
	}

	plain := errors.New("boom")
	if IsDomainError(plain) || ErrorCode(plain) != "" || IsNotFound(nil) {
		t.Error("plain errors must not match")
	}
}

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("get: %w", Errorf(ModuleStore, ErrorCodeNotFound, "store: key %q not found", "k"))
	if !errors.Is(err, ErrStoreNotFound) || !IsStoreNotFound(err) {
		t.Errorf("errors.Is(%v, ErrStoreNotFound) = false", err)
	}
	other := Errorf(ModuleFeature, ErrorCodeNotFound, "vocab")
	if errors.Is(other, ErrStoreNotFound) {
		t.Error("different module must not match the store sentinel")
	}
}
