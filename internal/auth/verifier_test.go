package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"soulcare/internal/hashutil"
	"soulcare/internal/metrics"
)

type fakeConfigReader struct {
	value string
	err   error
}

func (f *fakeConfigReader) ReadConfig(ctx context.Context, key string) (string, error) {
	_ = ctx
	if key != passwordHashKey {
		return "", errors.New("unexpected key " + key)
	}
	return f.value, f.err
}

func TestVerifyDisabledRemote(t *testing.T) {
	v := NewVerifier(nil, zerolog.Nop(), metrics.Global())
	if v.Verify(context.Background(), "anything") {
		t.Fatalf("expected false when the remote store is not configured")
	}
}

func TestVerifyAgainstStoredHash(t *testing.T) {
	remote := &fakeConfigReader{value: hashutil.Digest("letmein")}
	v := NewVerifier(remote, zerolog.Nop(), metrics.Global())

	if !v.Verify(context.Background(), "letmein") {
		t.Fatalf("expected matching password to verify")
	}
	if !v.Verify(context.Background(), "  letmein  ") {
		t.Fatalf("expected surrounding whitespace to be trimmed before hashing")
	}
	if v.Verify(context.Background(), "wrong") {
		t.Fatalf("expected non-matching password to fail")
	}
}

func TestVerifyRecoveryHashOnRemoteFailure(t *testing.T) {
	remote := &fakeConfigReader{err: errors.New("timed out")}
	v := NewVerifier(remote, zerolog.Nop(), metrics.Global())
	v.recovery = hashutil.Digest("break-glass")

	if !v.Verify(context.Background(), "break-glass") {
		t.Fatalf("expected recovery credential to verify when remote is unreachable")
	}
	if v.Verify(context.Background(), "wrong") {
		t.Fatalf("expected non-recovery password to fail when remote is unreachable")
	}
}

func TestVerifyRecoveryHashIgnoredWhenRemoteHealthy(t *testing.T) {
	remote := &fakeConfigReader{value: hashutil.Digest("actual")}
	v := NewVerifier(remote, zerolog.Nop(), metrics.Global())
	v.recovery = hashutil.Digest("break-glass")

	// The recovery hash only applies when the remote check itself fails.
	if v.Verify(context.Background(), "break-glass") {
		t.Fatalf("recovery credential must not bypass a healthy remote check")
	}
}
