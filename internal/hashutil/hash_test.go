package hashutil

import "testing"

func TestDigestKnownVector(t *testing.T) {
	got := Digest("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("digest mismatch: got %q want %q", got, want)
	}
}

func TestDigestDeterministic(t *testing.T) {
	a := Digest("hunter2")
	b := Digest("hunter2")
	if a != b {
		t.Fatalf("same input produced different digests: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if c := Digest("hunter2 "); c == a {
		t.Fatalf("trailing space should change the digest")
	}
}
