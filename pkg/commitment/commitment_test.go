// Copyright 2025 Certen Protocol

package commitment

import (
	"encoding/hex"
	"testing"
)

func TestCanonicalizeJSON_SortsKeys(t *testing.T) {
	got, err := CanonicalizeJSON([]byte(`{"b":1,"a":2}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %v", err)
	}
	if string(got) != `{"a":2,"b":1}` {
		t.Fatalf("got %s, want sorted keys", got)
	}
}

func TestHashCanonical_OrderIndependent(t *testing.T) {
	a, err := HashCanonical(map[string]interface{}{"x": 1, "y": 2})
	if err != nil {
		t.Fatalf("HashCanonical: %v", err)
	}
	b, err := HashCanonical(map[string]interface{}{"y": 2, "x": 1})
	if err != nil {
		t.Fatalf("HashCanonical: %v", err)
	}
	if a != b {
		t.Fatalf("hashes differ for equivalent maps: %s vs %s", a, b)
	}
}

func TestHashCanonical_DifferentValuesDiffer(t *testing.T) {
	a, err := HashCanonical(map[string]interface{}{"x": 1})
	if err != nil {
		t.Fatalf("HashCanonical: %v", err)
	}
	b, err := HashCanonical(map[string]interface{}{"x": 2})
	if err != nil {
		t.Fatalf("HashCanonical: %v", err)
	}
	if a == b {
		t.Fatal("expected different hashes for different values")
	}
}

func TestHashHex_MatchesHashConcat(t *testing.T) {
	parts := [][]byte{[]byte("a"), []byte("b")}
	if HashHex(parts...) != hex.EncodeToString(HashConcat(parts...)) {
		t.Fatal("expected HashHex to equal the hex encoding of HashConcat")
	}
}
