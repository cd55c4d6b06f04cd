// Copyright 2025 Certen Protocol

package finality

import (
	"strings"
	"testing"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

func TestEthHashHex_FormatsAs0xPrefixed(t *testing.T) {
	var h [32]byte
	h[31] = 0xab
	got := ethHashHex(h)
	if !strings.HasPrefix(got, "0x") {
		t.Fatalf("expected 0x-prefixed hash, got %q", got)
	}
	if !strings.HasSuffix(got, "ab") {
		t.Fatalf("expected hash to end in ab, got %q", got)
	}
}

func TestDescribeEthereumBlock_IncludesHeight(t *testing.T) {
	block := frosttypes.BlockRef{Chain: "eth", Height: 12345}
	got := describeEthereumBlock(block)
	if !strings.HasSuffix(got, "@12345") {
		t.Fatalf("expected description to end with @12345, got %q", got)
	}
}
