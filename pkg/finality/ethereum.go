// Copyright 2025 Certen Protocol

package finality

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// ethHashHex formats a BlockRef's raw hash the way Ethereum tooling
// displays it (0x-prefixed, lowercase hex), using go-ethereum's own
// common.Hash rather than a hand-rolled hex encoder, for the error
// messages the Ethereum PoW and Beacon verifiers raise.
func ethHashHex(h [32]byte) string {
	return common.Hash(h).Hex()
}

// describeEthereumBlock renders a BlockRef in the form Ethereum block
// explorers and RPC error messages use, for EthereumPoWVerifier and
// EthereumBeaconVerifier's diagnostic strings.
func describeEthereumBlock(b frosttypes.BlockRef) string {
	return common.Hash(b.Hash).Hex() + "@" + strconv.FormatUint(b.Height, 10)
}
