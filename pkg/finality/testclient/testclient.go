// Copyright 2025 Certen Protocol

// Package testclient provides an in-memory FinalityVerificationClient
// fake for use in pkg/finality's own tests, grounded on the teacher's
// habit of shipping light test doubles next to the code that consumes
// them rather than a separate mocking framework.
package testclient

import (
	"context"
	"sync"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// Client is a programmable in-memory FinalityVerificationClient.
type Client struct {
	mu sync.Mutex

	Heads     map[frosttypes.ChainID]frosttypes.BlockRef
	Finalized map[frosttypes.ChainID]frosttypes.BlockRef
	Confidence map[frosttypes.BlockRef]float64
}

// New constructs an empty fake client.
func New() *Client {
	return &Client{
		Heads:      make(map[frosttypes.ChainID]frosttypes.BlockRef),
		Finalized:  make(map[frosttypes.ChainID]frosttypes.BlockRef),
		Confidence: make(map[frosttypes.BlockRef]float64),
	}
}

func (c *Client) GetBlock(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (frosttypes.BlockRef, error) {
	return ref, nil
}

func (c *Client) VerifyBlockHash(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (bool, error) {
	return ref.Hash != [32]byte{}, nil
}

func (c *Client) IsBlockFinalized(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.Finalized[chain]
	return ok && f.Height >= ref.Height, nil
}

func (c *Client) IsBlockJustified(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (bool, error) {
	return c.IsBlockFinalized(ctx, chain, ref)
}

func (c *Client) VerifyVoteSignatures(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, signatures [][]byte) (bool, error) {
	return len(signatures) > 0, nil
}

func (c *Client) VerifyValidatorSignatures(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, signatures [][]byte) (bool, error) {
	return len(signatures) > 0, nil
}

func (c *Client) GetLatestFinalizedBlock(ctx context.Context, chain frosttypes.ChainID) (frosttypes.BlockRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Finalized[chain], nil
}

func (c *Client) GetChainHead(ctx context.Context, chain frosttypes.ChainID) (frosttypes.BlockRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Heads[chain], nil
}

func (c *Client) VerifyBlockInclusion(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, proof []byte) (bool, error) {
	return len(proof) > 0, nil
}

func (c *Client) GetFinalityConfidence(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Confidence[ref], nil
}

func (c *Client) VerifyChainRules(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, rules frosttypes.ChainRules) (bool, error) {
	return ref.Height >= rules.MinConfirmations, nil
}
