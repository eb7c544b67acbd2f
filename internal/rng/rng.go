// Package rng provides the deterministic seeded stream adapter behind
// ports.RNGPort. Stream identity is (name, seed): the same pair always
// yields an identical sequence, which is what batch reproducibility
// rests on.
package rng

import (
	"context"
	"hash/fnv"
	"math/rand"

	"socialcost/ports"
)

type deterministicRNG struct{}

// NewDeterministic returns the production RNG adapter.
func NewDeterministic() ports.RNGPort {
	return deterministicRNG{}
}

// SeededStream derives an independent stream for a named operation by
// folding the name into the seed. Two operations sharing one base seed
// therefore never consume each other's draws.
func (deterministicRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	derived := seed ^ int64(h.Sum64())
	return rand.New(rand.NewSource(derived)), nil
}
