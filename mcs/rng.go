package mcs

import (
	"hash/fnv"
	"math/rand"
)

// SamplingKey uniquely identifies a reproducible sampling run.
// Two generations with the same SamplingKey, the same registry contents and
// the same trial count MUST produce bit-for-bit identical trial tables.
type SamplingKey int64

// NewSamplingKey creates a SamplingKey from a seed value.
func NewSamplingKey(seed int64) SamplingKey {
	return SamplingKey(seed)
}

// FieldSubsystem returns the RNG subsystem name for the named field.
// Each field draws from its own stream, so trial data for one field does not
// depend on how many fields were generated before it.
func FieldSubsystem(fieldName string) string {
	return "field_" + fieldName
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine;
// trial generation is single-threaded by design.
type PartitionedRNG struct {
	key        SamplingKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SamplingKey.
func NewPartitionedRNG(key SamplingKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SamplingKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SamplingKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
