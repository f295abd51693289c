// Package entropy provides the deterministic randomness the simulation consumes.
// A single seeded generator serves population-level draws (births, initial ages);
// per-agent draws are derived from (seed, agent, tick) so iteration order never
// decides who is affected.
package entropy

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	randv2 "math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the shared deterministic generator for one simulation run.
type Source struct {
	seed  int64
	rng   *rand.Rand
	count randv2.Source // feeds count distributions
}

// NewSource creates a generator seeded with seed.
func NewSource(seed int64) *Source {
	rng := rand.New(rand.NewSource(seed))
	return &Source{
		seed:  seed,
		rng:   rng,
		count: randv2.NewPCG(rng.Uint64(), rng.Uint64()),
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Float returns a float64 in [0, 1) from the shared stream.
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// NormFloat returns a standard normal sample from the shared stream.
func (s *Source) NormFloat() float64 {
	return s.rng.NormFloat64()
}

// Intn returns an int in [0, n) from the shared stream.
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// Poisson samples a Poisson-distributed count with mean lambda.
// Non-positive means always yield 0.
func (s *Source) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.count}.Rand())
}

// Draw returns a float64 in [0, 1) that depends only on the seed, the agent
// and the tick. The shared stream is not advanced.
func (s *Source) Draw(agent, tick uint64) float64 {
	return Draw(s.seed, agent, tick)
}

// Draw is the stateless form of Source.Draw.
func Draw(seed int64, agent, tick uint64) float64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], agent)
	binary.LittleEndian.PutUint64(buf[16:], tick)

	h := fnv.New64a()
	h.Write(buf[:])

	// Use only 53 bits for a uniform float64 in [0, 1).
	n := mix64(h.Sum64()) >> 11
	return float64(n) / float64(1<<53)
}

// mix64 is the splitmix64 finalizer; FNV alone leaves the low bits poorly spread.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
