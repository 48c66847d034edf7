package lblgen

// Seeded randomness for object placement.

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"cogentcore.org/core/base/randx"
	"github.com/go-gl/mathgl/mgl64"
)

// Placement bounds for randomized objects.
const (
	locationMin    = -0.5
	locationMax    = 0.5
	locationHeight = 1.0 // Objects are dropped from a constant height above the background.
)

// RandomState is a single sequential stream of pseudo-random draws. The same seed always yields
// the same sequence of locations, orientations and colors.
//
// A RandomState is not safe for concurrent use.
type RandomState struct {
	rnd  *randx.SysRand
	seed int64
}

// NewRandomState returns a stream seeded with *seed, or with a seed drawn from the system's entropy
// source if seed is nil.
func NewRandomState(seed *int64) *RandomState {
	s := entropySeed()
	if seed != nil {
		s = *seed
	}
	return &RandomState{rnd: randx.NewSysRand(s), seed: s}
}

// fallbackSeeds distinguishes clock based seeds drawn within the same clock tick.
var fallbackSeeds atomic.Int64

// entropySeed returns a non-negative, non-deterministic seed from the system's secure random
// source. The wall clock mixed with a counter is used if that source fails.
func entropySeed() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err == nil {
		return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
	}
	return (time.Now().UnixNano() ^ fallbackSeeds.Add(1)<<40) & math.MaxInt64
}

// Reseed resets the stream to the deterministic state defined by seed.
func (rs *RandomState) Reseed(seed int64) {
	rs.seed = seed
	rs.rnd.Seed(seed)
}

// Seed returns the seed the stream was last initialized with.
func (rs *RandomState) Seed() int64 {
	return rs.seed
}

// Float64 returns a number in [0.0, 1.0).
func (rs *RandomState) Float64() float64 {
	return rs.rnd.Float64()
}

// Int63 returns a non-negative 63-bit integer.
func (rs *RandomState) Int63() int64 {
	return rs.rnd.Int63()
}

// Intn returns a number in [0, n). It panics if n <= 0.
func (rs *RandomState) Intn(n int) int {
	return rs.rnd.Intn(n)
}

// Uniform returns a number in [low, high).
func (rs *RandomState) Uniform(low, high float64) float64 {
	return low + (high-low)*rs.rnd.Float64()
}

// Location draws x and y in [-0.5, 0.5); z is fixed at 1.0.
func (rs *RandomState) Location() mgl64.Vec3 {
	x := rs.Uniform(locationMin, locationMax)
	y := rs.Uniform(locationMin, locationMax)
	return mgl64.Vec3{x, y, locationHeight}
}

// Orientation draws three Euler angles in [0°, 360°) and returns them in radians.
func (rs *RandomState) Orientation() mgl64.Vec3 {
	var v mgl64.Vec3
	for i := range v {
		v[i] = rs.Uniform(0, 360) * math.Pi / 180
	}
	return v
}

// Color draws an RGBA color with every channel in [0.0, 1.0).
func (rs *RandomState) Color() mgl64.Vec4 {
	var c mgl64.Vec4
	for i := range c {
		c[i] = rs.Uniform(0, 1)
	}
	return c
}
