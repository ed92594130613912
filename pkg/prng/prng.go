package prng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Rand is a splitmix32 generator. It is not safe for concurrent use.
type Rand struct {
	state uint32
	seed  uint32
}

// New creates a generator positioned at the start of the sequence for seed.
func New(seed uint32) *Rand {
	return &Rand{state: seed, seed: seed}
}

// Seed returns the seed the generator was created with.
func (r *Rand) Seed() uint32 {
	return r.seed
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	r.state += 0x9e3779b9
	t := r.state ^ r.state>>16
	t *= 0x21f0aaad
	t ^= t >> 15
	t *= 0x735a2d97
	t ^= t >> 15
	return float64(t) / 4294967296
}

// Int returns an integer in [min, max]. When max < min it returns min.
func (r *Rand) Int(min, max int64) int64 {
	if max < min {
		return min
	}
	return int64(math.Floor(r.Float64()*float64(max-min+1))) + min
}

// IntF is Int with fractional bounds; min is rounded up and max down.
func (r *Rand) IntF(min, max float64) int64 {
	return r.Int(int64(math.Ceil(min)), int64(math.Floor(max)))
}

// Pick returns an index in [0, n).
func (r *Rand) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Int(0, int64(n-1)))
}

// Float returns a value in [min, max).
func (r *Rand) Float(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// Bool returns true with probability one half.
func (r *Rand) Bool() bool {
	return r.Float64() < 0.5
}

// String returns an alphanumeric string whose length is in [minLen, maxLen].
func (r *Rand) String(minLen, maxLen int) string {
	return r.StringFrom(alphanumeric, minLen, maxLen)
}

// StringFrom returns a string drawn from alphabet whose length is in [minLen, maxLen].
func (r *Rand) StringFrom(alphabet string, minLen, maxLen int) string {
	n := r.Int(int64(minLen), int64(maxLen))
	var b strings.Builder
	b.Grow(int(n))
	for i := int64(0); i < n; i++ {
		b.WriteByte(alphabet[int(r.Float64()*float64(len(alphabet)))])
	}
	return b.String()
}

// IntMultiple picks an integer multiple of multiple within [min, max].
// It reports false when the range holds no integer multiple.
func (r *Rand) IntMultiple(min, max, multiple float64) (int64, bool) {
	if multiple <= 0 || math.IsNaN(multiple) || math.IsInf(multiple, 0) {
		return 0, false
	}
	step, ok := integerStep(multiple)
	if !ok {
		return 0, false
	}
	first := math.Ceil(min/step) * step
	last := math.Floor(max/step) * step
	if first > last {
		return 0, false
	}
	count := int64(math.Round((last-first)/step)) + 1
	idx := int64(r.Float64() * float64(count))
	return int64(first) + idx*int64(step), true
}

// integerStep returns the smallest integer that is a multiple of multiple.
// The multiple is read as its shortest decimal form, so 0.1 is 1/10 and
// yields 1 and 2.5 is 5/2 and yields 5.
func integerStep(multiple float64) (float64, bool) {
	if multiple == math.Trunc(multiple) {
		return multiple, true
	}
	q, ok := new(big.Rat).SetString(strconv.FormatFloat(multiple, 'g', -1, 64))
	if !ok || !q.Num().IsInt64() {
		return 0, false
	}
	// a reduced p/q has p as its smallest integer multiple
	return float64(q.Num().Int64()), true
}

// FloatMultiple picks a multiple of multiple within [min, max].
// It reports false when the range holds no multiple.
func (r *Rand) FloatMultiple(min, max, multiple float64) (float64, bool) {
	if multiple <= 0 || math.IsNaN(multiple) {
		return 0, false
	}
	lo := math.Ceil(min / multiple)
	hi := math.Floor(max / multiple)
	if hi < lo {
		return 0, false
	}
	k := math.Floor(r.Float64()*(hi-lo+1)) + lo
	return k * multiple, true
}

// Read fills p with pseudo-random bytes so a Rand can feed APIs that take an
// io.Reader. It never fails.
func (r *Rand) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.Float64() * 256)
	}
	return len(p), nil
}

// NewSeed returns a fresh non-deterministic seed. It is meant for the request
// boundary, when the caller did not ask for a specific seed.
func NewSeed() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("prng: reading random seed: %v", err))
	}
	return binary.BigEndian.Uint32(b[:])
}

// ParseSeed parses a decimal seed. Values outside the uint32 range wrap modulo 2^32.
func ParseSeed(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return uint32(u), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: must be an integer", s)
	}
	return uint32(v), nil
}
