package engine

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source produces uniform draws in [0,1). Every random decision in the
// engine goes through a Source so tests can substitute a fixed sequence.
type Source interface {
	Draw() float64
}

// CryptoSource draws 53 bits from crypto/rand. It is the default source.
type CryptoSource struct{}

// Draw implements Source.
func (CryptoSource) Draw() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// SeededSource is a reproducible PCG stream, used for simulation runs.
type SeededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a PCG-backed source for the given seed.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

// Draw implements Source.
func (s *SeededSource) Draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// HMACSource replays the HMAC-SHA256 float stream for a server/client seed
// pair. The nonce advances every floatsPerNonce draws so a long session
// never reuses a round.
type HMACSource struct {
	mu         sync.Mutex
	serverSeed string
	clientSeed string
	nonce      uint64
	drawn      int
	gen        *ByteGenerator
}

const floatsPerNonce = 64

// NewHMACSource starts a replayable stream at the given nonce.
func NewHMACSource(serverSeed, clientSeed string, nonce uint64) *HMACSource {
	return &HMACSource{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
		gen:        NewByteGenerator(serverSeed, clientSeed, nonce, 0),
	}
}

// Draw implements Source.
func (s *HMACSource) Draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drawn == floatsPerNonce {
		s.nonce++
		s.drawn = 0
		s.gen = NewByteGenerator(s.serverSeed, s.clientSeed, s.nonce, 0)
	}
	s.drawn++
	return s.gen.NextFloat()
}

// Nonce reports the nonce the next draw will come from.
func (s *HMACSource) Nonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn == floatsPerNonce {
		return s.nonce + 1
	}
	return s.nonce
}

// Sequence replays a fixed list of draws, wrapping around at the end.
// Intended for tests.
type Sequence struct {
	mu    sync.Mutex
	draws []float64
	pos   int
}

// NewSequence returns a Sequence over draws. It panics on an empty list.
func NewSequence(draws ...float64) *Sequence {
	if len(draws) == 0 {
		panic("engine: empty draw sequence")
	}
	return &Sequence{draws: append([]float64(nil), draws...)}
}

// Draw implements Source.
func (s *Sequence) Draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draws[s.pos%len(s.draws)]
	s.pos++
	return d
}

// Consumed reports how many draws have been taken.
func (s *Sequence) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
