package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesStayInRange(t *testing.T) {
	sources := map[string]Source{
		"crypto": CryptoSource{},
		"seeded": NewSeededSource(99),
		"hmac":   NewHMACSource("server", "client", 0),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5000; i++ {
				d := src.Draw()
				require.GreaterOrEqual(t, d, 0.0)
				require.Less(t, d, 1.0)
			}
		})
	}
}

func TestSeededSourceReproducible(t *testing.T) {
	a := NewSeededSource(1234)
	b := NewSeededSource(1234)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Draw(), b.Draw())
	}
}

func TestHMACSourceMatchesFloats(t *testing.T) {
	src := NewHMACSource("server", "client", 5)
	want := Floats("server", "client", 5, 0, floatsPerNonce)
	for i := 0; i < floatsPerNonce; i++ {
		assert.Equal(t, want[i], src.Draw())
	}

	// The next draw rolls over to the following nonce.
	assert.Equal(t, uint64(6), src.Nonce())
	next := Floats("server", "client", 6, 0, 1)
	assert.Equal(t, next[0], src.Draw())
}

func TestSequenceWrapsAndCounts(t *testing.T) {
	seq := NewSequence(0.1, 0.2)
	assert.Equal(t, 0.1, seq.Draw())
	assert.Equal(t, 0.2, seq.Draw())
	assert.Equal(t, 0.1, seq.Draw())
	assert.Equal(t, 3, seq.Consumed())
}

func TestSequencePanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() { NewSequence() })
}
