package games

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

func TestSpinWheel(t *testing.T) {
	tests := []struct {
		name        string
		draws       []float64
		wantSegment int
		wantMulti   int64
		wantDraws   int
	}{
		{name: "jackpot branch", draws: []float64{0.001}, wantSegment: JackpotSegment, wantMulti: 10, wantDraws: 1},
		{name: "branch threshold is jackpot", draws: []float64{WheelJackpotBranch}, wantSegment: JackpotSegment, wantMulti: 10, wantDraws: 1},
		{name: "first ordinary segment", draws: []float64{0.5, 0.0}, wantSegment: 1, wantMulti: 0, wantDraws: 2},
		{name: "boost segment", draws: []float64{0.5, 0.99}, wantSegment: BoostSegment, wantMulti: 2, wantDraws: 2},
		{name: "middle segment", draws: []float64{0.9, 0.5}, wantSegment: 10, wantMulti: 0, wantDraws: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := engine.NewSequence(tt.draws...)
			spin := SpinWheel(seq)
			assert.Equal(t, tt.wantSegment, spin.Segment)
			assert.True(t, spin.Multiplier.Equal(decimal.NewFromInt(tt.wantMulti)))
			assert.Equal(t, tt.wantDraws, seq.Consumed())
		})
	}
}

func TestLandingRotation(t *testing.T) {
	assert.Equal(t, float64(15*360+351), LandingRotation(0))
	assert.Equal(t, float64(15*360+9), LandingRotation(19))
}

func TestWheelMultiplierRange(t *testing.T) {
	_, err := WheelMultiplier(WheelSegments)
	assert.Error(t, err)

	m, err := WheelMultiplier(5)
	require.NoError(t, err)
	assert.True(t, m.IsZero())
}

func TestResolveWheelOutcome(t *testing.T) {
	out, spin, err := ResolveWheel(decimal.NewFromInt(10), engine.NewSequence(0.5, 0.99))
	require.NoError(t, err)
	assert.Equal(t, BoostSegment, spin.Segment)
	assert.True(t, out.Won)
	assert.True(t, out.Payout.Equal(decimal.NewFromInt(20)))

	out, _, err = ResolveWheel(decimal.NewFromInt(10), engine.NewSequence(0.5, 0.3))
	require.NoError(t, err)
	assert.False(t, out.Won)
	assert.True(t, out.Payout.IsZero())
}

func TestWheelJackpotRarity(t *testing.T) {
	const spins = 100_000
	src := engine.NewSeededSource(20240601)

	counts := make([]int, WheelSegments)
	for i := 0; i < spins; i++ {
		counts[SpinWheel(src).Segment]++
	}

	// Standard error at p=0.003 over 100k spins is ~0.00017.
	jackpotRate := float64(counts[JackpotSegment]) / spins
	assert.InDelta(t, WheelJackpotBranch, jackpotRate, 0.001)

	// The remaining 19 segments share the rest uniformly.
	expected := (1 - WheelJackpotBranch) / float64(WheelSegments-1)
	for seg := 1; seg < WheelSegments; seg++ {
		assert.InDelta(t, expected, float64(counts[seg])/spins, 0.005, "segment %d", seg)
	}
}

func TestWheelOddsProbability(t *testing.T) {
	assert.InDelta(t, WheelJackpotBranch, WheelOdds.Probability("segment-0"), 1e-12)
	// Jackpot 10x at 0.3% plus boost 2x at ~5.2%.
	assert.InDelta(t, 0.03*1+2*(0.997/19), WheelOdds.ExpectedMultiplier(), 1e-9)
}
