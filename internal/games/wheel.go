package games

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

const (
	WheelSegments = 20
	// WheelJackpotBranch: a first draw above this value excludes the jackpot.
	WheelJackpotBranch = 0.003
	JackpotSegment     = 0
	BoostSegment       = WheelSegments - 1

	wheelSegmentDegrees = 360 / WheelSegments
	wheelFullTurns      = 15
)

// wheelMultipliers: segment 0 jackpot, 1-18 empty, 19 boost.
var wheelMultipliers = func() []decimal.Decimal {
	m := make([]decimal.Decimal, WheelSegments)
	for i := range m {
		m[i] = decimal.Zero
	}
	m[JackpotSegment] = decimal.NewFromInt(10)
	m[BoostSegment] = decimal.NewFromInt(2)
	return m
}()

// WheelOdds weights each segment by its selection probability.
var WheelOdds = mustValidate(func() OddsTable {
	entries := make([]OddsEntry, WheelSegments)
	other := (1 - WheelJackpotBranch) / float64(WheelSegments-1)
	for i := range entries {
		w := other
		if i == JackpotSegment {
			w = WheelJackpotBranch
		}
		entries[i] = OddsEntry{
			OutcomeID:  fmt.Sprintf("segment-%d", i),
			Weight:     w,
			Multiplier: wheelMultipliers[i],
		}
	}
	return OddsTable{Game: Wheel, Selection: SelectionIndex, Entries: entries}
}())

// WheelSpin is the raw result of one spin.
type WheelSpin struct {
	Segment    int             `json:"segment"`
	Multiplier decimal.Decimal `json:"multiplier"`
	// Rotation in degrees that lands the pointer on Segment.
	Rotation float64 `json:"rotation"`
}

// SpinWheel selects a segment. The first draw chooses the branch; a
// non-jackpot branch takes a second draw uniform over segments 1-19.
func SpinWheel(src engine.Source) WheelSpin {
	segment := JackpotSegment
	if src.Draw() > WheelJackpotBranch {
		segment = 1 + floorIndex(src.Draw(), WheelSegments-1)
	}
	return WheelSpin{
		Segment:    segment,
		Multiplier: wheelMultipliers[segment],
		Rotation:   LandingRotation(segment),
	}
}

// LandingRotation is the rotation that centres segment under the pointer.
func LandingRotation(segment int) float64 {
	return float64(wheelFullTurns*360 + (360 - (segment*wheelSegmentDegrees + wheelSegmentDegrees/2)))
}

// WheelMultiplier returns the payout multiplier of a segment.
func WheelMultiplier(segment int) (decimal.Decimal, error) {
	if segment < 0 || segment >= WheelSegments {
		return decimal.Zero, fmt.Errorf("wheel segment %d out of range", segment)
	}
	return wheelMultipliers[segment], nil
}

// ResolveWheel spins and builds the Outcome for stake.
func ResolveWheel(stake decimal.Decimal, src engine.Source) (Outcome, WheelSpin, error) {
	if err := ValidateStake(stake); err != nil {
		return Outcome{}, WheelSpin{}, err
	}

	spin := SpinWheel(src)
	won := spin.Multiplier.IsPositive()
	out := NewOutcome(Wheel, stake, spin.Multiplier, won, true)
	out.Details["segment"] = spin.Segment
	out.Details["rotation"] = spin.Rotation
	out.Details["jackpot"] = spin.Segment == JackpotSegment
	return out, spin, nil
}
