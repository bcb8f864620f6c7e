package games

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

// Risk selects a plinko payout table.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// PlinkoCenterBias is the chance a ball is steered to the two centre buckets.
const PlinkoCenterBias = 0.9

// PlinkoRows lists the supported board sizes.
var PlinkoRows = []int{8, 12, 16}

// ParseRisk normalises a risk tier. "med" is accepted for medium.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium", "med":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidRisk, s)
	}
}

// ValidateRows checks rows is one of PlinkoRows.
func ValidateRows(rows int) error {
	for _, r := range PlinkoRows {
		if r == rows {
			return nil
		}
	}
	return fmt.Errorf("%w: plinko rows must be one of 8, 12, 16; got %d", domain.ErrInvalidRows, rows)
}

// Direction is one left/right bounce on the way down.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// PlinkoDrop is the pre-selected result of one ball.
type PlinkoDrop struct {
	Risk       Risk            `json:"risk"`
	Rows       int             `json:"rows"`
	Bucket     int             `json:"bucket"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Path       []Direction     `json:"path"`
}

func plinkoCenterBuckets(n int) []int {
	lo := n / 2
	hi := lo + 1
	if hi > n-1 {
		hi = n - 1
	}
	return []int{lo, hi}
}

// PickBucket chooses the landing bucket out of n. The first draw picks the
// branch; the second picks a centre bucket or a uniform bucket.
func PickBucket(n int, src engine.Source) int {
	if src.Draw() < PlinkoCenterBias {
		centre := plinkoCenterBuckets(n)
		return centre[floorIndex(src.Draw(), len(centre))]
	}
	return floorIndex(src.Draw(), n)
}

// PlinkoPath spreads exactly bucket right bounces evenly across rows.
func PlinkoPath(rows, bucket int) []Direction {
	path := make([]Direction, rows)
	for i := range path {
		if (i+1)*bucket/rows > i*bucket/rows {
			path[i] = Right
		} else {
			path[i] = Left
		}
	}
	return path
}

// DropPlinko pre-selects the bucket for one ball.
func DropPlinko(risk Risk, rows int, src engine.Source) (PlinkoDrop, error) {
	if err := ValidateRows(rows); err != nil {
		return PlinkoDrop{}, err
	}
	table, err := PlinkoOdds(risk, rows)
	if err != nil {
		return PlinkoDrop{}, fmt.Errorf("%w: %v", domain.ErrInvalidRisk, err)
	}

	bucket := PickBucket(len(table.Entries), src)
	return PlinkoDrop{
		Risk:       risk,
		Rows:       rows,
		Bucket:     bucket,
		Multiplier: table.Entries[bucket].Multiplier,
		Path:       PlinkoPath(rows, bucket),
	}, nil
}

// ResolvePlinko drops a ball and builds the Outcome for stake. A ball
// counts as a win only when it returns more than the stake.
func ResolvePlinko(stake decimal.Decimal, risk Risk, rows int, src engine.Source) (Outcome, PlinkoDrop, error) {
	if err := ValidateStake(stake); err != nil {
		return Outcome{}, PlinkoDrop{}, err
	}
	drop, err := DropPlinko(risk, rows, src)
	if err != nil {
		return Outcome{}, PlinkoDrop{}, err
	}

	won := drop.Multiplier.GreaterThan(decimal.NewFromInt(1))
	out := NewOutcome(Plinko, stake, drop.Multiplier, won, true)
	out.Details["risk"] = string(drop.Risk)
	out.Details["rows"] = drop.Rows
	out.Details["bucket"] = drop.Bucket
	out.Details["path"] = drop.Path
	return out, drop, nil
}
