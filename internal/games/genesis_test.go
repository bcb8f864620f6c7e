package games

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

func TestSpinGenesis(t *testing.T) {
	tests := []struct {
		draw    float64
		segment int
		prize   int64
	}{
		{0.00005, 0, 1000},
		{0.0001, 1, 5},
		{0.3, 2, 0},
		{0.5, 3, 0},
		{0.7, 4, 2},
		{0.99, 5, 1},
	}
	for _, tt := range tests {
		spin := SpinGenesis(engine.NewSequence(tt.draw))
		assert.Equal(t, tt.segment, spin.Segment, "draw %v", tt.draw)
		assert.True(t, spin.Prize.Equal(decimal.NewFromInt(tt.prize)), "draw %v", tt.draw)
	}
}
