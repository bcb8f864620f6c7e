package games

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
)

func TestListGames(t *testing.T) {
	specs := ListGames()
	require.Len(t, specs, 4)

	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{Dice, Mines, Plinko, Wheel}, ids)
}

func TestLookupUnknownGame(t *testing.T) {
	_, err := Lookup("slots")
	assert.ErrorIs(t, err, domain.ErrUnknownGame)
}

func TestValidateStake(t *testing.T) {
	tests := []struct {
		name    string
		stake   decimal.Decimal
		wantErr bool
	}{
		{"positive", decimal.NewFromInt(10), false},
		{"fractional", decimal.RequireFromString("0.01"), false},
		{"zero", decimal.Zero, true},
		{"negative", decimal.NewFromInt(-5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStake(tt.stake)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidStake)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuiltInOddsTablesValidate(t *testing.T) {
	tables := []OddsTable{DiceOdds, WheelOdds, MinesEarlyOdds, MinesLateOdds, GenesisOdds}
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		for _, rows := range PlinkoRows {
			table, err := PlinkoOdds(risk, rows)
			require.NoError(t, err)
			tables = append(tables, table)
		}
	}
	for _, table := range tables {
		assert.NoError(t, table.Validate(), table.Game)
	}
}

func TestOddsTableValidateRejects(t *testing.T) {
	negative := OddsTable{Game: "x", Selection: SelectionIndex, Entries: []OddsEntry{{OutcomeID: "a", Weight: -1}}}
	assert.Error(t, negative.Validate())

	overOne := OddsTable{Game: "x", Selection: SelectionDirect, Entries: []OddsEntry{
		{OutcomeID: "a", Weight: 0.6},
		{OutcomeID: "b", Weight: 0.5},
	}}
	assert.Error(t, overOne.Validate())

	empty := OddsTable{Game: "x"}
	assert.Error(t, empty.Validate())
}

func TestOutcomeProfit(t *testing.T) {
	out := NewOutcome(Dice, decimal.NewFromInt(10), decimal.RequireFromString("2.5"), true, true)
	assert.True(t, out.Payout.Equal(decimal.NewFromInt(25)))
	assert.True(t, out.Profit().Equal(decimal.NewFromInt(15)))
	assert.NotEmpty(t, out.ID)
}
