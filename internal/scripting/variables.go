package scripting

import (
	"strconv"

	"github.com/dop251/goja"
)

// Strategy-visible game identifiers.
const (
	GameDice   = "dice"
	GameWheel  = "wheel"
	GameMines  = "mines"
	GamePlinko = "plinko"
)

// MinesCashout returned from round() ends the mines round.
const MinesCashout = -1

func installConstants(rt *goja.Runtime) {
	_ = rt.Set("GAME_DICE", GameDice)
	_ = rt.Set("GAME_WHEEL", GameWheel)
	_ = rt.Set("GAME_MINES", GameMines)
	_ = rt.Set("GAME_PLINKO", GamePlinko)

	_ = rt.Set("RISK_LOW", "low")
	_ = rt.Set("RISK_MEDIUM", "medium")
	_ = rt.Set("RISK_HIGH", "high")

	_ = rt.Set("MINES_CASHOUT", MinesCashout)
	_ = rt.Set("MINES_CELLS", 25)
}

// Variables is the global state a strategy reads and writes.
type Variables struct {
	Balance     float64 `json:"balance"`
	NextBet     float64 `json:"nextbet"`
	BaseBet     float64 `json:"basebet"`
	PreviousBet float64 `json:"previousbet"`
	Win         bool    `json:"win"`
	Running     bool    `json:"running"`

	Stats *Statistics `json:"-"`

	Game string `json:"game"`

	// Plinko
	Risk string `json:"risk"`
	Rows int    `json:"rows"`

	// Mines: cells revealed in order when round() is absent.
	Fields       []int          `json:"fields"`
	CurrentRound map[string]any `json:"currentRound"`
	CashoutDone  bool           `json:"cashout_done"`

	LastBet map[string]any `json:"lastBet"`

	StopOnWin bool `json:"stoponwin"`
}

// NewVariables returns the defaults a strategy starts from.
func NewVariables(stats *Statistics) *Variables {
	return &Variables{
		Stats:        stats,
		Balance:      stats.Balance,
		Game:         GameDice,
		Risk:         "low",
		Rows:         8,
		Fields:       []int{0, 1, 2},
		CurrentRound: map[string]any{"active": false},
		LastBet: map[string]any{
			"id":               "",
			"game":             "",
			"amount":           0.0,
			"payout":           0.0,
			"payoutMultiplier": 0.0,
			"win":              false,
		},
	}
}

func injectVariables(rt *goja.Runtime, vars *Variables) {
	set := func(name string, v any) { _ = rt.Set(name, v) }

	set("balance", vars.Balance)
	set("nextbet", vars.NextBet)
	set("basebet", vars.BaseBet)
	set("previousbet", vars.PreviousBet)
	set("win", vars.Win)
	set("running", vars.Running)

	s := vars.Stats
	set("bets", s.Bets)
	set("wins", s.Wins)
	set("losses", s.Losses)
	set("winstreak", s.WinStreak)
	set("losestreak", s.LoseStreak)
	set("currentstreak", s.CurrentStreak)
	set("profit", s.Profit)
	set("currentprofit", s.CurrentProfit)
	set("wagered", s.Wagered)
	set("started_bal", s.StartBal)
	set("highest_profit", s.HighestProfit)
	set("lowest_profit", s.LowestProfit)
	set("highest_bet", s.HighestBet)

	set("game", vars.Game)
	set("risk", vars.Risk)
	set("rows", vars.Rows)
	set("fields", vars.Fields)
	set("currentRound", vars.CurrentRound)
	set("cashout_done", vars.CashoutDone)
	set("lastBet", vars.LastBet)
	set("stoponwin", vars.StopOnWin)
}

// syncFromVM reads back only the globals a strategy may change.
func syncFromVM(rt *goja.Runtime, vars *Variables) {
	vars.NextBet = toFloat64(rt.Get("nextbet"))
	vars.BaseBet = toFloat64(rt.Get("basebet"))
	vars.Game = toString(rt.Get("game"))
	vars.Risk = toString(rt.Get("risk"))
	vars.Rows = toInt(rt.Get("rows"))
	vars.Fields = toIntSlice(rt.Get("fields"))
	vars.CashoutDone = toBool(rt.Get("cashout_done"))
	vars.StopOnWin = toBool(rt.Get("stoponwin"))
}

func toFloat64(v goja.Value) float64 {
	if isUndefinedOrNull(v) {
		return 0
	}
	return v.ToFloat()
}

func toInt(v goja.Value) int {
	if isUndefinedOrNull(v) {
		return 0
	}
	return int(v.ToInteger())
}

func toBool(v goja.Value) bool {
	if isUndefinedOrNull(v) {
		return false
	}
	return v.ToBoolean()
}

func toString(v goja.Value) string {
	if isUndefinedOrNull(v) {
		return ""
	}
	return v.String()
}

func toIntSlice(v goja.Value) []int {
	if isUndefinedOrNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	n := toInt(obj.Get("length"))
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, toInt(obj.Get(strconv.Itoa(i))))
	}
	return out
}
