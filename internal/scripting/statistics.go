package scripting

// Statistics summarises an autoplay run. Amounts are float64 because they
// are mirrored into JavaScript numbers; the ledger stays authoritative.
type Statistics struct {
	Bets     int     `json:"bets"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Wagered  float64 `json:"wagered"`
	Paid     float64 `json:"paid"`
	Profit   float64 `json:"profit"`
	Balance  float64 `json:"balance"`
	StartBal float64 `json:"startBal"`

	WinStreak  int `json:"winStreak"`
	LoseStreak int `json:"loseStreak"`
	// Positive while winning, negative while losing.
	CurrentStreak int `json:"currentStreak"`
	HighestStreak int `json:"highestStreak"`
	LowestStreak  int `json:"lowestStreak"`

	HighestBet    float64 `json:"highestBet"`
	HighestProfit float64 `json:"highestProfit"`
	LowestProfit  float64 `json:"lowestProfit"`
	CurrentProfit float64 `json:"currentProfit"`
}

// NewStatistics starts a run at startBalance.
func NewStatistics(startBalance float64) *Statistics {
	return &Statistics{Balance: startBalance, StartBal: startBalance}
}

// Reset keeps the balance and zeroes everything else.
func (s *Statistics) Reset() {
	*s = *NewStatistics(s.Balance)
}

// BetResult is one settled bet (or one whole mines round) as the strategy
// sees it.
type BetResult struct {
	ID          string  `json:"id"`
	Game        string  `json:"game"`
	Amount      float64 `json:"amount"`
	Payout      float64 `json:"payout"`
	PayoutMulti float64 `json:"payoutMultiplier"`
	Win         bool    `json:"win"`
	// Balance is the ledger balance right after the bet.
	Balance float64 `json:"balance"`
	// Result is the game-specific value: dice face, wheel segment, plinko
	// bucket or mines steps cleared.
	Result int `json:"result"`

	// Mines only.
	Active       bool    `json:"active,omitempty"`
	StepsCleared int     `json:"stepsCleared,omitempty"`
	MineChance   float64 `json:"mineChance,omitempty"`
	Revealed     []int   `json:"revealed,omitempty"`
}

// RecordBet folds one result into the totals.
func (s *Statistics) RecordBet(r BetResult) {
	profit := r.Payout - r.Amount

	s.Bets++
	s.Wagered += r.Amount
	s.Paid += r.Payout
	s.CurrentProfit = profit
	s.Profit += profit
	s.Balance += profit

	if r.Win {
		s.Wins++
		s.LoseStreak = 0
		s.WinStreak++
		s.CurrentStreak = s.WinStreak
	} else {
		s.Losses++
		s.WinStreak = 0
		s.LoseStreak++
		s.CurrentStreak = -s.LoseStreak
	}

	s.HighestBet = max(s.HighestBet, r.Amount)
	s.HighestProfit = max(s.HighestProfit, s.Profit)
	s.LowestProfit = min(s.LowestProfit, s.Profit)
	s.HighestStreak = max(s.HighestStreak, s.CurrentStreak)
	s.LowestStreak = min(s.LowestStreak, s.CurrentStreak)
}

// RTP is paid over wagered.
func (s *Statistics) RTP() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return s.Paid / s.Wagered
}

// HitRate is the fraction of bets won.
func (s *Statistics) HitRate() float64 {
	if s.Bets == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Bets)
}

// ChartPoint is cumulative profit after a bet.
type ChartPoint struct {
	BetNumber int     `json:"x"`
	Profit    float64 `json:"y"`
	Win       bool    `json:"win"`
}

// ChartBuffer keeps a bounded profit series. Once it holds twice its
// capacity it drops every other interior point, so long runs keep their
// overall shape.
type ChartBuffer struct {
	Points []ChartPoint `json:"points"`
	Max    int          `json:"-"`
}

// NewChartBuffer returns a buffer of the given capacity (default 50).
func NewChartBuffer(capacity int) *ChartBuffer {
	if capacity <= 0 {
		capacity = 50
	}
	return &ChartBuffer{Points: make([]ChartPoint, 0, 2*capacity), Max: capacity}
}

// Push appends p, thinning the series when it is full.
func (cb *ChartBuffer) Push(p ChartPoint) {
	cb.Points = append(cb.Points, p)
	if len(cb.Points) < 2*cb.Max {
		return
	}
	last := len(cb.Points) - 1
	kept := cb.Points[:1]
	for i := 2; i < last; i += 2 {
		kept = append(kept, cb.Points[i])
	}
	cb.Points = append(kept, cb.Points[last])
}

// Reset empties the buffer.
func (cb *ChartBuffer) Reset() {
	cb.Points = cb.Points[:0]
}
