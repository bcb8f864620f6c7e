// Command simulate plays many rounds of each game against a seeded source
// and reports hit rate and return-to-player.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/session"
)

type tally struct {
	game    string
	rounds  int
	wins    int
	wagered decimal.Decimal
	paid    decimal.Decimal
}

func (t *tally) add(stake, payout decimal.Decimal, won bool) {
	t.rounds++
	if won {
		t.wins++
	}
	t.wagered = t.wagered.Add(stake)
	t.paid = t.paid.Add(payout)
}

func (t *tally) hitRate() float64 {
	if t.rounds == 0 {
		return 0
	}
	return float64(t.wins) / float64(t.rounds)
}

func (t *tally) rtp() float64 {
	if t.wagered.IsZero() {
		return 0
	}
	return t.paid.Div(t.wagered).InexactFloat64()
}

func main() {
	var (
		rounds     = flag.Int("rounds", 100000, "rounds per game")
		seed       = flag.Uint64("seed", 1, "seed for the deterministic source")
		minesSteps = flag.Int("mines-steps", 3, "cells to reveal before cashing out")
		riskName   = flag.String("risk", "medium", "plinko risk tier (low, medium, high)")
		rows       = flag.Int("rows", 12, "plinko rows (8, 12, 16)")
	)
	flag.Parse()

	risk, err := games.ParseRisk(*riskName)
	if err == nil {
		err = games.ValidateRows(*rows)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *minesSteps < 1 || *minesSteps > games.MinesGridSize {
		fmt.Fprintf(os.Stderr, "mines-steps must be between 1 and %d\n", games.MinesGridSize)
		os.Exit(2)
	}

	src := engine.NewSeededSource(*seed)
	stake := decimal.NewFromInt(1)

	results := []*tally{
		simulateDice(src, stake, *rounds),
		simulateWheel(src, stake, *rounds),
		simulateMines(src, stake, *rounds, *minesSteps),
		simulatePlinko(src, stake, *rounds, risk, *rows),
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tROUNDS\tWINS\tHIT RATE\tWAGERED\tPAID\tRTP")
	for _, t := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%s\t%s\t%.4f\n",
			t.game, t.rounds, t.wins, t.hitRate(), t.wagered.StringFixed(2), t.paid.StringFixed(2), t.rtp())
	}
	_ = w.Flush()
}

func simulateDice(src engine.Source, stake decimal.Decimal, n int) *tally {
	t := &tally{game: games.Dice}
	var streak session.Streak
	for range n {
		out, _, err := games.ResolveDice(stake, streak.Count, src)
		if err != nil {
			continue
		}
		streak.Record(out.Won)
		t.add(stake, out.Payout, out.Won)
	}
	return t
}

func simulateWheel(src engine.Source, stake decimal.Decimal, n int) *tally {
	t := &tally{game: games.Wheel}
	for range n {
		out, _, err := games.ResolveWheel(stake, src)
		if err != nil {
			continue
		}
		t.add(stake, out.Payout, out.Won)
	}
	return t
}

// simulateMines reveals cells in order until a mine or steps safe cells,
// then cashes out.
func simulateMines(src engine.Source, stake decimal.Decimal, n, steps int) *tally {
	t := &tally{game: games.Mines}
	for range n {
		paid := decimal.Zero
		for cell := 0; cell < steps; cell++ {
			reveal, err := games.RevealCell(stake, cell, cell, src)
			if err != nil || reveal.Mine {
				break
			}
			paid = paid.Add(reveal.Credit)
		}
		t.add(stake, paid, paid.GreaterThan(stake))
	}
	return t
}

func simulatePlinko(src engine.Source, stake decimal.Decimal, n int, risk games.Risk, rows int) *tally {
	t := &tally{game: fmt.Sprintf("%s/%s/%d", games.Plinko, risk, rows)}
	for range n {
		out, _, err := games.ResolvePlinko(stake, risk, rows, src)
		if err != nil {
			continue
		}
		t.add(stake, out.Payout, out.Won)
	}
	return t
}
