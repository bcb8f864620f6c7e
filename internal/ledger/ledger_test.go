package ledger

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestDebit(t *testing.T) {
	l := New(WithStartingBalance(d("100")))

	snap, err := l.Debit(d("10"))
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(d("90")))
	assert.True(t, snap.Wagered.Equal(d("10")))
	assert.Equal(t, int64(100), snap.XP)
}

func TestDebitRejections(t *testing.T) {
	l := New(WithStartingBalance(d("5")))

	_, err := l.Debit(decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidStake)
	_, err = l.Debit(d("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidStake)
	_, err = l.Debit(d("5.01"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	snap := l.Snapshot()
	assert.True(t, snap.Balance.Equal(d("5")))
	assert.True(t, snap.Wagered.IsZero())
	assert.Zero(t, snap.XP)
}

func TestDebitExactBalance(t *testing.T) {
	l := New(WithStartingBalance(d("7.5")))
	snap, err := l.Debit(d("7.5"))
	require.NoError(t, err)
	assert.True(t, snap.Balance.IsZero())
}

func TestCredit(t *testing.T) {
	l := New()

	snap, err := l.Credit(d("25"), true)
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(d("25")))
	assert.Equal(t, int64(1), snap.Wins)
	assert.True(t, snap.LastWin.Equal(d("25")))
	assert.Equal(t, int64(250), snap.XP)

	snap, err = l.Credit(d("2.5"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Wins)
	assert.True(t, snap.LastWin.Equal(d("25")))
	assert.Equal(t, int64(275), snap.XP)

	snap, err = l.Credit(decimal.Zero, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Wins, "zero credit is never a win")

	_, err = l.Credit(d("-1"), false)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestDepositBonusOnce(t *testing.T) {
	l := New()

	receipt, snap, err := l.Deposit(d("10"))
	require.NoError(t, err)
	assert.True(t, receipt.Granted)
	assert.True(t, receipt.Bonus.Equal(d("3")))
	assert.True(t, snap.Balance.Equal(d("13")))
	assert.True(t, snap.HasDeposited)
	assert.True(t, snap.BonusClaimed)
	assert.Equal(t, int64(100), snap.XP, "bonus earns no xp")

	receipt, snap, err = l.Deposit(d("10"))
	require.NoError(t, err)
	assert.False(t, receipt.Granted)
	assert.True(t, snap.Balance.Equal(d("23")))
}

func TestDepositBelowBonusFloor(t *testing.T) {
	l := New()

	receipt, _, err := l.Deposit(d("5"))
	require.NoError(t, err)
	assert.False(t, receipt.Granted)

	// The bonus is reserved for the first deposit only.
	receipt, snap, err := l.Deposit(d("50"))
	require.NoError(t, err)
	assert.False(t, receipt.Granted)
	assert.True(t, snap.Balance.Equal(d("55")))
	assert.False(t, snap.BonusClaimed)

	_, _, err = l.Deposit(decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestClaimSignupReward(t *testing.T) {
	l := New()

	snap, err := l.ClaimSignupReward(d("5"))
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(d("5")))
	assert.Equal(t, int64(500), snap.XP)
	assert.True(t, snap.SignupClaimed)

	snap, err = l.ClaimSignupReward(d("1000"))
	assert.ErrorIs(t, err, domain.ErrDuplicateClaim)
	assert.True(t, snap.Balance.Equal(d("5")))
	assert.Equal(t, int64(500), snap.XP)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, int64(1), Level(0))
	assert.Equal(t, int64(1), Level(999))
	assert.Equal(t, int64(2), Level(1000))
	assert.Equal(t, int64(6), Level(5500))
}

func TestObserversReceiveEveryMutation(t *testing.T) {
	l := New()
	var balances []string
	l.Subscribe(func(s Snapshot) { balances = append(balances, s.Balance.String()) })

	_, _, err := l.Deposit(d("10"))
	require.NoError(t, err)
	_, err = l.Debit(d("4"))
	require.NoError(t, err)
	_, err = l.Credit(d("10"), true)
	require.NoError(t, err)
	_, err = l.Debit(d("100"))
	require.Error(t, err)

	assert.Equal(t, []string{"13", "9", "19"}, balances)
}

func TestBalanceNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	l := New(WithStartingBalance(d("50")))

	for i := 0; i < 10_000; i++ {
		amount := decimal.NewFromFloat(rng.Float64() * 40).Round(2)
		if rng.IntN(2) == 0 {
			_, _ = l.Debit(amount)
		} else {
			_, _ = l.Credit(amount, rng.IntN(2) == 0)
		}
		require.False(t, l.Balance().IsNegative(), "iteration %d", i)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	l := New(WithStartingBalance(d("100")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Debit(d("3")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 33, accepted)
	assert.True(t, l.Balance().Equal(d("1")))
}

func TestPackages(t *testing.T) {
	pkgs := Packages()
	require.Len(t, pkgs, 3)
	assert.Equal(t, "micro-bridge", pkgs[0].ID)

	p, err := LookupPackage("galaxy-reserve")
	require.NoError(t, err)
	assert.True(t, p.Credits.Equal(d("250")))

	_, err = LookupPackage("nebula")
	assert.ErrorIs(t, err, domain.ErrUnknownPackage)
}
