// FILE: wallet_test.go

package main

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWalletLedgerSplitsPair(t *testing.T) {
	w := NewWalletLedger("BTC-USDT", 0.001, nil, quietLogger())
	assert.Equal(t, "BTC", w.BaseAsset())
	assert.Equal(t, "USDT", w.QuoteAsset())
}

func TestWalletLedgerCheckOrderSize(t *testing.T) {
	w := NewWalletLedger("BTC-USDT", 0.001, nil, quietLogger())
	w.SetBalances(0.05, 1000)

	// Buy needs quote: 0.01 × 50000 × 1.001 = 500.5 ≤ 1000.
	assert.True(t, w.CheckOrderSize(SideBuy, 0.01, 50000))
	// 0.02 × 50000 × 1.001 = 1001 > 1000.
	assert.False(t, w.CheckOrderSize(SideBuy, 0.02, 50000))

	// Sell needs base plus commission headroom.
	assert.True(t, w.CheckOrderSize(SideSell, 0.04, 50000))
	assert.False(t, w.CheckOrderSize(SideSell, 0.05, 50000))
}

func TestWalletLedgerBuyCheckIgnoresBase(t *testing.T) {
	w := NewWalletLedger("BTC-USDT", 0.001, nil, quietLogger())
	w.SetBalances(0, 100)
	assert.True(t, w.CheckOrderSize(SideBuy, 0.001, 50000))
	assert.False(t, w.CheckOrderSize(SideSell, 0.001, 50000))
}

func TestWalletLedgerApplyFillReplacesBalances(t *testing.T) {
	w := NewWalletLedger("BTC-USDT", 0.001, nil, quietLogger())
	w.SetBalances(1, 1000)

	fill := Fill{
		OrderID:     "42",
		Side:        SideSell,
		PriceActual: 50000,
		SizeActual:  0.01,
		Fee:         0.5,
		FillTimeMs:  1714560000000,
		OrderType:   "Maker",
		LocalTS:     "2024-05-01 12:00:00",
	}
	// Balances come from the exchange, not from local arithmetic.
	w.ApplyFill(fill, 0.99, 1499.5)

	assert.InDelta(t, 0.99, w.BaseBalance(), 1e-12)
	assert.InDelta(t, 1499.5, w.QuoteBalance(), 1e-12)
	assert.True(t, w.HasExecuted("42"))
	assert.Equal(t, 1, w.ExecutedCount())
}

func TestWalletLedgerDuplicateFillIgnored(t *testing.T) {
	w := NewWalletLedger("BTC-USDT", 0.001, nil, quietLogger())
	w.SetBalances(1, 1000)

	fill := Fill{OrderID: "42", Side: SideBuy, PriceActual: 100, SizeActual: 0.01}
	w.ApplyFill(fill, 1.01, 999)
	// Replay with different balances must not touch the ledger.
	w.ApplyFill(fill, 5, 5)

	assert.InDelta(t, 1.01, w.BaseBalance(), 1e-12)
	assert.InDelta(t, 999, w.QuoteBalance(), 1e-12)
	assert.Equal(t, 1, w.ExecutedCount())
}

func TestWalletLedgerForwardsToOrderLog(t *testing.T) {
	dir := t.TempDir()
	orderLog, err := NewOrderLog(dir)
	assert.NoError(t, err)
	defer orderLog.Close()

	w := NewWalletLedger("BTC-USDT", 0.001, orderLog, quietLogger())
	w.SetBalances(1, 1000)
	w.ApplyFill(Fill{OrderID: "7", Side: SideSell, PriceActual: 100, SizeActual: 0.01}, 0.99, 1001)

	assert.Equal(t, 1, w.ExecutedCount())
}
