// FILE: wallet.go
// Package main – Local wallet ledger.
//
// WalletLedger mirrors the exchange's trading-account balances and answers
// "can we afford this order" before the bot sends it. Balances are replaced
// wholesale after each fill using the numbers the exchange reports — the
// ledger never does incremental arithmetic on its own cached values, so a
// missed cycle cannot make it drift from the authoritative account.
//
// Every applied fill is also recorded as an immutable ExecutedOrder and
// forwarded to the order CSV sink.

package main

import (
	"math"

	"github.com/sirupsen/logrus"
)

// fillTimeUnknown sorts fills with no exchange timestamp after all dated
// fills.
const fillTimeUnknown = int64(math.MaxInt64)

// ExecutedOrder is the immutable record of one completed fill.
type ExecutedOrder struct {
	LocalTS       string
	Side          OrderSide
	PriceExpected float64
	PriceActual   float64
	SizeExpected  float64
	SizeActual    float64
	Asset         string
	Fee           float64
	OrderID       string
	BaseBalance   float64
	QuoteBalance  float64
	FeeRate       float64
	FillTimeMs    int64
	OrderType     string
}

// Fill is what the reconciler hands the ledger once an order completes.
type Fill struct {
	OrderID       string
	Side          OrderSide
	PriceExpected float64
	PriceActual   float64
	SizeExpected  float64
	SizeActual    float64
	Fee           float64
	FeeRate       float64
	FillTimeMs    int64
	OrderType     string
	LocalTS       string
}

// WalletLedger tracks base/quote balances for one asset pair.
type WalletLedger struct {
	asset          string
	base           string
	quote          string
	baseBalance    float64
	quoteBalance   float64
	commissionRate float64
	executed       map[string]ExecutedOrder
	orderLog       *OrderLog
	log            *logrus.Logger
}

// NewWalletLedger builds a ledger for asset (e.g. "BTC-USDT"). commissionRate
// is the fee rate solvency checks reserve headroom for; the caller picks the
// rate matching the order type it actually sends. orderLog may be nil.
func NewWalletLedger(asset string, commissionRate float64, orderLog *OrderLog, log *logrus.Logger) *WalletLedger {
	base, quote := splitAssetPair(asset)
	return &WalletLedger{
		asset:          asset,
		base:           base,
		quote:          quote,
		commissionRate: commissionRate,
		executed:       make(map[string]ExecutedOrder),
		orderLog:       orderLog,
		log:            log,
	}
}

// SetBalances replaces both balances wholesale.
func (w *WalletLedger) SetBalances(base, quote float64) {
	w.baseBalance = base
	w.quoteBalance = quote
}

func (w *WalletLedger) BaseBalance() float64  { return w.baseBalance }
func (w *WalletLedger) QuoteBalance() float64 { return w.quoteBalance }

// CheckOrderSize reports whether the tracked balances can cover the order
// plus commission. Buys need quote currency, sells need base currency.
func (w *WalletLedger) CheckOrderSize(side OrderSide, size, price float64) bool {
	switch side {
	case SideBuy:
		return size*price*(1+w.commissionRate) <= w.quoteBalance
	case SideSell:
		return size*(1+w.commissionRate) <= w.baseBalance
	}
	return false
}

// ApplyFill records the fill, replaces both balances with the values the
// exchange reported, and forwards the record to the order sink. Duplicate
// order ids are ignored so a re-reconciled fill cannot be double-counted.
func (w *WalletLedger) ApplyFill(fill Fill, baseAfter, quoteAfter float64) {
	if _, seen := w.executed[fill.OrderID]; seen {
		w.log.WithField("order_id", fill.OrderID).Warn("[WALLET] duplicate fill ignored")
		return
	}

	w.baseBalance = baseAfter
	w.quoteBalance = quoteAfter

	rec := ExecutedOrder{
		LocalTS:       fill.LocalTS,
		Side:          fill.Side,
		PriceExpected: fill.PriceExpected,
		PriceActual:   fill.PriceActual,
		SizeExpected:  fill.SizeExpected,
		SizeActual:    fill.SizeActual,
		Asset:         w.asset,
		Fee:           fill.Fee,
		OrderID:       fill.OrderID,
		BaseBalance:   baseAfter,
		QuoteBalance:  quoteAfter,
		FeeRate:       fill.FeeRate,
		FillTimeMs:    fill.FillTimeMs,
		OrderType:     fill.OrderType,
	}
	w.executed[fill.OrderID] = rec

	if w.orderLog != nil {
		w.orderLog.LogOrder(rec)
	}

	w.log.WithFields(logrus.Fields{
		"side":     fill.Side,
		"price":    fill.PriceActual,
		"size":     fill.SizeActual,
		"fee":      fill.Fee,
		"order_id": fill.OrderID,
		"base":     baseAfter,
		"quote":    quoteAfter,
	}).Info("[WALLET] fill applied")
}

// HasExecuted reports whether an order id has already been applied.
func (w *WalletLedger) HasExecuted(orderID string) bool {
	_, ok := w.executed[orderID]
	return ok
}

// ExecutedCount reports how many fills the ledger has recorded.
func (w *WalletLedger) ExecutedCount() int { return len(w.executed) }

func (w *WalletLedger) BaseAsset() string  { return w.base }
func (w *WalletLedger) QuoteAsset() string { return w.quote }
