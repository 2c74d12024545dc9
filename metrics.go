// FILE: metrics.go
// Package main – Prometheus metrics.
//
// All metrics are registered at init and exposed by the /metrics endpoint
// main starts. Counters track loop activity and trading events; gauges mirror
// the bot's current view of the market and the wallet.

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_cycles_total",
		Help: "Completed trading-loop cycles.",
	})
	mtxDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_decisions_total",
		Help: "Decision outcomes per cycle.",
	}, []string{"action"}) // hold | place | derisk | recover
	mtxOrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_placed_total",
		Help: "Limit orders placed.",
	}, []string{"side"})
	mtxOrdersBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_blocked_total",
		Help: "Order placements skipped for insufficient balance.",
	}, []string{"side"})
	mtxFills = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_fills_total",
		Help: "Orders observed filled during reconciliation.",
	}, []string{"side"})
	mtxPriceRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_price_rejections_total",
		Help: "Fetched prices rejected by the sanity check.",
	})
	mtxExtremes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_extreme_momentum_total",
		Help: "Cycles where momentum fell outside the adaptive band.",
	})

	mtxMomentum = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_momentum_pct_per_min",
		Help: "Most recent momentum value.",
	})
	mtxLastPrice = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_last_price",
		Help: "Current price anchor for order placement.",
	})
	mtxBaseBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_base_balance",
		Help: "Tracked base-asset balance.",
	})
	mtxQuoteBalance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bot_quote_balance",
		Help: "Tracked quote-asset balance.",
	})
)

func init() {
	prometheus.MustRegister(
		mtxCycles,
		mtxDecisions,
		mtxOrdersPlaced,
		mtxOrdersBlocked,
		mtxFills,
		mtxPriceRejections,
		mtxExtremes,
		mtxMomentum,
		mtxLastPrice,
		mtxBaseBalance,
		mtxQuoteBalance,
	)
}
