// FILE: gateway.go
// Package main – Exchange gateway abstraction shared by all backends.
//
// This file defines the minimal interface the trading loop needs to talk to
// an exchange (paper or real):
//   • ExchangeGateway interface: price lookup, limit order placement and
//     cancellation, order/fill status, account balances
//   • Common types: OrderSide, AccountKind, OrderStatusInfo, FillDetail
//
// Two concrete implementations live in separate files:
//   • gateway_paper.go – in-memory paper exchange (no external calls)
//   • gateway_okx.go   – signed REST client for OKX spot
//
// Gateway methods return typed results plus an error; they never panic
// across this boundary. The loop treats any gateway error uniformly as
// "no data this cycle".

package main

import "context"

// OrderSide is the side of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// AccountKind selects which exchange account a balance query targets.
type AccountKind string

const (
	AccountTrading AccountKind = "trading"
	AccountFunding AccountKind = "funding"
)

// OrderStatusInfo is the normalized answer to "what happened to order X".
// State carries the exchange's own vocabulary ("live", "filled",
// "partially_filled", "canceled", "failed"); AvgPrice/FilledSize/Fee are
// only meaningful once something filled.
type OrderStatusInfo struct {
	State      string
	AvgPrice   float64
	FilledSize float64
	Fee        float64
}

// FillDetail is the execution metadata from the fills endpoint.
// FillTimeMs is epoch milliseconds.
type FillDetail struct {
	OrderType  string // "Maker", "Taker" or "unknown"
	FeeRate    float64
	FillTimeMs int64
}

// OpenOrder identifies one resting order on the exchange.
type OpenOrder struct {
	OrderID string
	Symbol  string
}

// ExchangeGateway is the minimal surface the bot needs to operate.
type ExchangeGateway interface {
	Name() string
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetMinimumSize(ctx context.Context, symbol string) (float64, error)
	PlaceOrder(ctx context.Context, symbol string, side OrderSide, price, size float64) (string, error)
	CheckOrderStatus(ctx context.Context, symbol, orderID string) (OrderStatusInfo, error)
	GetOrderFillDetails(ctx context.Context, orderID string) (*FillDetail, error)
	CancelOrder(ctx context.Context, orderID, symbol string) error
	GetAccountBalance(ctx context.Context, asset string, kind AccountKind) (float64, error)
	GetOpenOrders(ctx context.Context) ([]OpenOrder, error)
	CloseAllOrders(ctx context.Context) error
}

// splitAssetPair splits a pair like "BTC-USDT" into ("BTC", "USDT").
func splitAssetPair(pair string) (base, quote string) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '-' {
			return pair[:i], pair[i+1:]
		}
	}
	return pair, ""
}
