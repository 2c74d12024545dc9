// FILE: gateway_paper.go
// Package main – In-memory paper exchange.
//
// PaperGateway implements ExchangeGateway without touching the network. It
// holds one price, two balances and a book of resting limit orders; SetPrice
// advances the market and fills any order the new price crosses (sells fill
// when price rises to the limit, buys when it falls to it). Fills execute at
// the limit price and charge the configured fee in quote currency.
//
// Tests and the "paper" run mode drive it; nothing here is safe for real
// money.

package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type paperOrder struct {
	id         string
	symbol     string
	side       OrderSide
	price      float64
	size       float64
	state      string // "live", "filled", "canceled"
	fee        float64
	fillTimeMs int64
}

// PaperGateway is a thread-safe simulated spot exchange for one asset pair.
type PaperGateway struct {
	mu sync.Mutex

	asset   string
	base    string
	quote   string
	price   float64
	minSize float64
	feeRate float64

	baseBalance  float64
	quoteBalance float64

	orders map[string]*paperOrder
	now    func() time.Time
	log    *logrus.Logger
}

func NewPaperGateway(asset string, startPrice, baseBalance, quoteBalance, minSize, feeRate float64, log *logrus.Logger) *PaperGateway {
	base, quote := splitAssetPair(asset)
	if minSize <= 0 {
		minSize = 0.00001
	}
	return &PaperGateway{
		asset:        asset,
		base:         base,
		quote:        quote,
		price:        startPrice,
		minSize:      minSize,
		feeRate:      feeRate,
		baseBalance:  baseBalance,
		quoteBalance: quoteBalance,
		orders:       make(map[string]*paperOrder),
		now:          time.Now,
		log:          log,
	}
}

func (g *PaperGateway) Name() string { return "paper" }

// SetPrice moves the market and fills every resting order the move crosses.
func (g *PaperGateway) SetPrice(price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.price = price
	for _, o := range g.orders {
		if o.state != "live" {
			continue
		}
		crossed := (o.side == SideSell && price >= o.price) ||
			(o.side == SideBuy && price <= o.price)
		if !crossed {
			continue
		}
		g.fillLocked(o)
	}
}

func (g *PaperGateway) fillLocked(o *paperOrder) {
	notional := o.price * o.size
	o.fee = notional * g.feeRate
	o.state = "filled"
	o.fillTimeMs = g.now().UnixMilli()

	if o.side == SideBuy {
		g.baseBalance += o.size
		g.quoteBalance -= notional + o.fee
	} else {
		g.baseBalance -= o.size
		g.quoteBalance += notional - o.fee
	}
	g.log.WithFields(logrus.Fields{
		"order_id": o.id,
		"side":     o.side,
		"price":    o.price,
		"size":     o.size,
	}).Debug("[PAPER] order filled")
}

func (g *PaperGateway) GetPrice(ctx context.Context, symbol string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.price <= 0 {
		return 0, errors.New("paper: no price set")
	}
	return g.price, nil
}

func (g *PaperGateway) GetMinimumSize(ctx context.Context, symbol string) (float64, error) {
	return g.minSize, nil
}

func (g *PaperGateway) PlaceOrder(ctx context.Context, symbol string, side OrderSide, price, size float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if size < g.minSize {
		return "", errors.Errorf("paper: size %g below minimum %g", size, g.minSize)
	}
	if side == SideBuy && size*price*(1+g.feeRate) > g.quoteBalance {
		return "", errors.New("paper: insufficient quote balance")
	}
	if side == SideSell && size > g.baseBalance {
		return "", errors.New("paper: insufficient base balance")
	}

	o := &paperOrder{
		id:     uuid.NewString(),
		symbol: symbol,
		side:   side,
		price:  price,
		size:   size,
		state:  "live",
	}
	g.orders[o.id] = o

	// A limit already at or through the market fills immediately.
	if (side == SideSell && g.price >= price) || (side == SideBuy && g.price <= price) {
		g.fillLocked(o)
	}
	return o.id, nil
}

func (g *PaperGateway) CheckOrderStatus(ctx context.Context, symbol, orderID string) (OrderStatusInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return OrderStatusInfo{State: "failed"}, nil
	}
	info := OrderStatusInfo{State: o.state}
	if o.state == "filled" {
		info.AvgPrice = o.price
		info.FilledSize = o.size
		info.Fee = o.fee
	}
	return info, nil
}

func (g *PaperGateway) GetOrderFillDetails(ctx context.Context, orderID string) (*FillDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok || o.state != "filled" {
		return nil, nil
	}
	return &FillDetail{
		OrderType:  "Maker",
		FeeRate:    g.feeRate * 100,
		FillTimeMs: o.fillTimeMs,
	}, nil
}

func (g *PaperGateway) CancelOrder(ctx context.Context, orderID, symbol string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return errors.Errorf("paper: unknown order %s", orderID)
	}
	if o.state == "live" {
		o.state = "canceled"
	}
	return nil
}

func (g *PaperGateway) GetAccountBalance(ctx context.Context, asset string, kind AccountKind) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if kind == AccountFunding {
		return 0, nil
	}
	switch asset {
	case g.base:
		return g.baseBalance, nil
	case g.quote:
		return g.quoteBalance, nil
	}
	return 0, errors.Errorf("paper: unknown asset %s", asset)
}

func (g *PaperGateway) GetOpenOrders(ctx context.Context) ([]OpenOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var open []OpenOrder
	for _, o := range g.orders {
		if o.state == "live" {
			open = append(open, OpenOrder{OrderID: o.id, Symbol: o.symbol})
		}
	}
	return open, nil
}

func (g *PaperGateway) CloseAllOrders(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range g.orders {
		if o.state == "live" {
			o.state = "canceled"
		}
	}
	return nil
}
