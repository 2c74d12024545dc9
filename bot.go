// FILE: bot.go
// Package main – The trading loop.
//
// Bot runs the fixed-cadence cycle:
//   FETCH     – get the current price (short retry delay on failure)
//   VALIDATE  – log the raw price, then reject values too far from the anchor
//   UPDATE    – momentum from the price history; extreme check against the
//               momentum history before the new value is committed
//   RECONCILE – resolve both resting orders; apply fills to the wallet in
//               fill-time order, re-anchor the price to each fill
//   DECIDE    – any executed order closes both slots and (unless momentum is
//               extreme) places a fresh sell/buy pair around the anchor;
//               extreme momentum with nothing executed de-risks by closing
//               everything; blocked sides recover once the price moves a full
//               threshold past the stale anchor
//   SLEEP     – one resolution interval
//
// Runtime state is persisted after any cycle that applied a fill, and again
// on shutdown.

package main

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Bot owns all trading state for one asset pair on one account.
type Bot struct {
	cfg      Config
	gw       ExchangeGateway
	wallet   *WalletLedger
	tracker  *MomentumTracker
	detector *ExtremeDetector
	buy      *SideOrder
	sell     *SideOrder
	store    *RuntimeStateStore
	priceLog *PriceLog
	log      *logrus.Logger

	lastPrice float64

	now func() time.Time
}

// NewBot wires the components and restores persisted state. It fails when
// the exchange is unreachable and no saved price anchor exists; starting
// without an anchor would let the validation gate pass anything.
func NewBot(ctx context.Context, cfg Config, gw ExchangeGateway, store *RuntimeStateStore, priceLog *PriceLog, orderLog *OrderLog, log *logrus.Logger) (*Bot, error) {
	wallet := NewWalletLedger(cfg.Asset, cfg.TakerFeeRate, orderLog, log)

	base, quote := wallet.BaseAsset(), wallet.QuoteAsset()
	baseBal, err := gw.GetAccountBalance(ctx, base, AccountTrading)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s balance", base)
	}
	quoteBal, err := gw.GetAccountBalance(ctx, quote, AccountTrading)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s balance", quote)
	}
	wallet.SetBalances(baseBal, quoteBal)

	minSize, err := gw.GetMinimumSize(ctx, cfg.Asset)
	if err != nil || minSize <= 0 {
		log.WithError(err).Warn("[BOT] minimum size unavailable, using fallback")
		minSize = 0.00001
	}
	startSize := cfg.OrderSizeFactor * minSize

	b := &Bot{
		cfg:      cfg,
		gw:       gw,
		wallet:   wallet,
		tracker:  NewMomentumTracker(cfg.MomentumLookbackWindowMinutes, cfg.MomentumHistoryWindowMinutes),
		detector: NewExtremeDetector(cfg.MomentumHistoryWindowMinutes, cfg.PriceResolutionMinutes, cfg.MomentumStdThreshold),
		buy:      NewSideOrder(SideBuy, startSize, cfg.MaxOrderSizeMultiplier),
		sell:     NewSideOrder(SideSell, startSize, cfg.MaxOrderSizeMultiplier),
		store:    store,
		priceLog: priceLog,
		log:      log,
		now:      time.Now,
	}

	if err := b.restore(ctx); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"asset":      cfg.Asset,
		"last_price": b.lastPrice,
		"start_size": startSize,
		"base":       baseBal,
		"quote":      quoteBal,
	}).Info("[BOT] initialized")
	return b, nil
}

// restore loads the runtime state file or, failing that, anchors on the live
// price.
func (b *Bot) restore(ctx context.Context) error {
	params, hasLastPrice, err := b.store.Load()
	switch {
	case errors.Is(err, ErrNoState):
		b.log.Warn("[BOT] no saved state, anchoring on live price")
	case err != nil:
		return err
	default:
		b.buy.Restore(params.BuyOrderID, params.BuySize)
		b.sell.Restore(params.SellOrderID, params.SellSize)
		if hasLastPrice {
			b.lastPrice = params.LastPrice
			return nil
		}
		b.log.Error("[BOT] saved state missing last price, re-anchoring on live price")
	}

	price, err := b.gw.GetPrice(ctx, b.cfg.Asset)
	if err != nil {
		return errors.Wrap(err, "fetch initial price")
	}
	b.lastPrice = price
	return nil
}

// Run executes cycles until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	cadence := time.Duration(b.cfg.PriceResolutionMinutes) * time.Minute
	retry := time.Duration(b.cfg.RetryDelaySeconds) * time.Second

	for {
		delay := cadence
		if !b.cycle(ctx) {
			delay = retry
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// cycle runs one pass of the loop. It returns false when the cycle aborted
// before the signal update (fetch or validation failure) so the caller can
// retry sooner than the full cadence.
func (b *Bot) cycle(ctx context.Context) bool {
	price, err := b.gw.GetPrice(ctx, b.cfg.Asset)
	if err != nil {
		b.log.WithError(err).Warn("[BOT] price fetch failed")
		return false
	}

	ts := b.now()
	localTS := ts.Format("2006-01-02 15:04:05")
	// Raw price is logged before validation so rejected samples remain
	// visible in the offline record.
	b.priceLog.LogPrice(localTS, price)

	if !b.isValidPrice(price) {
		mtxPriceRejections.Inc()
		b.log.WithFields(logrus.Fields{"price": price, "last_price": b.lastPrice}).
			Error("[BOT] price value looks wrong, skipping cycle")
		return false
	}

	momentum := b.tracker.Update(price, ts)
	isExtreme := b.detector.IsExtreme(momentum, ts)
	b.detector.Add(momentum, ts)
	mtxMomentum.Set(momentum)
	if isExtreme {
		mtxExtremes.Inc()
		b.log.WithField("momentum", momentum).Warn("[BOT] extreme momentum detected")
	}

	buyRes := b.reconcileSide(ctx, b.buy, localTS)
	sellRes := b.reconcileSide(ctx, b.sell, localTS)
	fillsApplied := b.applyExecutions(ctx, buyRes, sellRes)

	action := "hold"
	buyExecuted := buyRes.executed()
	sellExecuted := sellRes.executed()
	switch {
	case buyExecuted || sellExecuted:
		b.closeOpenOrders(ctx)
		if isExtreme {
			action = "derisk"
		} else {
			b.placeOrders(ctx, price)
			action = "place"
		}
	case isExtreme:
		b.closeOpenOrders(ctx)
		action = "derisk"
	}

	if b.checkRecovery(ctx, price) {
		action = "recover"
	}

	if fillsApplied {
		if err := b.Persist(); err != nil {
			b.log.WithError(err).Error("[BOT] persist failed")
		}
	}

	mtxCycles.Inc()
	mtxDecisions.WithLabelValues(action).Inc()
	mtxLastPrice.Set(b.lastPrice)
	mtxBaseBalance.Set(b.wallet.BaseBalance())
	mtxQuoteBalance.Set(b.wallet.QuoteBalance())
	return true
}

// isValidPrice gates obviously-broken ticker values: non-finite numbers and
// anything further from the anchor than the validation threshold allows.
func (b *Bot) isValidPrice(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return false
	}
	return math.Abs(price-b.lastPrice) < b.lastPrice*b.cfg.PriceValidationThreshold
}

type reconcileStatus int

const (
	reconcileWaiting reconcileStatus = iota
	reconcileCanceled
	reconcileFilled
	reconcileBlocked
)

type reconcileResult struct {
	status reconcileStatus
	fill   Fill
}

// executed reports whether the slot resolved this cycle. A canceled or empty
// slot counts: it is what lets the decision step place a fresh pair.
func (r reconcileResult) executed() bool {
	return r.status == reconcileFilled || r.status == reconcileCanceled
}

// reconcileSide resolves one order slot against the exchange. Gateway errors
// leave the slot untouched for the next cycle.
func (b *Bot) reconcileSide(ctx context.Context, slot *SideOrder, localTS string) reconcileResult {
	res := reconcileResult{fill: Fill{FillTimeMs: fillTimeUnknown}}

	switch slot.State() {
	case OrderStateBlocked:
		res.status = reconcileBlocked
		return res
	case OrderStateNone:
		res.status = reconcileCanceled
		return res
	}

	info, err := b.gw.CheckOrderStatus(ctx, b.cfg.Asset, slot.OrderID())
	if err != nil {
		b.log.WithError(err).WithField("order_id", slot.OrderID()).
			Warn("[BOT] order status check failed")
		res.status = reconcileWaiting
		return res
	}

	switch info.State {
	case "filled", "partially_filled":
		res.status = reconcileFilled
		res.fill = b.buildFill(ctx, slot, info, localTS)
	case "canceled", "failed":
		res.status = reconcileCanceled
	default:
		res.status = reconcileWaiting
	}
	return res
}

// buildFill assembles the fill record, preferring the fills endpoint for the
// execution type, fee rate and fill time and falling back to a fee-implied
// classification when it has nothing.
func (b *Bot) buildFill(ctx context.Context, slot *SideOrder, info OrderStatusInfo, localTS string) Fill {
	fill := Fill{
		OrderID:       slot.OrderID(),
		Side:          slot.Side(),
		PriceExpected: slot.ExpectedPrice(),
		PriceActual:   info.AvgPrice,
		SizeExpected:  slot.ExpectedSize(),
		SizeActual:    info.FilledSize,
		Fee:           info.Fee,
		FillTimeMs:    fillTimeUnknown,
		OrderType:     "NA",
		LocalTS:       localTS,
	}

	if notional := info.AvgPrice * info.FilledSize; notional > 0 {
		fill.FeeRate = info.Fee / notional * 100
		if fill.FeeRate > 0.08 {
			fill.OrderType = "Taker"
		} else {
			fill.OrderType = "Maker"
		}
	}

	details, err := b.gw.GetOrderFillDetails(ctx, slot.OrderID())
	if err != nil || details == nil {
		b.log.WithError(err).WithField("order_id", slot.OrderID()).
			Warn("[BOT] fill details unavailable")
		return fill
	}
	fill.OrderType = details.OrderType
	fill.FeeRate = details.FeeRate
	fill.FillTimeMs = details.FillTimeMs
	return fill
}

// applyExecutions processes this cycle's fills in fill-time order: each fill
// ratchets the filled side, resets the opposite side and re-anchors the
// price, so when both sides filled the later fill wins the anchor.
func (b *Bot) applyExecutions(ctx context.Context, buyRes, sellRes reconcileResult) bool {
	var fills []Fill
	if buyRes.status == reconcileFilled {
		fills = append(fills, buyRes.fill)
	}
	if sellRes.status == reconcileFilled {
		if len(fills) > 0 && sellRes.fill.FillTimeMs < fills[0].FillTimeMs {
			fills = append([]Fill{sellRes.fill}, fills...)
		} else {
			fills = append(fills, sellRes.fill)
		}
	}

	for _, fill := range fills {
		b.recordFill(ctx, fill)
		b.adjustOrderSizes(fill.Side)
		b.lastPrice = fill.PriceActual
		mtxFills.WithLabelValues(string(fill.Side)).Inc()
	}
	return len(fills) > 0
}

// recordFill refreshes the wallet from the exchange and applies the fill.
// When the balance fetch fails the ledger keeps its previous numbers.
func (b *Bot) recordFill(ctx context.Context, fill Fill) {
	baseAfter, quoteAfter := b.wallet.BaseBalance(), b.wallet.QuoteBalance()
	if v, err := b.gw.GetAccountBalance(ctx, b.wallet.BaseAsset(), AccountTrading); err == nil {
		baseAfter = v
	} else {
		b.log.WithError(err).Warn("[BOT] base balance refresh failed")
	}
	if v, err := b.gw.GetAccountBalance(ctx, b.wallet.QuoteAsset(), AccountTrading); err == nil {
		quoteAfter = v
	} else {
		b.log.WithError(err).Warn("[BOT] quote balance refresh failed")
	}
	b.wallet.ApplyFill(fill, baseAfter, quoteAfter)
}

// adjustOrderSizes is the sizing ratchet: the executed side doubles (capped)
// and the opposite side resets to start.
func (b *Bot) adjustOrderSizes(executedSide OrderSide) {
	b.slot(executedSide).RatchetUp()
	b.slot(executedSide.Opposite()).ResetSize()
	b.log.WithFields(logrus.Fields{
		"executed_side": executedSide,
		"buy_size":      b.buy.Size(),
		"sell_size":     b.sell.Size(),
	}).Info("[BOT] order sizes adjusted")
}

// slot maps a side to its order slot.
func (b *Bot) slot(side OrderSide) *SideOrder {
	if side == SideBuy {
		return b.buy
	}
	return b.sell
}

// closeOpenOrders cancels everything resting on the exchange and empties
// both slots, including blocked ones.
func (b *Bot) closeOpenOrders(ctx context.Context) {
	if err := b.gw.CloseAllOrders(ctx); err != nil {
		b.log.WithError(err).Warn("[BOT] close all orders failed")
	}
	b.buy.Clear()
	b.sell.Clear()
}

// placeOrders rests a fresh sell/buy pair around the anchor, sell first. A
// side whose wallet check or exchange placement fails is marked blocked.
func (b *Bot) placeOrders(ctx context.Context, currentPrice float64) {
	sellPrice := sellPlacementPrice(b.lastPrice, currentPrice, b.cfg.PriceMovementThreshold, b.cfg.PriceAdjustmentOffset)
	b.placeSide(ctx, b.sell, sellPrice)

	buyPrice := buyPlacementPrice(b.lastPrice, currentPrice, b.cfg.PriceMovementThreshold, b.cfg.PriceAdjustmentOffset)
	b.placeSide(ctx, b.buy, buyPrice)
}

func (b *Bot) placeSide(ctx context.Context, slot *SideOrder, price float64) {
	side := slot.Side()
	size := slot.Size()

	if !b.wallet.CheckOrderSize(side, size, price) {
		b.log.WithFields(logrus.Fields{
			"side":  side,
			"price": price,
			"size":  size,
			"base":  b.wallet.BaseBalance(),
			"quote": b.wallet.QuoteBalance(),
		}).Warn("[BOT] insufficient balance, side blocked")
		slot.MarkBlocked()
		mtxOrdersBlocked.WithLabelValues(string(side)).Inc()
		return
	}

	orderID, err := b.gw.PlaceOrder(ctx, b.cfg.Asset, side, price, size)
	if err != nil || orderID == "" {
		b.log.WithError(err).WithField("side", side).Error("[BOT] failed to place order")
		slot.MarkBlocked()
		mtxOrdersBlocked.WithLabelValues(string(side)).Inc()
		return
	}

	slot.MarkPlaced(orderID, price, size)
	mtxOrdersPlaced.WithLabelValues(string(side)).Inc()
	b.log.WithFields(logrus.Fields{
		"side":     side,
		"price":    price,
		"size":     size,
		"order_id": orderID,
	}).Info("[BOT] order placed")
}

// checkRecovery unblocks a halted side once the market has moved a full
// movement threshold past the stale anchor: the anchor jumps to the current
// price and everything is closed so the next cycle starts fresh.
func (b *Bot) checkRecovery(ctx context.Context, currentPrice float64) bool {
	recovered := false
	if b.sell.State() == OrderStateBlocked &&
		currentPrice > b.lastPrice*(1+b.cfg.PriceMovementThreshold) {
		b.log.Warnf("[BOT] nothing to sell, re-anchoring from %g to %g and closing orders", b.lastPrice, currentPrice)
		b.lastPrice = currentPrice
		b.closeOpenOrders(ctx)
		recovered = true
	}
	if b.buy.State() == OrderStateBlocked &&
		currentPrice < b.lastPrice*(1-b.cfg.PriceMovementThreshold) {
		b.log.Warnf("[BOT] nothing to buy with, re-anchoring from %g to %g and closing orders", b.lastPrice, currentPrice)
		b.lastPrice = currentPrice
		b.closeOpenOrders(ctx)
		recovered = true
	}
	return recovered
}

// Persist writes the runtime state file.
func (b *Bot) Persist() error {
	return b.store.Save(RuntimeParams{
		LastPrice:   b.lastPrice,
		BuySize:     b.buy.Size(),
		SellSize:    b.sell.Size(),
		BuyOrderID:  b.buy.PersistedID(),
		SellOrderID: b.sell.PersistedID(),
	})
}
