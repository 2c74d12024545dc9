// FILE: orders.go
// Package main – Per-side order state machine and placement pricing.
//
// The bot keeps exactly one resting limit order per side. SideOrder tracks
// that order's lifecycle:
//   none    – no resting order; reconciliation reports it as executed so the
//             decision step places a fresh pair
//   placed  – resting on the exchange, identified by orderID
//   blocked – last placement failed for insufficient balance; the side stays
//             halted until the recovery check re-anchors the price
//
// Order size follows a ratchet: each fill doubles the filled side (capped at
// a multiple of the start size) and resets the opposite side back to start,
// so the bot leans into a trend and de-leverages the moment it reverses.

package main

import "math"

// OrderState is the lifecycle state of one side's order slot.
type OrderState int

const (
	OrderStateNone OrderState = iota
	OrderStatePlaced
	OrderStateBlocked
)

func (s OrderState) String() string {
	switch s {
	case OrderStateNone:
		return "none"
	case OrderStatePlaced:
		return "placed"
	case OrderStateBlocked:
		return "blocked"
	}
	return "unknown"
}

// SideOrder is the order slot for one side of the book.
type SideOrder struct {
	side          OrderSide
	state         OrderState
	orderID       string
	expectedPrice float64
	expectedSize  float64

	size      float64
	startSize float64
	maxSize   float64
}

func NewSideOrder(side OrderSide, startSize, maxMultiplier float64) *SideOrder {
	return &SideOrder{
		side:      side,
		size:      startSize,
		startSize: startSize,
		maxSize:   maxMultiplier * startSize,
	}
}

func (o *SideOrder) Side() OrderSide        { return o.side }
func (o *SideOrder) State() OrderState      { return o.state }
func (o *SideOrder) OrderID() string        { return o.orderID }
func (o *SideOrder) ExpectedPrice() float64 { return o.expectedPrice }
func (o *SideOrder) ExpectedSize() float64  { return o.expectedSize }
func (o *SideOrder) Size() float64          { return o.size }

// MarkPlaced records a resting order.
func (o *SideOrder) MarkPlaced(orderID string, price, size float64) {
	o.state = OrderStatePlaced
	o.orderID = orderID
	o.expectedPrice = price
	o.expectedSize = size
}

// MarkBlocked halts the side after a placement the wallet could not cover.
func (o *SideOrder) MarkBlocked() {
	o.state = OrderStateBlocked
	o.orderID = ""
}

// Clear empties the slot. The next reconciliation reports the side as
// executed, which is what triggers placement of a fresh pair.
func (o *SideOrder) Clear() {
	o.state = OrderStateNone
	o.orderID = ""
}

// RatchetUp doubles the side's size, capped at the configured ceiling.
func (o *SideOrder) RatchetUp() {
	o.size = math.Min(o.size*2, o.maxSize)
}

// ResetSize drops the side back to its start size.
func (o *SideOrder) ResetSize() {
	o.size = o.startSize
}

// PersistedID encodes the slot for the runtime state file: the order id when
// placed, the blocked marker when halted, empty when idle.
func (o *SideOrder) PersistedID() string {
	switch o.state {
	case OrderStatePlaced:
		return o.orderID
	case OrderStateBlocked:
		return sideBlocked
	}
	return ""
}

// Restore rebuilds the slot from persisted values.
func (o *SideOrder) Restore(persistedID string, size float64) {
	if size > 0 {
		o.size = math.Min(size, o.maxSize)
	}
	switch persistedID {
	case "":
		o.state = OrderStateNone
		o.orderID = ""
	case sideBlocked:
		o.state = OrderStateBlocked
		o.orderID = ""
	default:
		o.state = OrderStatePlaced
		o.orderID = persistedID
	}
}

// sellPlacementPrice is the limit price for a new sell: the movement target
// above the anchor, clamped to sit no lower than just below the current
// price so a stale anchor cannot produce an instantly-crossing order.
func sellPlacementPrice(lastPrice, currentPrice, movementThreshold, adjustmentOffset float64) float64 {
	target := round2(lastPrice * (1 + movementThreshold))
	floor := round2(currentPrice * (1 - adjustmentOffset))
	return math.Max(target, floor)
}

// buyPlacementPrice mirrors sellPlacementPrice below the anchor.
func buyPlacementPrice(lastPrice, currentPrice, movementThreshold, adjustmentOffset float64) float64 {
	target := round2(lastPrice * (1 - movementThreshold))
	ceiling := round2(currentPrice * (1 + adjustmentOffset))
	return math.Min(target, ceiling)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
