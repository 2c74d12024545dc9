// FILE: state.go
// Package main – Runtime state persistence.
//
// RuntimeStateStore saves the handful of values the bot needs to survive a
// restart: the price anchor and the per-side order sizes and resting order
// ids. The file is a single small JSON document rewritten in full on every
// save (tmp file + rename, same crash-safety pattern as the CSV sinks rely
// on the OS for). On load, a file written by an older build that lacks
// last_price is reported so the caller can re-anchor from the live ticker.

package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// sideBlocked is the persisted marker for a side halted on insufficient
// balance. Kept as a string so it is distinguishable from any real order id.
const sideBlocked = "-55"

// RuntimeParams is everything the bot persists between runs.
type RuntimeParams struct {
	LastPrice   float64 `json:"last_price"`
	BuySize     float64 `json:"buy_size"`
	SellSize    float64 `json:"sell_size"`
	BuyOrderID  string  `json:"buy_order_id"`
	SellOrderID string  `json:"sell_order_id"`
}

// ErrNoState is returned by Load when no state file exists yet.
var ErrNoState = errors.New("no runtime state saved")

// RuntimeStateStore reads and writes RuntimeParams as JSON at a fixed path.
type RuntimeStateStore struct {
	path string
}

func NewRuntimeStateStore(dataDir string) *RuntimeStateStore {
	return &RuntimeStateStore{path: filepath.Join(dataDir, "runtime_state.json")}
}

// Save atomically rewrites the state file.
func (s *RuntimeStateStore) Save(p RuntimeParams) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal runtime state")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

// Load reads the state file. hasLastPrice is false when the file predates the
// last_price field; the other values are still valid and returned.
func (s *RuntimeStateStore) Load() (p RuntimeParams, hasLastPrice bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, false, ErrNoState
		}
		return p, false, errors.Wrapf(err, "read %s", s.path)
	}

	// Decode last_price through a pointer so "absent" and "zero" stay
	// distinguishable.
	var probe struct {
		LastPrice   *float64 `json:"last_price"`
		BuySize     float64  `json:"buy_size"`
		SellSize    float64  `json:"sell_size"`
		BuyOrderID  string   `json:"buy_order_id"`
		SellOrderID string   `json:"sell_order_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return p, false, errors.Wrapf(err, "parse %s", s.path)
	}

	p.BuySize = probe.BuySize
	p.SellSize = probe.SellSize
	p.BuyOrderID = probe.BuyOrderID
	p.SellOrderID = probe.SellOrderID
	if probe.LastPrice != nil {
		p.LastPrice = *probe.LastPrice
		hasLastPrice = true
	}
	return p, hasLastPrice, nil
}
