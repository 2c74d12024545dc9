// FILE: csvlog.go
// Package main – Append-only CSV sinks for offline analysis.
//
// PriceLog writes one {timestamp, price} row per polling cycle; OrderLog
// writes one row per fill. Neither is read back by the bot — they exist for
// the offline tooling that replots trading history. Rows are flushed
// immediately so a crash never loses more than the in-flight record.

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// PriceLog appends {Timestamp, Price} rows to price_data.csv.
type PriceLog struct {
	file   *os.File
	writer *csv.Writer
}

func NewPriceLog(dataDir string) (*PriceLog, error) {
	f, w, fresh, err := openCSV(filepath.Join(dataDir, "price_data.csv"))
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := w.Write([]string{"Timestamp", "Price"}); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "price log header")
		}
		w.Flush()
	}
	return &PriceLog{file: f, writer: w}, nil
}

func (l *PriceLog) LogPrice(timestamp string, price float64) {
	_ = l.writer.Write([]string{timestamp, strconv.FormatFloat(price, 'f', -1, 64)})
	l.writer.Flush()
}

func (l *PriceLog) Close() error {
	l.writer.Flush()
	return l.file.Close()
}

var orderLogFields = []string{
	"local_ts", "side", "price_expected", "price_actual",
	"size_expected", "size_actual", "asset", "fee", "order_id",
	"base_balance", "quote_balance", "fee_rate",
	"fill_time_ms", "order_type",
}

// OrderLog appends one row per executed order to orders.csv.
type OrderLog struct {
	file   *os.File
	writer *csv.Writer
}

func NewOrderLog(dataDir string) (*OrderLog, error) {
	f, w, fresh, err := openCSV(filepath.Join(dataDir, "orders.csv"))
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := w.Write(orderLogFields); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "order log header")
		}
		w.Flush()
	}
	return &OrderLog{file: f, writer: w}, nil
}

func (l *OrderLog) LogOrder(rec ExecutedOrder) {
	_ = l.writer.Write([]string{
		rec.LocalTS,
		string(rec.Side),
		fmtFloat(rec.PriceExpected),
		fmtFloat(rec.PriceActual),
		fmtFloat(rec.SizeExpected),
		fmtFloat(rec.SizeActual),
		rec.Asset,
		fmtFloat(rec.Fee),
		rec.OrderID,
		fmtFloat(rec.BaseBalance),
		fmtFloat(rec.QuoteBalance),
		fmtFloat(rec.FeeRate),
		fmt.Sprintf("%d", rec.FillTimeMs),
		rec.OrderType,
	})
	l.writer.Flush()
}

func (l *OrderLog) Close() error {
	l.writer.Flush()
	return l.file.Close()
}

// openCSV opens path for appending and reports whether a header is needed.
func openCSV(path string) (*os.File, *csv.Writer, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, false, errors.Wrapf(err, "create dir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, false, errors.Wrapf(err, "open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, false, errors.Wrapf(err, "stat %s", path)
	}
	return f, csv.NewWriter(f), st.Size() == 0, nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
