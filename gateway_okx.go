// FILE: gateway_okx.go
// Package main – Signed REST client for OKX spot.
//
// OKXGateway implements ExchangeGateway against the OKX v5 REST API:
//   • request signing: HMAC-SHA256 over timestamp+method+path+body, base64,
//     sent in the OK-ACCESS-* headers
//   • transport: resty with per-request timeout and exponential-backoff
//     retries on connection errors and 5xx responses; when every retry is
//     exhausted the client assumes a rate-limit ban and sleeps (doubling
//     each consecutive ban, resetting on success)
//   • parsing: gjson path lookups on the raw response body
//
// Credentials come from OKX_API_KEY / OKX_SECRET_KEY / OKX_PASSPHRASE,
// hydrated from .env by loadBotEnv before the gateway is constructed.

package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// OKXGateway talks to OKX v5 spot endpoints for one asset pair.
type OKXGateway struct {
	asset      string
	apiKey     string
	secretKey  string
	passphrase string

	prefix       string
	client       *resty.Client
	banSleep     time.Duration
	initialSleep time.Duration
	log          *logrus.Logger
}

// NewOKXGateway builds the client and validates that credentials are present.
func NewOKXGateway(asset string, cfg ExchangeConfig, log *logrus.Logger) (*OKXGateway, error) {
	apiKey := getEnv("OKX_API_KEY", "")
	secretKey := getEnv("OKX_SECRET_KEY", "")
	passphrase := getEnv("OKX_PASSPHRASE", "")
	if apiKey == "" || secretKey == "" || passphrase == "" {
		return nil, errors.New("okx: missing API credentials (OKX_API_KEY, OKX_SECRET_KEY, OKX_PASSPHRASE)")
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.RequestTimeoutSeconds)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Duration(cfg.BackoffFactor*float64(time.Second))).
		SetRetryMaxWaitTime(30*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 5xx is a transient transport failure, same as a connection
			// error; never a statement about order state.
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json")

	initial := time.Duration(cfg.InitialBanSleepSeconds) * time.Second
	return &OKXGateway{
		asset:        asset,
		apiKey:       apiKey,
		secretKey:    secretKey,
		passphrase:   passphrase,
		prefix:       cfg.APIPrefix,
		client:       client,
		banSleep:     initial,
		initialSleep: initial,
		log:          log,
	}, nil
}

func (g *OKXGateway) Name() string { return "okx" }

// utcTimestamp is the ISO-8601 millisecond format OKX signs against.
func utcTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (g *OKXGateway) sign(timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// send issues one signed request. endpoint includes the query string; body is
// nil for GETs. A transport failure or non-2xx status after all retries
// applies the doubling ban-sleep before returning the error.
func (g *OKXGateway) send(ctx context.Context, method, endpoint string, body any) (gjson.Result, error) {
	var bodyStr string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, errors.Wrap(err, "okx: marshal body")
		}
		bodyStr = string(data)
	}

	ts := utcTimestamp()
	req := g.client.R().
		SetContext(ctx).
		SetHeader("OK-ACCESS-KEY", g.apiKey).
		SetHeader("OK-ACCESS-SIGN", g.sign(ts, method, g.prefix+endpoint, bodyStr)).
		SetHeader("OK-ACCESS-TIMESTAMP", ts).
		SetHeader("OK-ACCESS-PASSPHRASE", g.passphrase)
	if bodyStr != "" {
		req.SetBody(bodyStr)
	}

	resp, err := req.Execute(method, g.prefix+endpoint)
	if err == nil && resp.IsError() {
		err = errors.Errorf("status %s", resp.Status())
	}
	if err != nil {
		g.log.WithError(err).Warnf("[OKX] request failed after retries, sleeping %s (possible ban)", g.banSleep)
		select {
		case <-time.After(g.banSleep):
		case <-ctx.Done():
			return gjson.Result{}, ctx.Err()
		}
		g.banSleep *= 2
		return gjson.Result{}, errors.Wrapf(err, "okx: %s %s", method, endpoint)
	}
	g.banSleep = g.initialSleep

	result := gjson.ParseBytes(resp.Body())
	if code := result.Get("code"); code.Exists() && code.String() != "0" {
		return result, errors.Errorf("okx: %s %s: code %s: %s",
			method, endpoint, code.String(), result.Get("msg").String())
	}
	return result, nil
}

func (g *OKXGateway) GetPrice(ctx context.Context, symbol string) (float64, error) {
	result, err := g.send(ctx, "GET", "/market/ticker?instId="+symbol, nil)
	if err != nil {
		return 0, err
	}
	last := result.Get("data.0.last")
	if !last.Exists() {
		return 0, errors.Errorf("okx: no ticker data for %s", symbol)
	}
	return last.Float(), nil
}

func (g *OKXGateway) GetMinimumSize(ctx context.Context, symbol string) (float64, error) {
	result, err := g.send(ctx, "GET", "/public/instruments?instType=SPOT", nil)
	if err != nil {
		return 0, err
	}
	var minSz float64
	result.Get("data").ForEach(func(_, inst gjson.Result) bool {
		if inst.Get("instId").String() == symbol {
			minSz = inst.Get("minSz").Float()
			return false
		}
		return true
	})
	if minSz <= 0 {
		return 0, errors.Errorf("okx: instrument %s not found", symbol)
	}
	return minSz, nil
}

func (g *OKXGateway) PlaceOrder(ctx context.Context, symbol string, side OrderSide, price, size float64) (string, error) {
	body := map[string]string{
		"instId":  symbol,
		"tdMode":  "cash",
		"side":    string(side),
		"ordType": "limit",
		"px":      strconv.FormatFloat(price, 'f', -1, 64),
		"sz":      decimal.NewFromFloat(size).String(),
		"tgtCcy":  "quote_ccy",
	}
	result, err := g.send(ctx, "POST", "/trade/order", body)
	if err != nil {
		return "", err
	}
	orderID := result.Get("data.0.ordId").String()
	if orderID == "" {
		return "", errors.Errorf("okx: order rejected: %s", result.Get("data.0.sMsg").String())
	}
	return orderID, nil
}

// CheckOrderStatus maps a missing order to state "failed" rather than an
// error; the reconciler treats "failed" like a cancellation.
func (g *OKXGateway) CheckOrderStatus(ctx context.Context, symbol, orderID string) (OrderStatusInfo, error) {
	result, err := g.send(ctx, "GET", "/trade/order?ordId="+orderID+"&instId="+symbol, nil)
	if err != nil {
		return OrderStatusInfo{}, err
	}
	order := result.Get("data.0")
	if !order.Exists() {
		return OrderStatusInfo{State: "failed"}, nil
	}

	info := OrderStatusInfo{
		State:      order.Get("state").String(),
		FilledSize: order.Get("accFillSz").Float(),
	}
	if fee := order.Get("fee").Float(); fee < 0 {
		info.Fee = -fee
	} else {
		info.Fee = fee
	}
	if info.FilledSize > 0 {
		info.AvgPrice = order.Get("avgPx").Float()
	}
	return info, nil
}

func (g *OKXGateway) GetOrderFillDetails(ctx context.Context, orderID string) (*FillDetail, error) {
	result, err := g.send(ctx, "GET", "/trade/fills?ordId="+orderID, nil)
	if err != nil {
		return nil, err
	}
	trade := result.Get("data.0")
	if !trade.Exists() {
		return nil, nil
	}

	orderType := "unknown"
	switch trade.Get("execType").String() {
	case "M":
		orderType = "Maker"
	case "T":
		orderType = "Taker"
	}

	fillTime := fillTimeUnknown
	if ft := trade.Get("fillTime"); ft.Exists() && ft.String() != "" {
		fillTime = ft.Int()
	}

	return &FillDetail{
		OrderType:  orderType,
		FeeRate:    trade.Get("feeRate").Float(),
		FillTimeMs: fillTime,
	}, nil
}

func (g *OKXGateway) CancelOrder(ctx context.Context, orderID, symbol string) error {
	body := map[string]string{"instId": symbol, "ordId": orderID}
	_, err := g.send(ctx, "POST", "/trade/cancel-order", body)
	return err
}

func (g *OKXGateway) GetAccountBalance(ctx context.Context, asset string, kind AccountKind) (float64, error) {
	var endpoint, path string
	switch kind {
	case AccountFunding:
		endpoint = "/asset/balances?ccy=" + asset
		path = "data.0.availBal"
	default:
		endpoint = "/account/balance?ccy=" + asset
		path = "data.0.details.0.availBal"
	}
	result, err := g.send(ctx, "GET", endpoint, nil)
	if err != nil {
		return 0, err
	}
	bal := result.Get(path)
	if !bal.Exists() {
		return 0, errors.Errorf("okx: no %s balance for %s", kind, asset)
	}
	return bal.Float(), nil
}

func (g *OKXGateway) GetOpenOrders(ctx context.Context) ([]OpenOrder, error) {
	result, err := g.send(ctx, "GET", "/trade/orders-pending", nil)
	if err != nil {
		return nil, err
	}
	var open []OpenOrder
	result.Get("data").ForEach(func(_, o gjson.Result) bool {
		open = append(open, OpenOrder{
			OrderID: o.Get("ordId").String(),
			Symbol:  o.Get("instId").String(),
		})
		return true
	})
	return open, nil
}

func (g *OKXGateway) CloseAllOrders(ctx context.Context) error {
	open, err := g.GetOpenOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range open {
		if err := g.CancelOrder(ctx, o.OrderID, o.Symbol); err != nil {
			g.log.WithError(err).WithField("order_id", o.OrderID).Warn("[OKX] cancel failed")
		}
	}
	return nil
}
