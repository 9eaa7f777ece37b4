package venue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"arbitrage-monitor/pkg/types"
)

// NewBinanceAdapter returns the Adapter for Binance spot depth streams, per
// spec §6: string-string level rows, subscribe-message wraps the pair as
// "<pair>@depth@100ms", response root is the snapshot body itself.
// Grounded on original_source/src/binance.py's Binance subclass.
func NewBinanceAdapter() Adapter {
	return Adapter{
		Name:                   "binance",
		FormatPairForSubscribe: binancePairForSubscribe,
		FormatPairForURL:       binancePairForURL,
		BuildSnapshotURL:       binanceSnapshotURL,
		BuildSubscribeMessage:  binanceSubscribeMessage,
		ParseSnapshot:          parseBinanceSnapshot,
		ParseStreamPayload:     parseBinanceStreamPayload,
	}
}

func binancePairForSubscribe(pair string) string {
	return strings.ToLower(strings.ReplaceAll(pair, "/", "")) + "@depth@100ms"
}

func binancePairForURL(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

func binanceSnapshotURL(baseURL, pair string) string {
	return fmt.Sprintf("%s?symbol=%s&limit=1000", baseURL, binancePairForURL(pair))
}

type binanceSubscribeMsg struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

func binanceSubscribeMessage(pair string) ([]byte, error) {
	msg := binanceSubscribeMsg{
		Method: "SUBSCRIBE",
		Params: []string{binancePairForSubscribe(pair)},
		ID:     1,
	}
	return json.Marshal(msg)
}

func parseBinanceSnapshot(body []byte) (types.BookSnapshot, error) {
	var raw types.BinanceDepthSnapshot
	if err := json.Unmarshal(body, &raw); err != nil {
		return types.BookSnapshot{}, fmt.Errorf("decode binance snapshot: %w", err)
	}
	bids, err := parseStringRows(raw.Bids)
	if err != nil {
		return types.BookSnapshot{}, fmt.Errorf("binance snapshot bids: %w", err)
	}
	asks, err := parseStringRows(raw.Asks)
	if err != nil {
		return types.BookSnapshot{}, fmt.Errorf("binance snapshot asks: %w", err)
	}
	return types.BookSnapshot{Bids: bids, Asks: asks}, nil
}

func parseBinanceStreamPayload(data []byte) (bids, asks []types.PriceLevel, err error) {
	var evt types.BinanceDepthEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, nil, fmt.Errorf("decode binance depth event: %w", err)
	}
	bids, err = parseStringRows(evt.Bids)
	if err != nil {
		return nil, nil, fmt.Errorf("binance depth bids: %w", err)
	}
	asks, err = parseStringRows(evt.Asks)
	if err != nil {
		return nil, nil, fmt.Errorf("binance depth asks: %w", err)
	}
	return bids, asks, nil
}

// parseStringRows coerces Binance's [price_str, qty_str] rows, per §4.6's
// format_level_row for string-string pairs.
func parseStringRows(rows [][]string) ([]types.PriceLevel, error) {
	out := make([]types.PriceLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("level row has %d fields, want 2", len(row))
		}
		price, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", row[0], err)
		}
		qty, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse qty %q: %w", row[1], err)
		}
		out = append(out, types.PriceLevel{Price: price, Qty: qty})
	}
	return out, nil
}
