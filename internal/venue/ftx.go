package venue

import (
	"encoding/json"
	"fmt"

	"arbitrage-monitor/pkg/types"
)

// NewFTXAdapter returns the Adapter for FTX's orderbook channel, per spec
// §6: number-number level rows, response root is body["result"] for
// snapshots (identity for stream frames), subscribe message names the
// pair unchanged. Grounded on original_source/src/ftx.py's FTX subclass.
// FTX itself is defunct since 2022; the protocol shape is preserved as a
// pluggable second venue per spec §6's note.
func NewFTXAdapter() Adapter {
	return Adapter{
		Name:                   "ftx",
		FormatPairForSubscribe: ftxPairUnchanged,
		FormatPairForURL:       ftxPairUnchanged,
		BuildSnapshotURL:       ftxSnapshotURL,
		BuildSubscribeMessage:  ftxSubscribeMessage,
		ParseSnapshot:          parseFTXSnapshot,
		ParseStreamPayload:     parseFTXStreamPayload,
	}
}

func ftxPairUnchanged(pair string) string { return pair }

func ftxSnapshotURL(baseURL, pair string) string {
	return fmt.Sprintf("%s/%s/orderbook?depth=25", baseURL, pair)
}

type ftxSubscribeMsg struct {
	Op      string `json:"op"`
	Channel string `json:"channel"`
	Market  string `json:"market"`
}

func ftxSubscribeMessage(pair string) ([]byte, error) {
	msg := ftxSubscribeMsg{Op: "subscribe", Channel: "orderbook", Market: pair}
	return json.Marshal(msg)
}

func parseFTXSnapshot(body []byte) (types.BookSnapshot, error) {
	var raw types.FTXOrderBookSnapshot
	if err := json.Unmarshal(body, &raw); err != nil {
		return types.BookSnapshot{}, fmt.Errorf("decode ftx snapshot: %w", err)
	}
	return types.BookSnapshot{
		Bids: parseNumberRows(raw.Result.Bids),
		Asks: parseNumberRows(raw.Result.Asks),
	}, nil
}

func parseFTXStreamPayload(data []byte) (bids, asks []types.PriceLevel, err error) {
	var evt types.FTXOrderBookEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, nil, fmt.Errorf("decode ftx orderbook event: %w", err)
	}
	return parseNumberRows(evt.Bids), parseNumberRows(evt.Asks), nil
}

// parseNumberRows coerces FTX's [price, qty] number rows, per §4.6's
// format_level_row for number-number pairs.
func parseNumberRows(rows [][]float64) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		out = append(out, types.PriceLevel{Price: row[0], Qty: row[1]})
	}
	return out
}
