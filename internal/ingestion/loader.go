// Package ingestion loads labeled trade records and rejects malformed ones.
package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/observability"
)

// Ingestion errors.
var (
	// ErrInvalidRecord is wrapped with the record index for every malformed record.
	ErrInvalidRecord = errors.New("invalid trade record")

	// ErrInvalidDocument is returned when the input is not a trades document.
	ErrInvalidDocument = errors.New("invalid trades document")
)

// LoadOptions controls how malformed records are handled.
type LoadOptions struct {
	// SkipInvalid collects malformed records as rejections instead of failing the load.
	SkipInvalid bool

	Logger logrus.FieldLogger
}

// Rejection is one malformed record skipped under SkipInvalid.
type Rejection struct {
	Index int
	Err   error
}

// Dataset is the result of a load.
type Dataset struct {
	Trades   []domain.TradeRecord
	Rejected []Rejection
}

// rawTrade mirrors the on-disk record. Pointers distinguish missing fields from zero values.
type rawTrade struct {
	WindowStart   *int64   `json:"window_start"`
	EntryMinute   *int     `json:"entry_minute"`
	Direction     string   `json:"direction"`
	BuyPriceCents *int     `json:"buy_price_cents"`
	Result        string   `json:"result"`
	Profit        *float64 `json:"profit"`
}

type document struct {
	Trades []json.RawMessage `json:"trades"`
}

// LoadFile reads a trades document from path.
func LoadFile(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trades file: %w", err)
	}
	defer f.Close()

	ds, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// Load decodes either {"trades": [...]} or a bare JSON array of records.
// Records keep their input order.
func Load(r io.Reader, opts LoadOptions) (*Dataset, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "ingestion")

	raws, err := decodeDocument(r)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Trades: make([]domain.TradeRecord, 0, len(raws))}
	for i, msg := range raws {
		t, err := parseRecord(msg)
		if err == nil {
			ds.Trades = append(ds.Trades, t)
			continue
		}
		err = fmt.Errorf("%w at index %d: %v", ErrInvalidRecord, i, err)
		if !opts.SkipInvalid {
			return nil, err
		}
		log.WithError(err).Warn("skipping record")
		ds.Rejected = append(ds.Rejected, Rejection{Index: i, Err: err})
	}

	observability.RecordTradesLoaded(len(ds.Trades), len(ds.Rejected))
	log.WithFields(logrus.Fields{
		"loaded":   len(ds.Trades),
		"rejected": len(ds.Rejected),
	}).Info("trades loaded")
	return ds, nil
}

func decodeDocument(r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read trades: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}

	if data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return raws, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.Trades, nil
}

// parseRecord validates one record: every required field present, buy price
// in [1, 99], known direction and result, non-negative minute.
func parseRecord(msg json.RawMessage) (domain.TradeRecord, error) {
	var raw rawTrade
	if err := json.Unmarshal(msg, &raw); err != nil {
		return domain.TradeRecord{}, err
	}

	var missing []string
	if raw.WindowStart == nil {
		missing = append(missing, "window_start")
	}
	if raw.EntryMinute == nil {
		missing = append(missing, "entry_minute")
	}
	if raw.Direction == "" {
		missing = append(missing, "direction")
	}
	if raw.BuyPriceCents == nil {
		missing = append(missing, "buy_price_cents")
	}
	if raw.Result == "" {
		missing = append(missing, "result")
	}
	if len(missing) > 0 {
		return domain.TradeRecord{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	t := domain.TradeRecord{
		WindowStart:   *raw.WindowStart,
		EntryMinute:   *raw.EntryMinute,
		Direction:     domain.Direction(strings.ToUpper(strings.TrimSpace(raw.Direction))),
		BuyPriceCents: *raw.BuyPriceCents,
		Result:        domain.Result(strings.ToUpper(strings.TrimSpace(raw.Result))),
	}
	if raw.Profit != nil {
		t.Profit = *raw.Profit
	}

	if err := Validate(t); err != nil {
		return domain.TradeRecord{}, err
	}
	return t, nil
}

// Validate checks the value constraints of a trade record.
func Validate(t domain.TradeRecord) error {
	switch {
	case t.EntryMinute < 0:
		return fmt.Errorf("negative entry minute %d", t.EntryMinute)
	case !t.Direction.Valid():
		return fmt.Errorf("unknown direction %q", t.Direction)
	case t.BuyPriceCents < domain.MinBuyPriceCents || t.BuyPriceCents > domain.MaxBuyPriceCents:
		return fmt.Errorf("buy price %d outside [%d, %d]", t.BuyPriceCents, domain.MinBuyPriceCents, domain.MaxBuyPriceCents)
	case !t.Result.Valid():
		return fmt.Errorf("unknown result %q", t.Result)
	}
	return nil
}
