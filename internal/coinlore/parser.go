package coinlore

import (
	"encoding/json"
	"errors"
	"strings"

	"cryptoview/internal/models"
	"github.com/shopspring/decimal"
)

// unknownValue is the placeholder for absent string fields. The upstream
// contract is known to be inconsistent across sources, so absent or
// malformed fields default instead of failing the batch.
const unknownValue = "Unknown"

// Result is one normalized batch of trading pairs. Info is nil when the
// payload carried no exchange metadata at all.
type Result struct {
	Info  *models.ExchangeInfo
	Pairs []models.TradingPair
}

// payloadKind classifies a raw payload into one of the recognized shapes.
type payloadKind int

const (
	payloadEmpty payloadKind = iota
	payloadArray
	payloadStrict
	payloadAlternative
)

// Parser turns raw exchange payloads into normalized trading pairs. Every
// accepted pair passes through the time normalizer before it is returned.
type Parser struct {
	norm *TimeNormalizer
}

// NewParser creates a parser that repairs timestamps with norm.
func NewParser(norm *TimeNormalizer) *Parser {
	return &Parser{norm: norm}
}

// classify is a pure function from raw structure to payload kind. First
// match wins: empty, top-level array, object with both a "pairs" key and a
// "0" key, anything else.
func classify(body []byte) payloadKind {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "{}" || trimmed == "[]" {
		return payloadEmpty
	}
	if strings.HasPrefix(trimmed, "[") {
		return payloadArray
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return payloadAlternative
	}
	_, hasPairs := fields["pairs"]
	_, hasInfo := fields["0"]
	if hasPairs && hasInfo {
		return payloadStrict
	}
	return payloadAlternative
}

// Parse normalizes a raw payload. It never fails on malformed fields or
// elements; those are defaulted or skipped. The only errors exposed upward
// are ErrEmptyPayload and ErrUnsupportedFormat.
func (p *Parser) Parse(body []byte) (Result, error) {
	switch classify(body) {
	case payloadEmpty:
		return Result{}, ErrEmptyPayload
	case payloadArray:
		return p.parseArray(body)
	case payloadStrict:
		res, err := p.parseStrict(body)
		if err == nil {
			return res, nil
		}
		// Required keys were present but the strict decode failed, so the
		// tolerant pass stands even when it yields nothing.
		return p.parseAlternative(body), nil
	default:
		res := p.parseAlternative(body)
		if len(res.Pairs) == 0 {
			return Result{}, ErrUnsupportedFormat
		}
		return res, nil
	}
}

// parseArray handles top-level array payloads. Each element is decoded
// independently; elements that fail to decode are skipped. A document that
// does not decode as an array at all, such as a truncated response, is
// unsupported rather than an empty success.
func (p *Parser) parseArray(body []byte) (Result, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return Result{}, ErrUnsupportedFormat
	}
	var res Result
	for _, raw := range elements {
		pair, err := decodePair(raw)
		if err != nil {
			continue
		}
		res.Pairs = append(res.Pairs, p.norm.Normalize(pair))
	}
	return res, nil
}

// parseStrict handles objects carrying both a "pairs" array and a "0"
// metadata entry. Pair decoding stays tolerant; absent metadata is reported
// as unavailable rather than failing the batch.
func (p *Parser) parseStrict(body []byte) (Result, error) {
	var payload struct {
		Pairs []json.RawMessage `json:"pairs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Result{}, err
	}

	var res Result
	if infoRaw, ok := fields["0"]; ok {
		var info models.ExchangeInfo
		if err := json.Unmarshal(infoRaw, &info); err == nil {
			res.Info = &info
		}
	}
	for _, raw := range payload.Pairs {
		pair, err := decodePair(raw)
		if err != nil {
			continue
		}
		res.Pairs = append(res.Pairs, p.norm.Normalize(pair))
	}
	return res, nil
}

// parseAlternative is the fallback for objects that miss a required key or
// defeat the strict decode. It never fails: no "pairs" array means zero
// pairs, and every metadata field defaults independently.
func (p *Parser) parseAlternative(body []byte) Result {
	res := Result{
		Info: &models.ExchangeInfo{Name: unknownValue, DateLive: unknownValue, URL: unknownValue},
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return res
	}

	if pairsRaw, ok := fields["pairs"]; ok {
		var elements []json.RawMessage
		if err := json.Unmarshal(pairsRaw, &elements); err == nil {
			for _, raw := range elements {
				pair, err := decodePair(raw)
				if err != nil {
					continue
				}
				res.Pairs = append(res.Pairs, p.norm.Normalize(pair))
			}
		}
	}

	if infoRaw, ok := fields["0"]; ok {
		var infoFields map[string]json.RawMessage
		if err := json.Unmarshal(infoRaw, &infoFields); err == nil {
			res.Info.Name = stringField(infoFields, "name", unknownValue)
			res.Info.DateLive = stringField(infoFields, "date_live", unknownValue)
			res.Info.URL = stringField(infoFields, "url", unknownValue)
		}
	}

	return res
}

// decodePair extracts one trading pair field by field. Only a non-object
// element is an error; individual fields default on absence or mismatch.
func decodePair(raw json.RawMessage) (models.TradingPair, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.TradingPair{}, err
	}
	// A JSON null unmarshals into a nil map without error.
	if fields == nil {
		return models.TradingPair{}, errors.New("pair element is not an object")
	}
	return models.TradingPair{
		Base:     stringField(fields, "base", unknownValue),
		Quote:    stringField(fields, "quote", unknownValue),
		Price:    decimalField(fields, "price"),
		PriceUsd: decimalField(fields, "price_usd"),
		Volume:   decimalField(fields, "volume"),
		Time:     intField(fields, "time"),
	}, nil
}

func stringField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return fallback
	}
	return s
}

// decimalField accepts native numbers and numeric strings, in that order of
// preference; decimal.Decimal's UnmarshalJSON covers both shapes. Anything
// else decodes to zero.
func decimalField(fields map[string]json.RawMessage, key string) decimal.Decimal {
	raw, ok := fields[key]
	if !ok {
		return decimal.Decimal{}
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Decimal{}
	}
	return d
}

func intField(fields map[string]json.RawMessage, key string) int64 {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return n
}
