// Package document reads and writes persisted figure documents.
//
// Every document carries a "version" field. Decoding always runs the upgrade
// chain first so callers can rely on the current field layout.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/figure-editor/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// CurrentVersion is the document version written by Encode.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for documents whose version is negative,
// not an integer, or newer than CurrentVersion.
var ErrUnsupportedVersion = errors.New("unsupported document version")

// upgradeStep converts a raw document from version from to from+1.
type upgradeStep struct {
	from  int
	apply func(raw map[string]any) error
}

var upgradeSteps = []upgradeStep{
	{from: 0, apply: splitPixelSize},
}

// Version returns the version of a raw document. A missing version is 0.
func Version(raw map[string]any) (int, error) {
	v, ok := raw["version"]
	if !ok || v == nil {
		return 0, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, n.String())
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedVersion, v)
	}
	if f != math.Trunc(f) || f < 0 || f > CurrentVersion {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedVersion, f)
	}
	return int(f), nil
}

// Upgrade returns a copy of raw brought up to CurrentVersion. Upgrading an
// already current document returns an equal copy.
func Upgrade(raw map[string]any) (map[string]any, error) {
	v, err := Version(raw)
	if err != nil {
		return nil, err
	}
	out := cloneValue(raw).(map[string]any)
	for v < CurrentVersion {
		step, ok := findStep(v)
		if !ok {
			return nil, fmt.Errorf("%w: no upgrade from %d", ErrUnsupportedVersion, v)
		}
		if err := step.apply(out); err != nil {
			return nil, fmt.Errorf("upgrading from version %d: %w", v, err)
		}
		v++
		out["version"] = float64(v)
	}
	return out, nil
}

func findStep(from int) (upgradeStep, bool) {
	for _, s := range upgradeSteps {
		if s.from == from {
			return s, true
		}
	}
	return upgradeStep{}, false
}

// splitPixelSize replaces the single pixel_size of version 0 panels with
// pixel_size_x and pixel_size_y.
func splitPixelSize(raw map[string]any) error {
	panels, ok := raw["panels"].([]any)
	if !ok {
		return nil
	}
	for i, p := range panels {
		panel, ok := p.(map[string]any)
		if !ok {
			return fmt.Errorf("panel %d is not an object", i)
		}
		size, ok := panel["pixel_size"]
		if !ok {
			continue
		}
		if _, has := panel["pixel_size_x"]; !has {
			panel["pixel_size_x"] = size
		}
		if _, has := panel["pixel_size_y"]; !has {
			panel["pixel_size_y"] = size
		}
		delete(panel, "pixel_size")
	}
	return nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// Decode parses a JSON document, upgrades it and returns the typed form.
func Decode(data []byte) (*models.FigureDocument, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if raw == nil {
		return nil, errors.New("parsing document: not an object")
	}
	return FromRaw(raw)
}

// FromRaw upgrades a raw document and converts it to the typed form.
func FromRaw(raw map[string]any) (*models.FigureDocument, error) {
	upgraded, err := Upgrade(raw)
	if err != nil {
		return nil, err
	}
	// fileId was numeric in older stores
	if n, ok := upgraded["fileId"].(float64); ok {
		upgraded["fileId"] = strconv.FormatFloat(n, 'f', -1, 64)
	}

	buf, err := json.Marshal(upgraded)
	if err != nil {
		return nil, fmt.Errorf("re-encoding document: %w", err)
	}
	var doc models.FigureDocument
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// Encode serialises doc as JSON, stamping the current version.
func Encode(doc *models.FigureDocument) ([]byte, error) {
	out := *doc
	out.Version = CurrentVersion
	if out.Panels == nil {
		out.Panels = []models.PanelAttrs{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

// EncodeMsgpack serialises doc as msgpack using the JSON field names.
func EncodeMsgpack(doc *models.FigureDocument) ([]byte, error) {
	out := *doc
	out.Version = CurrentVersion

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack is the inverse of EncodeMsgpack.
func DecodeMsgpack(data []byte) (*models.FigureDocument, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var doc models.FigureDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding msgpack: %w", err)
	}
	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return &doc, nil
}
