package chatware

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when the input is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Inspector examines raw bytes and returns a View for field queries.
// Events that are not typed Telegram values are encoded to JSON and read
// through the chain's Inspector.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View provides format-agnostic field access for chat id extraction and
// discriminator matching.
type View interface {
	// HasField returns true if the path exists and is not null.
	HasField(path string) bool

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetInt returns the integer value at path, or false if not found or
	// not an integer. Numeric strings and floats without a fraction are
	// accepted.
	GetInt(path string) (int64, bool)

	// GetBytes returns the raw bytes at path, or false if not found.
	// For JSON, this returns the raw JSON value (including quotes for strings).
	GetBytes(path string) ([]byte, bool)
}

// JSONInspector returns an Inspector that uses gjson for field access.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{raw: raw}, nil
}

type jsonView struct {
	raw []byte
}

func (v jsonView) get(path string) (gjson.Result, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() || r.Type == gjson.Null {
		return r, false
	}
	return r, true
}

func (v jsonView) HasField(path string) bool {
	_, ok := v.get(path)
	return ok
}

func (v jsonView) GetString(path string) (string, bool) {
	r, ok := v.get(path)
	if !ok || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

func (v jsonView) GetInt(path string) (int64, bool) {
	r, ok := v.get(path)
	if !ok {
		return 0, false
	}
	switch r.Type {
	case gjson.Number:
		if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return n, true
		}
		f := r.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case gjson.String:
		n, err := strconv.ParseInt(r.Str, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (v jsonView) GetBytes(path string) ([]byte, bool) {
	r, ok := v.get(path)
	if !ok {
		return nil, false
	}
	return []byte(r.Raw), true
}
