package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindBoolean
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single product attribute as stored by the catalog. The zero
// Value is Missing.
type Value struct {
	kind Kind
	num  float64
	flag bool
	text string
}

func Missing() Value { return Value{} }

func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

func Bool(b bool) Value { return Value{kind: KindBoolean, flag: b} }

// Text returns a Text value. An empty string is Missing.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Bool reports the flag and whether the value is a Boolean.
func (v Value) Bool() (bool, bool) { return v.flag, v.kind == KindBoolean }

// Float coerces the value to a finite number. Numeric text is accepted;
// booleans, missing values and other text are not.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case KindText:
		return parseFinite(v.text)
	default:
		return 0, false
	}
}

// Key is the stringified raw value used to look up scoring maps. Numeric
// text is canonicalized so "08" and 8 share the key "8".
func (v Value) Key() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindText:
		if f, ok := parseFinite(v.text); ok {
			return formatNumber(f)
		}
		return v.text
	default:
		return ""
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	case KindText:
		return v.text
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.num)), nil
	case KindBoolean:
		return []byte(strconv.FormatBool(v.flag)), nil
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Missing()
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case '{', '[':
		// Nested documents are kept verbatim; they never coerce to a number.
		*v = Text(string(data))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
