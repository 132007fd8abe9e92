package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexString accepts any JSON scalar. Strings are trimmed, numbers and bools
// keep their literal text, null and composite values become "".
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		*s = ""
		return nil
	}

	switch x := v.(type) {
	case string:
		*s = FlexString(strings.TrimSpace(x))
	case json.Number:
		*s = FlexString(x.String())
	case bool:
		*s = FlexString(strconv.FormatBool(x))
	default:
		*s = ""
	}
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexInt is a non-negative count. Numbers truncate toward zero, numeric
// strings are parsed, true counts as 1, everything else and negatives are 0.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		*i = 0
		return nil
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			*i = 0
			return nil
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	}

	*i = FlexInt(clampCount(f))
	return nil
}

func (i FlexInt) Int() int { return int(i) }

func clampCount(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	// guests is stored as a 32-bit integer by the SQL backends
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// FlexBool follows truthiness: non-zero numbers and non-empty strings are true,
// except the strings "0", "false", "no" and "off".
type FlexBool bool

func (fb *FlexBool) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		*fb = false
		return nil
	}

	switch x := v.(type) {
	case bool:
		*fb = FlexBool(x)
	case float64:
		*fb = x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "false", "no", "off":
			*fb = false
		default:
			*fb = true
		}
	case nil:
		*fb = false
	default:
		*fb = true
	}
	return nil
}

func (fb FlexBool) Bool() bool { return bool(fb) }
