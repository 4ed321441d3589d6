package streamconfig

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Patch is a merge-update request keyed by StreamConfig JSON field names.
// Values are raw JSON so each field can be coerced by its own rule.
type Patch map[string]json.RawMessage

// PatchFromStrings builds a Patch whose values are all JSON strings,
// as received from form posts or "key=value" command-line arguments.
// Typed fields are coerced from the string form on apply.
func PatchFromStrings(kv map[string]string) Patch {
	p := make(Patch, len(kv))
	for k, v := range kv {
		raw, _ := json.Marshal(v) // marshalling a string cannot fail
		p[k] = raw
	}
	return p
}

type fieldKind int

const (
	intField fieldKind = iota
	floatField
	stringField
)

type field struct {
	name string
	kind fieldKind
	ptr  func(c *StreamConfig) any // *int | *float64 | *string
}

// fields is the known field set, in declaration order.
// Apply walks it in this order so the first reported error is stable.
var fields = []field{
	{"bitrate", intField, func(c *StreamConfig) any { return &c.Bitrate }},
	{"denoise", stringField, func(c *StreamConfig) any { return &c.Denoise }},
	{"codec", stringField, func(c *StreamConfig) any { return &c.Codec }},
	{"libav_format", stringField, func(c *StreamConfig) any { return &c.LibavFormat }},
	{"profile", stringField, func(c *StreamConfig) any { return &c.Profile }},
	{"hdr", stringField, func(c *StreamConfig) any { return &c.HDR }},
	{"level", stringField, func(c *StreamConfig) any { return &c.Level }},
	{"framerate", intField, func(c *StreamConfig) any { return &c.Framerate }},
	{"width", intField, func(c *StreamConfig) any { return &c.Width }},
	{"height", intField, func(c *StreamConfig) any { return &c.Height }},
	{"intra", intField, func(c *StreamConfig) any { return &c.Intra }},
	{"av_sync", intField, func(c *StreamConfig) any { return &c.AVSync }},
	{"awb", stringField, func(c *StreamConfig) any { return &c.AWB }},
	{"rtsp_host", stringField, func(c *StreamConfig) any { return &c.RTSPHost }},
	{"rtsp_port", intField, func(c *StreamConfig) any { return &c.RTSPPort }},
	{"rtsp_path", stringField, func(c *StreamConfig) any { return &c.RTSPPath }},
	{"nice", intField, func(c *StreamConfig) any { return &c.Nice }},
	{"sharpness", floatField, func(c *StreamConfig) any { return &c.Sharpness }},
	{"contrast", floatField, func(c *StreamConfig) any { return &c.Contrast }},
	{"brightness", floatField, func(c *StreamConfig) any { return &c.Brightness }},
	{"saturation", floatField, func(c *StreamConfig) any { return &c.Saturation }},
	{"exposure", stringField, func(c *StreamConfig) any { return &c.Exposure }},
}

// FieldNames returns the known field names in declaration order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// FieldValue is a field name with its current value rendered as text.
type FieldValue struct {
	Name  string
	Value string
}

// Values returns every field of c as text, in declaration order.
// The text form round-trips through PatchFromStrings.
func (c StreamConfig) Values() []FieldValue {
	out := make([]FieldValue, len(fields))
	for i, f := range fields {
		var v string
		switch p := f.ptr(&c).(type) {
		case *int:
			v = strconv.Itoa(*p)
		case *float64:
			v = strconv.FormatFloat(*p, 'f', -1, 64)
		case *string:
			v = *p
		}
		out[i] = FieldValue{Name: f.name, Value: v}
	}
	return out
}

// Apply merges p into base and returns the result.
// Keys outside the known field set are ignored. base is never modified:
// on error the zero StreamConfig is returned together with a *ValidationError.
func (p Patch) Apply(base StreamConfig) (StreamConfig, error) {
	next := base
	for _, f := range fields {
		raw, ok := p[f.name]
		if !ok {
			continue
		}

		var err error
		switch f.kind {
		case intField:
			err = setInt(f.ptr(&next).(*int), raw)
		case floatField:
			err = setFloat(f.ptr(&next).(*float64), raw)
		case stringField:
			err = setString(f.ptr(&next).(*string), raw)
		}
		if err != nil {
			return StreamConfig{}, &ValidationError{Field: f.name, Value: string(bytes.TrimSpace(raw)), Reason: err.Error()}
		}
	}
	return next, nil
}

// --- coercion ----------------------------------------------------------------

type rawKind int

const (
	rawInvalid rawKind = iota
	rawString
	rawNumber
	rawOther // bool, null, object, array
)

// classify inspects the first significant byte of a JSON value.
func classify(raw json.RawMessage) (rawKind, []byte) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return rawInvalid, b
	}
	switch c := b[0]; {
	case c == '"':
		return rawString, b
	case c == '-' || (c >= '0' && c <= '9'):
		return rawNumber, b
	case c == 't' || c == 'f' || c == 'n' || c == '{' || c == '[':
		return rawOther, b
	}
	return rawInvalid, b
}

func unquote(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", errMalformed
	}
	return s, nil
}

func setInt(dst *int, raw json.RawMessage) error {
	kind, b := classify(raw)
	switch kind {
	case rawString:
		s, err := unquote(b)
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, strconv.IntSize)
		if err != nil {
			return errNotInteger
		}
		*dst = int(n)
		return nil
	case rawNumber:
		if n, err := strconv.ParseInt(string(b), 10, strconv.IntSize); err == nil {
			*dst = int(n)
			return nil
		}
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return errNotInteger
		}
		f = math.Trunc(f)
		if f < float64(math.MinInt) || f >= float64(math.MaxInt) {
			return errOutOfRange
		}
		*dst = int(f)
		return nil
	case rawOther:
		return errWrongType("integer")
	}
	return errMalformed
}

func setFloat(dst *float64, raw json.RawMessage) error {
	kind, b := classify(raw)
	var text string
	switch kind {
	case rawString:
		s, err := unquote(b)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(s)
	case rawNumber:
		text = string(b)
	case rawOther:
		return errWrongType("number")
	default:
		return errMalformed
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return errNotNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errNotFinite
	}
	*dst = f
	return nil
}

func setString(dst *string, raw json.RawMessage) error {
	kind, b := classify(raw)
	switch kind {
	case rawString:
		s, err := unquote(b)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	case rawNumber:
		// keep the literal, e.g. level 4.1 => "4.1"
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return errMalformed
		}
		*dst = n.String()
		return nil
	case rawOther:
		return errWrongType("string")
	}
	return errMalformed
}

type coerceError string

func (e coerceError) Error() string { return string(e) }

const (
	errMalformed  = coerceError("malformed JSON value")
	errNotInteger = coerceError("not an integer")
	errNotNumber  = coerceError("not a number")
	errNotFinite  = coerceError("must be a finite number")
	errOutOfRange = coerceError("integer out of range")
)

func errWrongType(want string) error {
	return coerceError("expected " + want)
}
