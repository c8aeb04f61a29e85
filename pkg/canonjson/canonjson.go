// Package canonjson serializes values as RFC 8785 (JCS) canonical JSON:
// object keys sorted by UTF-16 code units at every nesting level, no
// insignificant whitespace, minimal string escaping, and canonical number
// formatting. Two values with the same semantic content always produce
// byte-identical output, which makes SHA-256 of the canonical bytes a stable
// fingerprint across independent runs and implementations.
package canonjson

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Marshal returns the canonical JSON encoding of v. Arbitrary Go values are
// normalized through a json round-trip first, so struct tags apply before
// canonicalization.
func Marshal(v any) ([]byte, error) {
	norm, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeValue(&buf, norm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SumObject returns the lowercase hex SHA-256 of the canonical encoding of v
// together with the canonical bytes themselves.
func SumObject(v any) (string, []byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), b, nil
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonjson: marshal: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("canonjson: normalize: %w", err)
	}
	return out, nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		s, err := canonicalNumber(string(t))
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case string:
		encodeString(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encodeValue(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonjson: unsupported value of type %T", v)
	}
	return nil
}

// lessUTF16 orders keys by their UTF-16 code unit sequences, the sort order
// RFC 8785 section 3.2.3 requires. For ASCII keys this coincides with byte
// order.
func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// encodeString writes s with the minimal escaping RFC 8785 permits: the two
// mandatory escapes, the short control escapes, and \u00XX for the remaining
// control characters. No HTML-safety escaping.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else if r == utf8.RuneError {
				// Invalid UTF-8 input bytes become U+FFFD, matching
				// encoding/json behavior.
				buf.WriteRune(utf8.RuneError)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// canonicalNumber reformats a JSON number literal per the ECMAScript
// Number::toString rules RFC 8785 section 3.2.2.3 mandates. Integral values
// inside the exact float64 range serialize without fraction or exponent.
func canonicalNumber(lit string) (string, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", fmt.Errorf("canonjson: invalid number %q: %w", lit, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.New("canonjson: non-finite numbers are not representable")
	}
	if f == 0 {
		return "0", nil
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	// ECMAScript picks plain decimal for decimal exponents in [-6, 20] and
	// exponent notation outside; Go's 'g' verb cuts over at -4, so the
	// notation choice must be made from the exponent explicitly.
	e := strconv.FormatFloat(f, 'e', -1, 64)
	i := strings.IndexByte(e, 'e')
	exp, err := strconv.Atoi(e[i+1:])
	if err != nil {
		return "", fmt.Errorf("canonjson: invalid number %q: %w", lit, err)
	}
	if exp >= -6 && exp <= 20 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return fixupExponent(e), nil
}

// fixupExponent rewrites Go's exponent notation ("1e-07") into the
// ECMAScript form ("1e-7"): no leading zeros in the exponent and no plus
// sign suppression differences.
func fixupExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i+1:]
	sign := ""
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		if exp[0] == '-' {
			sign = "-"
		} else {
			sign = "+"
		}
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}
