/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package digest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const objectString = "[object Object]"

// Stringify renders a field value the way it is embedded into the salted field string.
// Numbers use the shortest round trip form with exponents only outside [1e-6, 1e21),
// arrays are comma joined and objects render as "[object Object]".
func Stringify(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return formatNumber(t)
	case float32:
		return formatNumber(float64(t))
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return "", fmt.Errorf("number %q: %w", t, err)
		}

		return formatNumber(f)
	case []interface{}:
		parts := make([]string, len(t))

		for i, e := range t {
			if e == nil {
				continue
			}

			s, err := Stringify(e)
			if err != nil {
				return "", err
			}

			parts[i] = s
		}

		return strings.Join(parts, ","), nil
	case map[string]interface{}:
		return objectString, nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported number %v", f)
	}

	if f == 0 {
		return "0", nil
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)

	// Go pads the exponent to two digits: 1e-07.
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")

	return mant + "e" + sign + digits, nil
}

const hexDigits = "0123456789abcdef"

// appendQuoted appends s as a JSON string literal using the minimal escaping of
// ECMAScript JSON.stringify: quote, backslash and control characters only.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')

	for i := 0; i < len(s); {
		c := s[i]

		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				dst = append(dst, "\ufffd"...)
			} else {
				dst = append(dst, s[i:i+size]...)
			}

			i += size

			continue
		}

		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			} else {
				dst = append(dst, c)
			}
		}

		i++
	}

	return append(dst, '"')
}
