package dsn

import (
	"math"
	"strconv"
	"strings"
)

type coercion int

const (
	passthrough coercion = iota
	toBool
	toInt
)

// coercions lists the option names whose values aren't plain strings.
// Everything else is assigned as written.
var coercions = map[string]coercion{
	"AllowEmpty":            toBool,
	"SMTPAutoTLS":           toBool,
	"SMTPKeepAlive":         toBool,
	"SingleTo":              toBool,
	"UseSendmailOptions":    toBool,
	"do_verp":               toBool,
	"DKIM_copyHeaderFields": toBool,
	"Priority":              toInt,
	"SMTPDebug":             toInt,
	"WordWrap":              toInt,
	"Timeout":               toInt,
}

func coerce(key, raw string) interface{} {
	switch coercions[key] {
	case toBool:
		return weakBool(raw)
	case toInt:
		return weakInt(raw)
	default:
		return raw
	}
}

func weakBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}

func weakInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign = s[:1]
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		// Only a range error is possible with a pure digit run
		if sign == "-" {
			return math.MinInt
		}
		return math.MaxInt
	}
	return n
}
