package redact

import (
	"math"
	"net/url"
	"strings"
)

// String masks the middle of a secret, keeping roughly a quarter of each end.
func String(s string) string {
	l := len(s)

	var flag int
	if l%4 != 0 {
		flag = 1
	}

	return s[0:int(math.Floor(float64(l)*.25))] +
		strings.Repeat("*", int(math.RoundToEven(float64(l)*.5))+(1&flag)) +
		s[int(math.Floor(float64(l)*.75))+(1&flag):]
}

// URL masks every query parameter value of a signed URL so resolved CDN
// locations can be logged without leaking their signature tokens. The raw
// query is edited in place to keep parameter order and spare the mask from
// percent-encoding.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if nil != err {
		return String(raw)
	}

	if u.RawQuery == "" {
		return u.String()
	}

	pairs := strings.Split(u.RawQuery, "&")
	for i, pair := range pairs {
		if k, v, ok := strings.Cut(pair, "="); ok && v != "" {
			pairs[i] = k + "=" + String(v)
		}
	}
	u.RawQuery = strings.Join(pairs, "&")

	return u.String()
}
