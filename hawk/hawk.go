// Package hawk implements the server side of the Hawk-style HTTP
// authentication scheme used by the delegated-ticket filter: parsing
// the Authorization header, computing the canonical MAC, and building
// WWW-Authenticate challenges. It is a ground-up rewrite of the
// canonicalization and MAC rules found in hawkc (nginx_dlg_auth.c /
// the Hawk spec), restyled after go.mozilla.org/hawk's header-parsing
// idiom as used by the teacher's api/context_hawk.go.
package hawk

import (
	"crypto/hmac"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadScheme is returned when the Authorization header's scheme
// token is not "Hawk" (case-insensitive). Per spec this is
// distinguished from a malformed-but-Hawk header because the filter
// responds differently (simple 401 vs 400).
var ErrBadScheme = errors.New("hawk: not a Hawk scheme")

// ErrParse is returned for any other malformed Authorization header:
// missing quotes, missing required parameters, empty value, etc.
var ErrParse = errors.New("hawk: malformed Authorization header")

// Header holds the parsed fields of a Hawk Authorization header.
type Header struct {
	ID    string // carries the sealed ticket
	TS    int64
	Nonce string
	MAC   string
	Hash  string // optional
	Ext   string // optional
}

var requiredParams = []string{"id", "ts", "nonce", "mac"}

// ParseAuthorization parses the raw value of an Authorization header.
// It requires the scheme token "Hawk" (case-insensitive) followed by
// comma-separated key="value" pairs. Unknown keys (app, dlg, or
// anything else) are accepted and ignored, matching the "Recognized
// keys... unknown keys are permitted and ignored" rule in spec.md
// §4.3.
func ParseAuthorization(raw string) (*Header, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrParse
	}

	sp := strings.IndexAny(raw, " \t")
	if sp < 0 {
		return nil, ErrParse
	}
	scheme, rest := raw[:sp], strings.TrimSpace(raw[sp+1:])
	if !strings.EqualFold(scheme, "Hawk") {
		return nil, ErrBadScheme
	}
	if rest == "" {
		return nil, ErrParse
	}

	params, err := parseParams(rest)
	if err != nil {
		return nil, err
	}

	for _, name := range requiredParams {
		if _, ok := params[name]; !ok {
			return nil, ErrParse
		}
	}

	ts, err := strconv.ParseInt(params["ts"], 10, 64)
	if err != nil {
		return nil, ErrParse
	}

	return &Header{
		ID:    params["id"],
		TS:    ts,
		Nonce: params["nonce"],
		MAC:   params["mac"],
		Hash:  params["hash"],
		Ext:   params["ext"],
	}, nil
}

// parseParams splits "key=\"value\", key2=\"value2\"" into a map,
// tolerating arbitrary whitespace around the comma separators, the
// way real Hawk clients (and curl) format the header.
func parseParams(s string) (map[string]string, error) {
	params := make(map[string]string)

	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t,")
		if s == "" {
			break
		}

		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, ErrParse
		}
		key := strings.TrimSpace(s[:eq])
		if key == "" {
			return nil, ErrParse
		}
		s = s[eq+1:]
		if len(s) == 0 || s[0] != '"' {
			return nil, ErrParse
		}
		s = s[1:]

		end := strings.IndexByte(s, '"')
		if end < 0 {
			return nil, ErrParse
		}
		value := s[:end]
		s = s[end+1:]

		params[key] = value
	}

	return params, nil
}

// Equal does a constant-time comparison of two MAC/tsm values to
// avoid timing oracles, per spec.md §9 "Design Notes".
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
