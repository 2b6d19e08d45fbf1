package hawk

import (
	"crypto"
	"crypto/hmac"
	"encoding/base64"
	"fmt"
	"strings"
)

// RequestView is the canonicalized request the MAC is computed over:
// method, raw path (including query), host, and port. It is the Go
// analogue of HawkcContext's method/path/host/port fields, set once by
// the caller from the inbound request and never mutated afterwards.
type RequestView struct {
	Method string
	Path   string
	Host   string
	Port   string
}

// canonical builds the "hawk.1.header" string described in spec.md
// §4.3, one field per line, newline-terminated, host lowercased.
func canonical(ts int64, nonce string, rv RequestView, hash, ext string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "hawk.1.header\n%d\n%s\n%s\n%s\n%s\n%s\n%s\n%s\n",
		ts, nonce, rv.Method, rv.Path, strings.ToLower(rv.Host), rv.Port, hash, ext)
	return []byte(b.String())
}

// MAC computes the base64-encoded HMAC over the canonical request form
// using the given algorithm and key. alg is a crypto.Hash (SHA256 or
// SHA1) resolved from the ticket's hawkAlgorithm.
func MAC(alg crypto.Hash, key []byte, ts int64, nonce string, rv RequestView, hash, ext string) (string, error) {
	if !alg.Available() {
		return "", fmt.Errorf("hawk: algorithm %v unavailable", alg)
	}
	mac := hmac.New(alg.New, key)
	mac.Write(canonical(ts, nonce, rv, hash, ext))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the MAC and compares it in constant time against
// the value supplied in the Authorization header.
func Verify(alg crypto.Hash, key []byte, h *Header, rv RequestView) (bool, error) {
	expected, err := MAC(alg, key, h.TS, h.Nonce, rv, h.Hash, h.Ext)
	if err != nil {
		return false, err
	}
	return Equal(expected, h.MAC), nil
}

// tsMAC computes the "tsm" value used in the timed 401 challenge: an
// HMAC over a fixed timestamp-challenge form, under the same key and
// algorithm that authenticated the request.
func tsMAC(alg crypto.Hash, key []byte, now int64) (string, error) {
	if !alg.Available() {
		return "", fmt.Errorf("hawk: algorithm %v unavailable", alg)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "hawk.1.ts\n%d\n", now)
	mac := hmac.New(alg.New, key)
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
