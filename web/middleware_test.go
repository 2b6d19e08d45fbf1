package web

import (
	"crypto"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nginx-modules/nginx-dlg-auth/config"
	"github.com/nginx-modules/nginx-dlg-auth/hawk"
	"github.com/nginx-modules/nginx-dlg-auth/sealed"
)

func sealTestTicket(t *testing.T, password []byte, exp int64) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"client":        "c1",
		"pwd":           "k",
		"hawkAlgorithm": "sha256",
		"exp":           exp,
		"rw":            true,
		"scope":         []string{"api"},
	})
	require.NoError(t, err)
	s, err := sealed.Seal(data, password)
	require.NoError(t, err)
	return s
}

func TestMiddlewareAllowsValidRequestAndStripsAuthorization(t *testing.T) {
	password := []byte("seal-pw")
	now := int64(1471900000)

	id := sealTestTicket(t, password, now+60)

	loc := &config.Location{}
	loc.SetRealm("api")
	require.NoError(t, loc.SetSinglePassword(password))
	loc.Merge(nil)

	rv := hawk.RequestView{Method: "GET", Path: "/storage", Host: "example.com", Port: "443"}
	mac, err := hawk.MAC(crypto.SHA256, []byte("k"), now, "n1", rv, "", "")
	require.NoError(t, err)

	var sawAuth string
	var client string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		if v, ok := ValuesFromContext(r.Context()); ok {
			client = v.Client
		}
		w.WriteHeader(http.StatusOK)
	})

	clock := func() int64 { return now }
	handler := MiddlewareWithClock(loc, clock, next)

	req := httptest.NewRequest("GET", "https://example.com/storage", nil)
	req.TLS = &tls.ConnectionState{}
	req.Header.Set("Authorization", `Hawk id="`+id+`", ts="`+strconv.FormatInt(now, 10)+`", nonce="n1", mac="`+mac+`"`)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", sawAuth)
	assert.Equal(t, "c1", client)
}

func TestMiddlewareDeniesMissingCredential(t *testing.T) {
	loc := &config.Location{}
	loc.SetRealm("api")
	require.NoError(t, loc.SetSinglePassword([]byte("pw")))
	loc.Merge(nil)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	handler := Middleware(loc, next)

	req := httptest.NewRequest("GET", "http://example.com/storage", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), `realm="api"`)
}

func TestMiddlewareDeclinesWhenRealmOff(t *testing.T) {
	loc := &config.Location{}
	loc.SetRealm(config.Off)
	loc.Merge(nil)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(loc, next)
	req := httptest.NewRequest("GET", "http://example.com/storage", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}
