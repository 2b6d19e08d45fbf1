package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"

	log "github.com/Sirupsen/logrus"
	"github.com/pkg/errors"
)

func init() {
	switch os.Getenv("TEST_LOG_LEVEL") {
	case "fatal":
		log.SetLevel(log.FatalLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}

var (
	// Helps with testing layers of http.Handler
	EchoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			io.Copy(w, r.Body)
		}
		w.WriteHeader(http.StatusOK)
	})

	OKFailHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			cause := errors.New("The Cause")
			sendRequestProblem(w, r, http.StatusBadRequest, errors.Wrap(cause, "The Error"))
		} else {
			w.WriteHeader(http.StatusOK)
		}
	})
)

func request(method, urlStr string, body io.Reader, h http.Handler) *httptest.ResponseRecorder {
	header := make(http.Header)
	header.Set("Accept", "application/json")
	return requestheaders(method, urlStr, body, header, h)
}

func requestheaders(method, urlStr string, body io.Reader, header http.Header, h http.Handler) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, urlStr, body)
	if err != nil {
		panic(err)
	}
	req.Header = header
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "go-tester")
	}

	return sendrequest(req, h)
}

func sendrequest(req *http.Request, h http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	if h == nil {
		panic("Handler required")
	}

	h.ServeHTTP(w, req)
	return w
}
