package web

import (
	"net/http"
	"time"

	dlgauth "github.com/nginx-modules/nginx-dlg-auth"
	"github.com/nginx-modules/nginx-dlg-auth/config"
)

// Clock returns the current Unix time. Tests substitute a fixed clock;
// Middleware reads it once per request, matching spec.md §5's "a
// single wall-clock read per invocation".
type Clock func() int64

func systemClock() int64 { return time.Now().Unix() }

// Middleware adapts a *config.Location into standard net/http
// middleware: it runs dlgauth.Handle against the incoming request,
// writes the terminal response itself on denial, and otherwise
// removes the Authorization header (the ticket must not reach the
// upstream handler) before calling next.
//
// Unlike the nginx module this is descended from, net/http's
// http.Header exposes a real Del, so ALLOW does a true removal rather
// than the rename-to-harmless-name workaround the C module needed.
func Middleware(loc *config.Location, next http.Handler) http.Handler {
	return MiddlewareWithClock(loc, systemClock, next)
}

// MiddlewareWithClock is Middleware with an injectable Clock, for
// deterministic tests.
func MiddlewareWithClock(loc *config.Location, clock Clock, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := dlgauth.Request{
			Method:        r.Method,
			Path:          r.URL.RequestURI(),
			HostHeader:    r.Host,
			TLS:           r.TLS != nil,
			Authorization: r.Header.Get("Authorization"),
		}

		outcome, result := dlgauth.Handle(req, loc, clock())

		values := &Values{
			Client:    result.Client,
			Expires:   result.Expires,
			ClockSkew: result.ClockSkew,
		}
		r = r.WithContext(newValuesContext(r.Context(), values))

		switch outcome {
		case dlgauth.OutcomeDecline:
			next.ServeHTTP(w, r)
			return
		case dlgauth.OutcomeAllow:
			r.Header.Del("Authorization")
			next.ServeHTTP(w, r)
			return
		default: // dlgauth.OutcomeDeny
			writeDenial(w, r, loc, result)
		}
	})
}

// writeDenial renders a Result that carries a terminal HTTP response,
// logging the reason the same way sendRequestProblem does for the
// rest of this package's handlers.
func writeDenial(w http.ResponseWriter, r *http.Request, loc *config.Location, result dlgauth.Result) {
	if result.Challenge != "" {
		w.Header().Set("WWW-Authenticate", result.Challenge)
	}

	status := result.Kind.HTTPStatus()
	reason := result.Err
	if reason == nil {
		reason = denialReason{kind: result.Kind}
	}

	logRequestProblem(r, status, reason)
	JSONError(w, reason.Error(), status)
}

// denialReason gives a Result with no underlying error (e.g.
// ScopeDenied, UnsafeMethodDenied) a stable, human-readable message
// for logging and the response body.
type denialReason struct {
	kind dlgauth.Kind
}

func (d denialReason) Error() string {
	return "request denied: " + d.kind.String()
}
