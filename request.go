package dlgauth

// Request is the host-agnostic view of an inbound HTTP request that
// Authenticate needs. A net/http host fills this in from *http.Request
// (see web.Middleware); any other host (an nginx-style module, a
// different framework) can do the same.
type Request struct {
	Method        string
	Path          string // raw request target, including query
	HostHeader    string // the Host header, used if no override is configured
	TLS           bool   // connection property, for default port selection
	Authorization string // raw Authorization header value, "" if absent
}

// Outcome is the top-level decision Handle returns, matching spec.md
// §4.1's "ALLOW, DECLINE, or a terminal HTTP response".
type Outcome int

const (
	// OutcomeDecline means the filter does not apply; the host should
	// proceed as if it were never invoked.
	OutcomeDecline Outcome = iota
	// OutcomeAllow means the request is authenticated and authorized;
	// the host should rename/strip the Authorization header and
	// proceed.
	OutcomeAllow
	// OutcomeDeny means the host must write the terminal response
	// described by Result (status code, optional WWW-Authenticate
	// challenge).
	OutcomeDeny
)

// Result carries the decision detail: the taxonomy Kind, an optional
// WWW-Authenticate challenge value, and the three per-request values
// spec.md §4.1/§6 says should be published downstream once they
// become known during the pipeline (a later failure does not erase
// values a prior step already computed).
type Result struct {
	Kind      Kind
	Challenge string // WWW-Authenticate header value, "" if none

	Client    string
	Expires   string
	ClockSkew string

	Err error // wrapped cause, for logging; nil for NotApplicable/OK
}
