package dlgauth

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/nginx-modules/nginx-dlg-auth/config"
	"github.com/nginx-modules/nginx-dlg-auth/hawk"
	"github.com/nginx-modules/nginx-dlg-auth/policy"
	"github.com/nginx-modules/nginx-dlg-auth/sealed"
	"github.com/nginx-modules/nginx-dlg-auth/ticket"
)

// Handle implements spec.md §4.1's dispatch rules 1-4: decline when
// the filter does not apply, challenge when no credential is present,
// and otherwise delegate to Authenticate. now is a single
// monotonic-wall-clock read taken once by the caller (spec.md §5
// "Clock"), so skew and expiry decisions stay consistent within one
// invocation.
func Handle(req Request, loc *config.Location, now int64) (Outcome, Result) {
	if loc.Realm == "" || loc.Realm == config.Off {
		return OutcomeDecline, Result{Kind: KindNotApplicable}
	}

	if req.Authorization == "" {
		return OutcomeDeny, Result{
			Kind:      KindMissingCredential,
			Challenge: hawk.SimpleChallenge(loc.Realm),
		}
	}

	return authenticate(req, loc, now)
}

// authenticate is spec.md §4.2's Authenticate, steps 1-12. Ordering
// is deliberate: the ticket is always unsealed (step 4) before its
// key material is trusted for MAC verification (step 7) — the filter
// never trusts header-claimed algorithms or keys.
func authenticate(req Request, loc *config.Location, now int64) (Outcome, Result) {
	// Step 1: derive canonical host/port.
	host, port := loc.DetermineHostAndPort(req.HostHeader, req.TLS)

	// Step 2: parse the Authorization header.
	header, err := hawk.ParseAuthorization(req.Authorization)
	if err != nil {
		switch errors.Cause(err) {
		case hawk.ErrBadScheme:
			return OutcomeDeny, Result{
				Kind:      KindBadScheme,
				Challenge: hawk.SimpleChallenge(loc.Realm),
				Err:       err,
			}
		case hawk.ErrParse:
			return OutcomeDeny, Result{Kind: KindMalformedHeader, Err: err}
		default:
			return OutcomeDeny, Result{Kind: KindInternal, Err: err}
		}
	}

	// Step 3: size-check the sealed payload before doing any
	// decryption work.
	idLen := len(header.ID)
	if sealed.RequiredEncryptionWorkspaceLen(idLen) > sealed.MaxEncryptionWorkspace ||
		sealed.RequiredUnsealOutputLen(idLen) > sealed.MaxUnsealOutput {
		return OutcomeDeny, Result{Kind: KindOversizedPayload}
	}

	// Step 4: unseal the ticket.
	plaintext, err := sealed.Unseal(header.ID, loc.PasswordTable, loc.SinglePassword)
	if err != nil {
		return OutcomeDeny, Result{Kind: KindUnsealFailed, Err: err}
	}

	// Step 5: parse ticket JSON.
	tk, err := ticket.Parse(plaintext)
	if err != nil {
		return OutcomeDeny, Result{Kind: KindBadTicketJSON, Err: err}
	}

	// Step 6: publish client and expires.
	client := tk.Client
	expires := strconv.FormatUint(tk.Exp, 10)

	// Step 7: MAC verification.
	alg := tk.HawkAlgorithm.Hash()
	rv := hawk.RequestView{Method: req.Method, Path: req.Path, Host: host, Port: port}
	valid, err := hawk.Verify(alg, []byte(tk.Pwd), header, rv)
	if err != nil {
		return OutcomeDeny, Result{Kind: KindInternal, Client: client, Expires: expires, Err: err}
	}
	if !valid {
		return OutcomeDeny, Result{
			Kind:      KindBadSignature,
			Challenge: hawk.SimpleChallenge(loc.Realm),
			Client:    client,
			Expires:   expires,
		}
	}

	// Step 8: clock-skew check.
	skew := now - header.TS
	clockSkew := strconv.FormatInt(skew, 10)
	if absInt64(skew) > int64(loc.AllowedClockSkew) {
		challenge, err := hawk.TimedChallenge(loc.Realm, alg, []byte(tk.Pwd), now)
		if err != nil {
			return OutcomeDeny, Result{Kind: KindInternal, Client: client, Expires: expires, ClockSkew: clockSkew, Err: err}
		}
		return OutcomeDeny, Result{
			Kind:      KindClockSkew,
			Challenge: challenge,
			Client:    client,
			Expires:   expires,
			ClockSkew: clockSkew,
		}
	}

	// Step 9: expiry check.
	if policy.Expired(tk, now) {
		return OutcomeDeny, Result{
			Kind:      KindExpired,
			Challenge: hawk.SimpleChallenge(loc.Realm),
			Client:    client,
			Expires:   expires,
			ClockSkew: clockSkew,
		}
	}

	// Step 10: method authorization.
	if !policy.AuthorizeMethod(req.Method, tk) {
		return OutcomeDeny, Result{
			Kind:      KindUnsafeMethodDenied,
			Client:    client,
			Expires:   expires,
			ClockSkew: clockSkew,
		}
	}

	// Step 11: scope check.
	if !policy.HasScope(host, loc.Realm, tk) {
		return OutcomeDeny, Result{
			Kind:      KindScopeDenied,
			Challenge: hawk.SimpleChallenge(loc.Realm),
			Client:    client,
			Expires:   expires,
			ClockSkew: clockSkew,
		}
	}

	// Step 12: OK.
	return OutcomeAllow, Result{
		Kind:      KindOK,
		Client:    client,
		Expires:   expires,
		ClockSkew: clockSkew,
	}
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
