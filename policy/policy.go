// Package policy evaluates ticket-scoped access rules once a request
// has been authenticated: method authorization (rw flag) and realm
// scope matching (spec.md §4.2 steps 9-11).
package policy

import "github.com/nginx-modules/nginx-dlg-auth/ticket"

// safeMethods mirrors nginx_dlg_auth.c's IS_UNSAFE_METHOD macro: any
// HTTP method not in this set requires ticket.rw == true.
var safeMethods = map[string]bool{
	"GET":      true,
	"HEAD":     true,
	"OPTIONS":  true,
	"PROPFIND": true,
}

// IsUnsafeMethod reports whether method requires a read-write grant.
func IsUnsafeMethod(method string) bool {
	return !safeMethods[method]
}

// AuthorizeMethod enforces spec.md §4.2 step 10: unsafe methods are
// denied unless the ticket grants rw.
func AuthorizeMethod(method string, t *ticket.Ticket) bool {
	if !IsUnsafeMethod(method) {
		return true
	}
	return t.RW
}

// HasScope implements spec.md §4.2 step 11's scope-match predicate.
// The source (ticket_has_scope) is passed the resource host as well
// as the realm, but per spec.md §9's "Scope-match predicate" note the
// minimum enforced obligation is realm ∈ ticket.realms; host is
// accepted here only so a future ticket format that binds realms to
// hosts has somewhere to plug in without changing this function's
// signature, and is otherwise unused — ticket.Realms are treated as
// opaque labels.
func HasScope(host, realm string, t *ticket.Ticket) bool {
	_ = host
	return t.HasRealm(realm)
}

// Expired reports whether the ticket's expiry has passed as of now
// (spec.md §4.2 step 9: ticket.exp < now).
func Expired(t *ticket.Ticket, now int64) bool {
	return int64(t.Exp) < now
}
