package web

import "context"

// valuesKey is the context.Context key under which the per-request
// published values (spec.md §6) are stored. An unexported key type
// follows the same pattern as go-syncstorage's session key: it keeps
// other packages from colliding with it by accident.
type valuesKey int

var vKey valuesKey = 0

// Values is the set of request-scoped facts the filter publishes once
// it learns them, regardless of whether a later pipeline step goes on
// to deny the request (spec.md §6's "client/expires/clockskew are
// available to the rest of the request once known").
type Values struct {
	Client    string
	Expires   string
	ClockSkew string
}

func newValuesContext(ctx context.Context, v *Values) context.Context {
	return context.WithValue(ctx, vKey, v)
}

// ValuesFromContext recovers the Values a Middleware invocation
// published on the request context, if any. A handler that runs
// behind Middleware can use this to read the authenticated client ID
// without re-parsing headers.
func ValuesFromContext(ctx context.Context) (*Values, bool) {
	v, ok := ctx.Value(vKey).(*Values)
	return v, ok
}
