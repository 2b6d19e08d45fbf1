// Package ticket decodes the sealed authorization grant a client
// presents as the Hawk "id" parameter. It is a direct translation of
// ticket.c's bounded JSON walk into Go, using encoding/json's
// streaming Token() API as the token-offset/length/type source that
// ticket.c got from jsmn.
package ticket

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// MaxRealms bounds the number of scopes a ticket may carry. ticket.c
// calls this MAX_REALMS; 8 is plenty for any deployed ticket and keeps
// the token budget within MaxTokens.
const MaxRealms = 8

// MaxTokens bounds the total number of JSON tokens Parse will walk, as
// encoding/json's Token() counts them: the root object's '{' and '}',
// one token per top-level key, one per scalar value, and for the scope
// array its '[' and ']' plus up to MaxRealms elements. A ticket with
// all eight recognized keys and MaxRealms realms takes exactly 27.
const MaxTokens = 27

// Errors, one per ticket.c TicketError value. Callers type-assert with
// errors.Is against these sentinels; the HTTP mapping layer (dlgauth
// package) maps all of them to a 400 response.
var (
	ErrJSONInvalid          = errors.New("ticket: JSON corrupted")
	ErrTooManyTokens        = errors.New("ticket: too many JSON tokens")
	ErrTruncated            = errors.New("ticket: JSON truncated")
	ErrMissingExpectedToken = errors.New("ticket: missing expected token")
	ErrUnexpectedTokenType  = errors.New("ticket: unexpected token type")
	ErrUnexpectedTokenName  = errors.New("ticket: unexpected token name")
	ErrBadTimeValue         = errors.New("ticket: unable to parse time value")
	ErrTooManyRealms        = errors.New("ticket: too many realms")
	ErrUnknownAlgorithm     = errors.New("ticket: unknown hawk algorithm")
)

// Ticket is the decrypted authorization grant embedded in a request's
// Hawk id. Byte-string fields are represented as Go strings; a missing
// optional field decodes to the empty string, same as ticket_init's
// memset-to-zero.
type Ticket struct {
	Client        string
	User          string
	Owner         string
	Pwd           string
	HawkAlgorithm Algorithm
	Exp           uint64
	RW            bool
	Realms        []string
}

// HasRealm reports whether realm is among the ticket's granted scopes.
// It is the Go equivalent of ticket_has_realm; see the policy package
// for how it combines with the resource host.
func (t *Ticket) HasRealm(realm string) bool {
	for _, r := range t.Realms {
		if r == realm {
			return true
		}
	}
	return false
}

// Parse decodes a ticket from decrypted JSON, enforcing the same
// structural bounds and field dispatch as ticket_from_string: the
// recognized top-level key set is client, pwd, hawkAlgorithm, owner,
// user, exp, rw, scope/scopes (synonyms); anything else is
// ErrUnexpectedTokenName, and a duplicate key overwrites (last wins).
func Parse(data []byte) (*Ticket, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tokens := 0

	next := func() (json.Token, error) {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrTruncated
		}
		if err != nil {
			return nil, errors.Wrap(ErrJSONInvalid, err.Error())
		}
		tokens++
		if tokens > MaxTokens {
			return nil, ErrTooManyTokens
		}
		return tok, nil
	}

	root, err := next()
	if err != nil {
		return nil, err
	}
	if d, ok := root.(json.Delim); !ok || d != '{' {
		return nil, ErrUnexpectedTokenType
	}

	t := &Ticket{}

	for dec.More() {
		keyTok, err := next()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, ErrUnexpectedTokenType
		}

		switch key {
		case "client":
			if t.Client, err = parseString(next); err != nil {
				return nil, err
			}
		case "pwd":
			if t.Pwd, err = parseString(next); err != nil {
				return nil, err
			}
		case "owner":
			if t.Owner, err = parseString(next); err != nil {
				return nil, err
			}
		case "user":
			if t.User, err = parseString(next); err != nil {
				return nil, err
			}
		case "hawkAlgorithm":
			name, err := parseString(next)
			if err != nil {
				return nil, err
			}
			algo, ok := algorithmByName(name)
			if !ok {
				return nil, ErrUnknownAlgorithm
			}
			t.HawkAlgorithm = algo
		case "exp":
			exp, err := parseExp(next)
			if err != nil {
				return nil, err
			}
			t.Exp = exp
		case "rw":
			rw, err := parseRW(next)
			if err != nil {
				return nil, err
			}
			t.RW = rw
		case "scope", "scopes":
			realms, err := parseRealms(next)
			if err != nil {
				return nil, err
			}
			t.Realms = realms
		default:
			return nil, ErrUnexpectedTokenName
		}
	}

	// Consume the closing '}'.
	if _, err := next(); err != nil {
		return nil, err
	}

	if t.HawkAlgorithm == AlgorithmUnknown {
		return nil, ErrUnknownAlgorithm
	}

	return t, nil
}

type tokenFn func() (json.Token, error)

// parseString requires the next token to be a JSON string, mirroring
// do_string's zero-copy slice (here: a Go string view of the decoded
// value — parsing duplicates the bytes, but callers never see that).
func parseString(next tokenFn) (string, error) {
	tok, err := next()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", ErrUnexpectedTokenType
	}
	return s, nil
}

// parseExp requires decimal digits only, matching do_time's manual
// digit walk (it rejects floats, signs, and whitespace).
func parseExp(next tokenFn) (uint64, error) {
	tok, err := next()
	if err != nil {
		return 0, err
	}
	n, ok := tok.(json.Number)
	if !ok {
		return 0, ErrUnexpectedTokenType
	}
	s := n.String()
	if s == "" {
		return 0, ErrBadTimeValue
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrBadTimeValue
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrBadTimeValue
	}
	return v, nil
}

// parseRW accepts the literal true as 1; anything else (including a
// missing field) is the safe false default, matching do_rw.
func parseRW(next tokenFn) (bool, error) {
	tok, err := next()
	if err != nil {
		return false, err
	}
	b, ok := tok.(bool)
	if !ok {
		// non-boolean rw is still a safe false, not an error: do_rw
		// only special-cases the JSON_PRIMITIVE "true" token and
		// falls through to the zero value for everything else.
		return false, nil
	}
	return b, nil
}

// parseRealms requires a JSON array of strings no longer than
// MaxRealms, matching do_scope.
func parseRealms(next tokenFn) ([]string, error) {
	tok, err := next()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '[' {
		return nil, ErrUnexpectedTokenType
	}

	var realms []string
	for {
		peek, err := next()
		if err != nil {
			return nil, err
		}
		if closing, ok := peek.(json.Delim); ok && closing == ']' {
			break
		}
		s, ok := peek.(string)
		if !ok {
			return nil, ErrUnexpectedTokenType
		}
		if len(realms) >= MaxRealms {
			return nil, ErrTooManyRealms
		}
		realms = append(realms, s)
	}
	return realms, nil
}
