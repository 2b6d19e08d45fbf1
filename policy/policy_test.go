package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nginx-modules/nginx-dlg-auth/ticket"
)

func TestIsUnsafeMethod(t *testing.T) {
	assert.False(t, IsUnsafeMethod("GET"))
	assert.False(t, IsUnsafeMethod("HEAD"))
	assert.False(t, IsUnsafeMethod("OPTIONS"))
	assert.False(t, IsUnsafeMethod("PROPFIND"))
	assert.True(t, IsUnsafeMethod("POST"))
	assert.True(t, IsUnsafeMethod("PUT"))
	assert.True(t, IsUnsafeMethod("DELETE"))
}

func TestAuthorizeMethod(t *testing.T) {
	roTicket := &ticket.Ticket{RW: false}
	rwTicket := &ticket.Ticket{RW: true}

	assert.True(t, AuthorizeMethod("GET", roTicket))
	assert.False(t, AuthorizeMethod("POST", roTicket))
	assert.True(t, AuthorizeMethod("POST", rwTicket))
}

func TestHasScope(t *testing.T) {
	tk := &ticket.Ticket{Realms: []string{"api", "admin"}}
	assert.True(t, HasScope("example.com", "api", tk))
	assert.False(t, HasScope("example.com", "billing", tk))
}

func TestExpired(t *testing.T) {
	tk := &ticket.Ticket{Exp: 1000}
	assert.True(t, Expired(tk, 1001))
	assert.False(t, Expired(tk, 999))
	assert.False(t, Expired(tk, 1000))
}
