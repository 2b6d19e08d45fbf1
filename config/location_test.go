package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeInheritsUnsetFields(t *testing.T) {
	parent := &Location{}
	parent.SetRealm("api")
	require.NoError(t, parent.SetSinglePassword([]byte("pw")))
	parent.SetAllowedClockSkew(5)
	parent.Merge(nil)

	child := &Location{}
	child.Merge(parent)

	assert.Equal(t, "api", child.Realm)
	assert.Equal(t, []byte("pw"), child.SinglePassword)
	assert.EqualValues(t, 5, child.AllowedClockSkew)
}

func TestMergeChildOverridesWin(t *testing.T) {
	parent := &Location{}
	parent.SetRealm("api")
	parent.Merge(nil)

	child := &Location{}
	child.SetRealm("admin")
	child.Merge(parent)

	assert.Equal(t, "admin", child.Realm)
}

func TestMergeDefaultClockSkew(t *testing.T) {
	l := &Location{}
	l.Merge(nil)
	assert.EqualValues(t, DefaultAllowedClockSkew, l.AllowedClockSkew)
}

func TestValidateRequiresPassword(t *testing.T) {
	l := &Location{}
	l.SetRealm("api")
	err := l.Validate()
	assert.Error(t, err)
}

func TestValidateOffSkipsChecks(t *testing.T) {
	l := &Location{}
	l.SetRealm(Off)
	assert.NoError(t, l.Validate())
}

func TestValidateRejectsNonDigitPort(t *testing.T) {
	l := &Location{}
	l.SetRealm("api")
	require.NoError(t, l.SetSinglePassword([]byte("pw")))
	l.SetPortOverride("80x")
	assert.Error(t, l.Validate())
}

func TestSinglePasswordAndTableMutuallyExclusive(t *testing.T) {
	l := &Location{}
	require.NoError(t, l.SetSinglePassword([]byte("pw")))
	err := l.AddPasswordTableEntry("id1", []byte("pw2"))
	assert.Error(t, err)
}

func TestDetermineHostAndPortFallsBackToHostHeader(t *testing.T) {
	l := &Location{}
	host, port := l.DetermineHostAndPort("example.com:8080", false)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "8080", port)
}

func TestDetermineHostAndPortSchemeDefault(t *testing.T) {
	l := &Location{}
	host, port := l.DetermineHostAndPort("example.com", true)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "443", port)

	host, port = l.DetermineHostAndPort("example.com", false)
	assert.Equal(t, "example.com", host)
	assert.Equal(t, "80", port)
}

func TestDetermineHostAndPortOverridesApplyIndividually(t *testing.T) {
	l := &Location{}
	l.SetHostOverride("canonical.example.com")
	host, port := l.DetermineHostAndPort("example.com:9000", false)
	assert.Equal(t, "canonical.example.com", host)
	assert.Equal(t, "9000", port)
}
