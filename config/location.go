// Package config holds the per-location policy the filter enforces
// (spec.md §3 LocationConfig) plus the inheritance-merge and
// startup-validation rules nginx applies when combining parent and
// child location blocks (ngx_http_dlg_auth_merge_loc_conf). Directive
// *parsing* (the nginx config-file grammar) is out of scope per
// spec.md §1; callers build a Location directly or through the small
// builder methods below.
package config

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/nginx-modules/nginx-dlg-auth/sealed"
)

// MaxPasswordTableEntries bounds a location's password table, mirroring
// nginx_dlg_auth.c's MAX_PWD_TAB_ENTRIES.
const MaxPasswordTableEntries = 100

// DefaultAllowedClockSkew is the allowed_clock_skew default when a
// location never sets one, matching the directive table in spec.md §6.
const DefaultAllowedClockSkew = 1

// Off is the realm value that disables the filter for a location and
// terminates inheritance (spec.md §4.1 dispatch rule 2).
const Off = "off"

// Location is one location's merged, validated policy. It is created
// at startup and never mutated afterwards; concurrent requests only
// read it (spec.md §5).
type Location struct {
	Name string // EXPANSION: logging label only, not part of the wire protocol

	Realm string

	SinglePassword []byte
	PasswordTable  sealed.PasswordTable

	AllowedClockSkew uint

	HostOverride string
	PortOverride string

	realmSet            bool
	singlePasswordSet   bool
	passwordTableSet    bool
	allowedClockSkewSet bool
	hostOverrideSet     bool
	portOverrideSet     bool
}

// SetRealm records an explicit dlg_auth directive value.
func (l *Location) SetRealm(realm string) {
	l.Realm = realm
	l.realmSet = true
}

// SetSinglePassword records a one-argument dlg_auth_iron_pwd
// directive. Mutually exclusive with AddPasswordTableEntry.
func (l *Location) SetSinglePassword(pwd []byte) error {
	if l.passwordTableSet {
		return errors.New("config: dlg_auth_iron_pwd does not allow mixed use of password table and single password")
	}
	if l.singlePasswordSet {
		return errors.New("config: dlg_auth_iron_pwd must not be used more than once for setting single password")
	}
	l.SinglePassword = pwd
	l.singlePasswordSet = true
	return nil
}

// AddPasswordTableEntry records a two-argument dlg_auth_iron_pwd
// directive (password id, password).
func (l *Location) AddPasswordTableEntry(id string, pwd []byte) error {
	if l.singlePasswordSet {
		return errors.New("config: dlg_auth_iron_pwd does not allow mixed use of password table and single password")
	}
	if len(l.PasswordTable) >= MaxPasswordTableEntries {
		return errors.New("config: too many dlg_auth_iron_pwd directives, please use less id/password pairs")
	}
	l.PasswordTable = append(l.PasswordTable, sealed.PasswordEntry{ID: id, Secret: pwd})
	l.passwordTableSet = true
	return nil
}

// SetAllowedClockSkew records a dlg_auth_allowed_clock_skew directive.
func (l *Location) SetAllowedClockSkew(seconds uint) {
	l.AllowedClockSkew = seconds
	l.allowedClockSkewSet = true
}

// SetHostOverride records a dlg_auth_host directive.
func (l *Location) SetHostOverride(host string) {
	l.HostOverride = host
	l.hostOverrideSet = true
}

// SetPortOverride records a dlg_auth_port directive. Validate rejects
// it later if it is not digits-only.
func (l *Location) SetPortOverride(port string) {
	l.PortOverride = port
	l.portOverrideSet = true
}

// Merge inherits any unset field from parent, exactly as
// ngx_http_dlg_auth_merge_loc_conf does: realm, single password,
// password table, allowed clock skew (defaulting to
// DefaultAllowedClockSkew), host override, and port override.
func (l *Location) Merge(parent *Location) {
	if parent == nil {
		if !l.allowedClockSkewSet {
			l.AllowedClockSkew = DefaultAllowedClockSkew
		}
		return
	}

	if !l.realmSet {
		l.Realm = parent.Realm
	}
	if !l.singlePasswordSet && !l.passwordTableSet {
		l.SinglePassword = parent.SinglePassword
		l.singlePasswordSet = parent.singlePasswordSet
	}
	if !l.passwordTableSet && !l.singlePasswordSet {
		l.PasswordTable = append(sealed.PasswordTable{}, parent.PasswordTable...)
		l.passwordTableSet = parent.passwordTableSet
	}
	if !l.allowedClockSkewSet {
		if parent.allowedClockSkewSet {
			l.AllowedClockSkew = parent.AllowedClockSkew
			l.allowedClockSkewSet = true
		} else {
			l.AllowedClockSkew = DefaultAllowedClockSkew
		}
	}
	if !l.hostOverrideSet {
		l.HostOverride = parent.HostOverride
	}
	if !l.portOverrideSet {
		l.PortOverride = parent.PortOverride
	}
}

// Validate applies the load-time sanity checks
// ngx_http_dlg_auth_merge_loc_conf performs once a location's realm is
// active: a password source must be configured, and any explicit port
// override must be digits-only.
func (l *Location) Validate() error {
	if l.Realm == "" || l.Realm == Off {
		return nil
	}

	if len(l.SinglePassword) == 0 && len(l.PasswordTable) == 0 {
		return errors.New("config: neither iron password nor iron password table configured")
	}

	if l.PortOverride != "" {
		if !isDigitsOnly(l.PortOverride) {
			return errors.Errorf("config: %q is not a valid port number", l.PortOverride)
		}
		if _, err := parsePort(l.PortOverride); err != nil {
			return errors.Wrapf(err, "config: %q is not a valid port number", l.PortOverride)
		}
	}

	return nil
}

func isDigitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parsePort validates that s parses to a port in 1..65535 (spec.md §3's
// RequestView.Port invariant).
func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 65535 {
		return 0, errors.Errorf("config: port %d out of range", n)
	}
	return n, nil
}
