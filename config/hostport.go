package config

import "strings"

// DetermineHostAndPort implements spec.md §4.2 step 1's corrected
// semantics (see spec.md §9 "Determine-host-and-port bug in source"):
// the original nginx module assigns conf->port.data into host->data
// and guards its final fallback with the wrong comparison. The
// corrected intent, implemented here, is: apply HostOverride and
// PortOverride *individually*; for whichever one is not overridden,
// fall back to splitting the Host header at the first colon; and if
// the Host header carries no port, fall back to the connection
// scheme's default port (443 for TLS, 80 otherwise).
func (l *Location) DetermineHostAndPort(hostHeader string, tls bool) (host, port string) {
	requestHost, requestPort := splitHostHeader(hostHeader)

	if l.HostOverride != "" {
		host = l.HostOverride
	} else {
		host = requestHost
	}

	if l.PortOverride != "" {
		port = l.PortOverride
	} else if requestPort != "" {
		port = requestPort
	} else if tls {
		port = "443"
	} else {
		port = "80"
	}

	return host, port
}

// splitHostHeader splits a Host header value at its first colon. If
// there is no colon, the whole value is the host and the port is
// empty (the caller applies the scheme default).
func splitHostHeader(hostHeader string) (host, port string) {
	if i := strings.IndexByte(hostHeader, ':'); i >= 0 {
		return hostHeader[:i], hostHeader[i+1:]
	}
	return hostHeader, ""
}
