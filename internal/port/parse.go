package port

import (
	"fmt"
	"strconv"
	"strings"
)

// Query identifies the port (and optionally the interface) to sweep.
type Query struct {
	Interface string // e.g. "127.0.0.1", "localhost", "" for any
	Port      int
}

// Matches returns true if a listener on the given address and port
// falls under this query. Wildcard binds always match.
func (q Query) Matches(addr string, port int) bool {
	if port != q.Port {
		return false
	}
	if q.Interface == "" {
		return true
	}
	return addr == q.Interface || addr == "0.0.0.0" || addr == "::" || addr == "*"
}

// Parse parses a port argument string into a Query.
// Supported formats:
//   - "9801"           → any interface, port 9801
//   - ":9801"          → any interface, port 9801
//   - "localhost:9801" → localhost, port 9801
//   - "0.0.0.0:9801"   → all interfaces, port 9801
func Parse(arg string) (Query, error) {
	if arg == "" {
		return Query{}, fmt.Errorf("empty port argument")
	}

	var iface, portPart string
	if idx := strings.LastIndex(arg, ":"); idx >= 0 {
		iface = arg[:idx]
		portPart = arg[idx+1:]
	} else {
		portPart = arg
	}

	if portPart == "" {
		return Query{}, fmt.Errorf("missing port number in %q", arg)
	}

	p, err := strconv.Atoi(portPart)
	if err != nil {
		return Query{}, fmt.Errorf("invalid port in %q: %q is not a number", arg, portPart)
	}
	if p < 1 || p > 65535 {
		return Query{}, fmt.Errorf("invalid port in %q: %d out of range (1-65535)", arg, p)
	}

	return Query{Interface: iface, Port: p}, nil
}
