package port

import "errors"

// ErrNoPID is returned when a socket listing matches the target port
// but carries no pid= attribution. This usually means the listing tool
// ran without enough privilege to see process info.
var ErrNoPID = errors.New("no pid= token in process attribution")

// Listener is a process holding a listening socket on a port.
type Listener struct {
	PID      int
	Port     int
	Protocol string // "tcp", "tcp6"
	Address  string // local address the socket is bound to
	Name     string // process name as reported by the listing, may be empty
}
