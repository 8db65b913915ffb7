package port

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DetectWithSS lists listening TCP sockets via ss(8) and returns the
// ones matching the query. A listing line that matches the port but
// carries no pid= token is an error wrapping ErrNoPID: killing blind
// is worse than failing loud.
func DetectWithSS(q Query) ([]Listener, error) {
	cmd := exec.Command("ss", "-H", "-tlnp")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running ss: %w", err)
	}
	return parseSSOutput(out, q)
}

// SSAvailable reports whether ss(8) is on PATH.
func SSAvailable() bool {
	_, err := exec.LookPath("ss")
	return err == nil
}

// parseSSOutput parses `ss -H -tlnp` output. Each line looks like:
//
//	LISTEN 0 4096 0.0.0.0:9801 0.0.0.0:* users:(("rgb-node",pid=1234,fd=23))
//
// Columns are State Recv-Q Send-Q Local Peer [Process]; the process
// attribution is a comma-separated attribute list in the last field.
func parseSSOutput(data []byte, q Query) ([]Listener, error) {
	var listeners []Listener

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		addr, p, err := splitHostPort(fields[3])
		if err != nil {
			continue
		}
		if !q.Matches(addr, p) {
			continue
		}

		last := fields[len(fields)-1]
		pids, name, err := extractPIDs(last)
		if err != nil {
			return nil, fmt.Errorf("listener on port %d: %w (line: %s)", p, err, line)
		}

		proto := "tcp"
		if strings.HasPrefix(fields[3], "[") {
			proto = "tcp6"
		}

		for _, pid := range pids {
			listeners = append(listeners, Listener{
				PID:      pid,
				Port:     p,
				Protocol: proto,
				Address:  addr,
				Name:     name,
			})
		}
	}

	return listeners, scanner.Err()
}

// extractPIDs pulls every pid=<N> token out of an ss process
// attribution field like `users:(("rgb-node",pid=1234,fd=23))`. A
// shared listening socket carries one attribution per owning process
// (preforked servers), so the field can name several PIDs. The field
// is treated as a comma-separated attribute list; anything without a
// parseable pid= token fails with ErrNoPID.
func extractPIDs(field string) (pids []int, name string, err error) {
	seen := make(map[int]bool)
	for _, attr := range strings.Split(field, ",") {
		if idx := strings.Index(attr, "pid="); idx >= 0 {
			digits := attr[idx+len("pid="):]
			if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
				digits = digits[:end]
			}
			p, convErr := strconv.Atoi(digits)
			if convErr != nil {
				continue
			}
			if !seen[p] {
				seen[p] = true
				pids = append(pids, p)
			}
		}
		if name == "" {
			if start := strings.Index(attr, `"`); start >= 0 {
				if end := strings.LastIndex(attr, `"`); end > start {
					name = attr[start+1 : end]
				}
			}
		}
	}
	if len(pids) == 0 {
		return nil, "", ErrNoPID
	}
	return pids, name, nil
}

// splitHostPort splits an ss local-address column like "0.0.0.0:9801",
// "[::]:9801" or "*:9801" into address and port.
func splitHostPort(s string) (string, int, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return "", 0, fmt.Errorf("no port in %q", s)
	}
	p, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q", s)
	}
	addr := strings.Trim(s[:idx], "[]")
	return addr, p, nil
}
