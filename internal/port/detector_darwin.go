//go:build darwin

package port

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Detect finds processes listening on the queried port via lsof.
func Detect(q Query) ([]Listener, error) {
	cmd := exec.Command("lsof", "-iTCP", "-sTCP:LISTEN", "-n", "-P", "-F", "pcn")
	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		// lsof exits 1 when no files match; empty output means truly nothing
		return nil, nil
	}
	return parseLSOFOutput(out, q)
}

func parseLSOFOutput(data []byte, q Query) ([]Listener, error) {
	var listeners []Listener
	seen := make(map[string]bool)

	var pid int
	var name string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		value := line[1:]

		switch line[0] {
		case 'p':
			p, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			pid = p
		case 'c':
			name = value
		case 'n':
			// Format: *:9801 or 127.0.0.1:9801 or [::1]:9801
			colonIdx := strings.LastIndex(value, ":")
			if colonIdx < 0 {
				continue
			}
			p, err := strconv.Atoi(value[colonIdx+1:])
			if err != nil {
				continue
			}

			addr := strings.Trim(value[:colonIdx], "[]")
			if addr == "*" || addr == "" {
				addr = "0.0.0.0"
			}
			if !q.Matches(addr, p) {
				continue
			}

			key := fmt.Sprintf("%d:%d", pid, p)
			if seen[key] {
				continue
			}
			seen[key] = true

			listeners = append(listeners, Listener{
				PID:      pid,
				Port:     p,
				Protocol: "tcp",
				Address:  addr,
				Name:     name,
			})
		}
	}
	return listeners, scanner.Err()
}
