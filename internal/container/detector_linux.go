//go:build linux

package container

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// libpod-<id>.scope for Podman, docker-<id>.scope for Docker
var (
	libpodRe      = regexp.MustCompile(`libpod-([0-9a-f]{64})`)
	dockerRe      = regexp.MustCompile(`docker-([0-9a-f]{64})`)
	slashDockerRe = regexp.MustCompile(`/docker/([0-9a-f]{64})`)
	slashLXCRe    = regexp.MustCompile(`/lxc/([0-9a-f]{64})`)
)

// Detect checks if a process is running inside a container.
// Returns nil if the process is not containerized.
func Detect(pid, port int) *Info {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "cgroup"))
	if err != nil {
		return nil
	}

	containerID, runtimeHint := parseCgroup(string(data))
	if containerID == "" {
		return nil
	}

	runtime := detectRuntime(runtimeHint)
	return &Info{
		ID:      containerID,
		Name:    lookupName(containerID, runtime),
		Runtime: runtime,
	}
}

func parseCgroup(content string) (containerID, runtime string) {
	for _, line := range strings.Split(content, "\n") {
		if m := libpodRe.FindStringSubmatch(line); len(m) > 1 {
			return m[1], "podman"
		}
		if m := dockerRe.FindStringSubmatch(line); len(m) > 1 {
			return m[1], "docker"
		}
		if m := slashDockerRe.FindStringSubmatch(line); len(m) > 1 {
			return m[1], "docker"
		}
		if m := slashLXCRe.FindStringSubmatch(line); len(m) > 1 {
			return m[1], "docker" // LXC-based docker
		}
	}
	return "", ""
}

// detectRuntime verifies which runtime is actually available.
func detectRuntime(hint string) string {
	if hint == "podman" {
		if _, err := exec.LookPath("podman"); err == nil {
			return "podman"
		}
	}
	if _, err := exec.LookPath("docker"); err == nil {
		return "docker"
	}
	if _, err := exec.LookPath("podman"); err == nil {
		return "podman"
	}
	return hint
}
