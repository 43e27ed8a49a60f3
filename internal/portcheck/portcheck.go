// Package portcheck implements the pre-start resource-conflict precheck:
// given a list of TCP ports, report which are already bound by any
// process on the host. The probe is advisory only and fails open.
package portcheck

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 500 * time.Millisecond

// Checker implements process.PortChecker by invoking the OS facility that
// enumerates listening sockets.
type Checker struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{log: log}
}

// InUse returns the subset of ports that currently have a listening socket
// bound to them. On probe failure it fail-opens: it logs a warning and
// reports no ports in use, so a precheck outage never blocks a start.
func (c *Checker) InUse(ctx context.Context, ports []int) ([]int, error) {
	if len(ports) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var listening map[int]bool
	var err error
	if runtime.GOOS == "windows" {
		listening, err = listeningPortsWindows(ctx)
	} else {
		listening, err = listeningPortsPOSIX(ctx, ports)
	}
	if err != nil {
		c.log.Warn("port probe failed, treating all declared ports as available", "error", err, "ports", ports)
		return nil, err
	}

	var busy []int
	for _, p := range ports {
		if listening[p] {
			busy = append(busy, p)
		}
	}
	return busy, nil
}

// listeningPortsPOSIX runs lsof once per port (lsof -iTCP:<port> -sTCP:LISTEN).
// A fixed, non-user-composed argv means there is no shell-injection surface.
func listeningPortsPOSIX(ctx context.Context, ports []int) (map[int]bool, error) {
	result := make(map[int]bool, len(ports))
	for _, p := range ports {
		// #nosec G204 -- argv is fixed; p is our own int, never interpolated into a shell string.
		cmd := exec.CommandContext(ctx, "lsof", "-iTCP:"+strconv.Itoa(p), "-sTCP:LISTEN", "-P", "-n")
		out, err := cmd.Output()
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
				// lsof exits 1 when nothing matched; that means the port is free.
				continue
			}
			return nil, fmt.Errorf("lsof probe for port %d: %w", p, err)
		}
		if len(out) > 0 {
			result[p] = true
		}
	}
	return result, nil
}

// listeningPortsWindows parses `netstat -ano` output for LISTENING entries.
func listeningPortsWindows(ctx context.Context) (map[int]bool, error) {
	cmd := exec.CommandContext(ctx, "netstat", "-ano")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("netstat probe: %w", err)
	}
	result := make(map[int]bool)
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] != "TCP" {
			continue
		}
		if fields[3] != "LISTENING" {
			continue
		}
		local := fields[1]
		idx := strings.LastIndexByte(local, ':')
		if idx < 0 {
			continue
		}
		if p, err := strconv.Atoi(local[idx+1:]); err == nil {
			result[p] = true
		}
	}
	return result, nil
}
