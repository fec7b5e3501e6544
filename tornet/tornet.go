// Package tornet supervises a local TOR client process so the browser can
// route its traffic through a changing exit circuit. A fresh circuit presents
// Rentometer with a fresh apparent origin, which is how the pipeline escapes
// the per-origin free-query quota.
package tornet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"rental-analyzer/utils"
)

// ErrStartupFailed means the TOR process exited or closed its output stream
// before reporting a fully established circuit.
var ErrStartupFailed = errors.New("tor startup failed")

// bootstrapMarker is the stdout line fragment TOR prints once the circuit is
// fully established.
const bootstrapMarker = "Bootstrapped 100%"

// Process is a handle to a running TOR client.
type Process struct {
	cmd       *exec.Cmd
	SocksPort int
	logger    *utils.Logger
}

// Start launches TOR listening on the given SOCKS port and blocks until it
// reports full circuit establishment. The context bounds only the startup
// wait: expiry kills the not-yet-bootstrapped process, while a process that
// made it past bootstrap lives until Stop.
func Start(ctx context.Context, torPath string, socksPort int, logger *utils.Logger) (*Process, error) {
	logger.Info("[tornet] Starting TOR on SOCKS port %d...", socksPort)

	cmd := exec.Command(torPath, "--SocksPort", strconv.Itoa(socksPort))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("tornet: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("tornet: launch %q: %w", torPath, err)
	}

	p := &Process{cmd: cmd, SocksPort: socksPort, logger: logger}

	// The scanner blocks on a live pipe, so the wait is raced against the
	// context instead of trusting the process to close its output.
	done := make(chan error, 1)
	go func() {
		done <- awaitBootstrap(stdout, logger)
	}()

	select {
	case err := <-done:
		if err != nil {
			p.Stop()
			return nil, fmt.Errorf("tornet: %w", err)
		}
	case <-ctx.Done():
		logger.Warn("[tornet] Gave up waiting for circuit establishment: %v", ctx.Err())
		_ = cmd.Process.Kill()
		<-done // the reader drains once the pipe closes
		_ = cmd.Wait()
		p.cmd = nil
		return nil, fmt.Errorf("tornet: %w: %s", ErrStartupFailed, ctx.Err())
	}

	logger.Info("[tornet] TOR circuit established")
	return p, nil
}

// awaitBootstrap reads the process output line by line until the circuit
// establishment marker appears. An exhausted stream means the process died
// first.
func awaitBootstrap(r io.Reader, logger *utils.Logger) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("[tornet] %s", line)
		if strings.Contains(line, bootstrapMarker) {
			return nil
		}
	}
	return fmt.Errorf("%w: process output ended before circuit establishment", ErrStartupFailed)
}

// Stop terminates the TOR process. It is safe to call on a nil handle or to
// call more than once.
func (p *Process) Stop() {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return
	}
	p.logger.Info("[tornet] Killing TOR")
	_ = p.cmd.Process.Kill()
	// Reap the child; the error is expected after a kill.
	_ = p.cmd.Wait()
	p.cmd = nil
}
