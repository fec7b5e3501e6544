package tornet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rental-analyzer/utils"
)

func TestAwaitBootstrapFindsMarker(t *testing.T) {
	out := strings.NewReader(strings.Join([]string{
		"Jan 01 00:00:00.000 [notice] Tor 0.4.8.10 running on Linux",
		"Jan 01 00:00:01.000 [notice] Bootstrapped 10% (conn_done): Connected to a relay",
		"Jan 01 00:00:02.000 [notice] Bootstrapped 75% (enough_dirinfo): Loaded enough directory info",
		"Jan 01 00:00:03.000 [notice] Bootstrapped 100% (done): Done",
		"Jan 01 00:00:04.000 [notice] New control connection opened",
	}, "\n"))

	if err := awaitBootstrap(out, utils.NewLogger()); err != nil {
		t.Fatalf("awaitBootstrap returned error: %v", err)
	}
}

func TestAwaitBootstrapStreamEndsEarly(t *testing.T) {
	out := strings.NewReader(strings.Join([]string{
		"Jan 01 00:00:00.000 [notice] Tor 0.4.8.10 running on Linux",
		"Jan 01 00:00:01.000 [notice] Bootstrapped 10% (conn_done): Connected to a relay",
		"Jan 01 00:00:02.000 [err] Could not bind to 127.0.0.1:9050",
	}, "\n"))

	err := awaitBootstrap(out, utils.NewLogger())
	if !errors.Is(err, ErrStartupFailed) {
		t.Fatalf("expected ErrStartupFailed, got %v", err)
	}
}

func TestStartGivesUpOnStalledBootstrap(t *testing.T) {
	// A process that keeps printing partial progress without ever reaching
	// 100% must fail the startup deadline, not block the caller forever.
	script := filepath.Join(t.TempDir(), "stalled-tor.sh")
	body := "#!/bin/sh\nwhile true; do echo 'Bootstrapped 50% (loading_descriptors): Loading relay descriptors'; sleep 1; done\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatalf("write fake tor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	begin := time.Now()
	p, err := Start(ctx, script, 9050, utils.NewLogger())
	if p != nil {
		p.Stop()
		t.Fatal("Start returned a handle for a process that never bootstrapped")
	}
	if !errors.Is(err, ErrStartupFailed) {
		t.Fatalf("expected ErrStartupFailed, got %v", err)
	}
	if elapsed := time.Since(begin); elapsed > 5*time.Second {
		t.Fatalf("Start took %v to give up; the deadline was 500ms", elapsed)
	}
}

func TestStopOnNilHandle(t *testing.T) {
	var p *Process
	p.Stop() // must not panic

	p = &Process{logger: utils.NewLogger()}
	p.Stop() // never started, must also be a no-op
}
