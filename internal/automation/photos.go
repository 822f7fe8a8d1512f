// Package automation implements the command channel into the macOS
// Photos application. The real implementation shells out to osascript;
// an in-memory implementation backs tests and dry runs.
package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"par-go/internal/par"
)

// scriptRunner executes one AppleScript source and returns its output.
// Abstracted so PhotosAutomation is testable without a host application.
type scriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// osascriptRunner runs scripts through /usr/bin/osascript.
type osascriptRunner struct{}

func (osascriptRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "/usr/bin/osascript", "-e", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return "", fmt.Errorf("osascript: %w", err)
		}
		return "", fmt.Errorf("osascript: %w: %s", err, detail)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// PhotosAutomation drives the Photos application over its AppleScript
// bridge. Calls are strictly sequential: the host application is the
// serialization point, and concurrent commands risk interleaved album
// state.
type PhotosAutomation struct {
	runner  scriptRunner
	timeout time.Duration
}

// NewPhotosAutomation creates an automation port backed by osascript.
// timeout bounds each individual call; zero means no bound.
func NewPhotosAutomation(timeout time.Duration) *PhotosAutomation {
	return &PhotosAutomation{runner: osascriptRunner{}, timeout: timeout}
}

func (p *PhotosAutomation) run(ctx context.Context, script string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	out, err := p.runner.Run(ctx, script)
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// classify maps scripting-bridge failures onto the domain taxonomy.
// Apple event timeouts (-1712) and deadline overruns mean the host is
// temporarily unresponsive and the call may succeed on retry; everything
// else is permanent.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &par.TransientError{Err: err}
	}
	msg := err.Error()
	if strings.Contains(msg, "-1712") || strings.Contains(msg, "timed out") {
		return &par.TransientError{Err: err}
	}
	return err
}

// Ping verifies the Photos application is reachable and scriptable.
// Launches Photos if it is not running, like any scripting-bridge call.
func (p *PhotosAutomation) Ping(ctx context.Context) error {
	if _, err := p.run(ctx, `tell application "Photos" to get version`); err != nil {
		return fmt.Errorf("Photos is not reachable: %w", err)
	}
	return nil
}

// CreateAlbum creates a top-level album and returns its scripting ID.
func (p *PhotosAutomation) CreateAlbum(ctx context.Context, name string) (string, error) {
	script := fmt.Sprintf(`tell application "Photos" to get id of (make new album named %s)`, quote(name))
	out, err := p.run(ctx, script)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("Photos returned no id for new album %q", name)
	}
	return out, nil
}

// AddAssets adds the given media items to the album behind handle.
// The bridge's add command is all-or-nothing, so success confirms the
// whole batch.
func (p *PhotosAutomation) AddAssets(ctx context.Context, handle string, assetUUIDs []string) (int, error) {
	if len(assetUUIDs) == 0 {
		return 0, nil
	}
	if _, err := p.run(ctx, addScript(handle, assetUUIDs)); err != nil {
		return 0, err
	}
	return len(assetUUIDs), nil
}

// addScript builds the AppleScript that adds a batch of media items to
// an album identified by its scripting ID.
func addScript(handle string, assetUUIDs []string) string {
	var b strings.Builder
	b.WriteString("tell application \"Photos\"\n")
	fmt.Fprintf(&b, "\tset targetAlbum to album id %s\n", quote(handle))
	b.WriteString("\tadd {")
	for i, u := range assetUUIDs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "media item id %s", quote(u))
	}
	b.WriteString("} to targetAlbum\n")
	b.WriteString("end tell")
	return b.String()
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
