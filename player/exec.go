// Package player runs an external media player process (mpv by default)
// and adapts it to the slideshow's Player contract.
package player

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// Exec plays URLs by spawning an external player process. Playback ends
// when the process exits; pause and resume are delivered as job-control
// signals where the platform supports them.
type Exec struct {
	command string
	args    []string
	logger  zerolog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	playing bool
	done    chan struct{}
}

// NewExec creates a player that runs command with args plus the media URL.
func NewExec(command string, args []string, logger zerolog.Logger) *Exec {
	return &Exec{
		command: command,
		args:    args,
		logger:  logger,
	}
}

// Play starts the player process for u. Any previous playback is stopped
// first.
func (p *Exec) Play(ctx context.Context, u *url.URL) error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	args := append(append([]string(nil), p.args...), u.String())
	cmd := exec.CommandContext(ctx, p.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.command, err)
	}

	done := make(chan struct{})
	p.cmd = cmd
	p.playing = true
	p.done = done

	p.logger.Debug().Str("command", p.command).Int("pid", cmd.Process.Pid).Msg("Player started")

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.done == done {
			p.playing = false
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Debug().Err(err).Msg("Player exited")
		}
		close(done)
	}()

	return nil
}

// Playing reports whether the player process is alive.
func (p *Exec) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Pause suspends the player process.
func (p *Exec) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.playing {
		suspend(p.cmd)
	}
}

// Resume continues a suspended player process.
func (p *Exec) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.playing {
		resume(p.cmd)
	}
}

// Stop kills the player process if one is running. Idempotent.
func (p *Exec) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.playing {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.playing = false
}

// Done is closed when the current playback reaches end of stream (the
// player process exits).
func (p *Exec) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}
