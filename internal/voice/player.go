package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Speaker plays WAV audio and returns once playback has finished.
type Speaker interface {
	Play(ctx context.Context, wav []byte) error
}

var defaultPlaybackArgs = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-i", "-"}

// CommandPlayer pipes audio into a player subprocess, ffplay by default.
type CommandPlayer struct {
	args []string
}

// NewCommandPlayer parses command, which must read WAV from stdin.
func NewCommandPlayer(command string) *CommandPlayer {
	args := strings.Fields(command)
	if len(args) == 0 {
		args = defaultPlaybackArgs
	}
	return &CommandPlayer{args: args}
}

func (p *CommandPlayer) Play(ctx context.Context, wav []byte) error {
	if len(wav) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.args[0], p.args[1:]...)
	cmd.Stdin = bytes.NewReader(wav)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
