package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Source yields fixed-size PCM frames.
type Source interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// FFmpegCapture reads s16le mono microphone audio from an ffmpeg subprocess.
type FFmpegCapture struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    io.ReadCloser
	frameSize int
	mu        sync.Mutex
	stopped   bool
}

// defaultCaptureArgs picks the platform input device.
func defaultCaptureArgs(sampleRate int) []string {
	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		input = []string{"-f", "dshow", "-i", "audio=default"}
	default:
		input = []string{"-f", "pulse", "-i", "default"}
	}

	args := []string{"ffmpeg", "-loglevel", "warning"}
	args = append(args, input...)
	return append(args,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-",
	)
}

// NewFFmpegCapture prepares the capture process. command overrides the
// default ffmpeg invocation and must write raw s16le mono PCM to stdout.
func NewFFmpegCapture(ctx context.Context, command string, sampleRate, frameSamples int) (*FFmpegCapture, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		args = defaultCaptureArgs(sampleRate)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	slog.Info("running capture", "cmd", strings.Join(args, " "))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	return &FFmpegCapture{
		cmd:       cmd,
		stdout:    stdout,
		stderr:    stderr,
		frameSize: frameSamples * 2,
	}, nil
}

func (f *FFmpegCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	go f.logStderr()
	return nil
}

// ReadFrame blocks until one full frame is available.
func (f *FFmpegCapture) ReadFrame() ([]byte, error) {
	return readFrame(f.stdout, f.frameSize)
}

// Close kills the subprocess and reaps it.
func (f *FFmpegCapture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped || f.cmd.Process == nil {
		return nil
	}
	f.stopped = true

	_ = f.cmd.Process.Kill()
	_ = f.cmd.Wait()
	return nil
}

func (f *FFmpegCapture) logStderr() {
	scanner := bufio.NewScanner(f.stderr)
	for scanner.Scan() {
		slog.Debug("ffmpeg", "stderr", scanner.Text())
	}
}

func readFrame(r io.Reader, size int) ([]byte, error) {
	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
