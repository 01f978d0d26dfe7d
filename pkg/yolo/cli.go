package yolo

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

// CLI runs the toolkit's command line interface.
type CLI struct {
	command []string
	output  io.Writer
	logger  *log.Logger
}

type CLIOption func(*CLI) *CLI

// WithOutput sets where stdout and stderr of the toolkit go.
func WithOutput(w io.Writer) CLIOption {
	return func(c *CLI) *CLI {
		c.output = w
		return c
	}
}

func WithLogger(l *log.Logger) CLIOption {
	return func(c *CLI) *CLI {
		c.logger = l
		return c
	}
}

// NewCLI returns CLI invoking command.
//
// command is the argv prefix, like {"yolo"} or {"python", "-m", "ultralytics"}.
func NewCLI(command []string, options ...CLIOption) *CLI {
	c := &CLI{
		command: command,
		output:  io.Discard,
		logger:  log.New("yolo"),
	}
	for _, o := range options {
		c = o(c)
	}
	return c
}

var _ Trainer = &CLI{}
var _ Detector = &CLI{}

func (c *CLI) Train(ctx context.Context, opts TrainOptions) error {
	return c.run(
		ctx, "detect", "train",
		"model="+opts.Weights,
		"data="+opts.Data,
		"epochs="+strconv.Itoa(opts.Epochs),
		"imgsz="+strconv.Itoa(opts.ImageSize),
		"batch="+strconv.Itoa(opts.Batch),
		"project="+opts.Project,
		"name="+opts.Name,
		"exist_ok=True",
	)
}

func (c *CLI) Predict(ctx context.Context, opts PredictOptions) (Prediction, error) {
	if err := c.run(
		ctx, "detect", "predict",
		"model="+opts.Model,
		"source="+opts.Source,
		"conf="+strconv.FormatFloat(opts.Conf, 'g', -1, 64),
		"save=True",
		"save_txt=True",
		"project="+opts.Project,
		"name="+opts.Name,
		"exist_ok=True",
	); err != nil {
		return Prediction{}, err
	}
	return Collect(opts.Project, opts.Name, opts.Source)
}

func (c *CLI) run(ctx context.Context, args ...string) error {
	if len(c.command) == 0 {
		return fmt.Errorf("yolo: command is not configured")
	}
	argv := append(append([]string{}, c.command[1:]...), args...)
	c.logger.Debugf("running: %s %s", c.command[0], strings.Join(argv, " "))

	tail := &tailBuffer{limit: 2048}
	out := io.MultiWriter(c.output, tail)

	cmd := exec.CommandContext(ctx, c.command[0], argv...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(tail.String()); msg != "" {
			return fmt.Errorf("yolo %s: %w: %s", strings.Join(args[:2], " "), err, msg)
		}
		return fmt.Errorf("yolo %s: %w", strings.Join(args[:2], " "), err)
	}
	return nil
}

// tailBuffer keeps the last bytes written.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; 0 < over {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
