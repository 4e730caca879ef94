package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/msrv/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config // Config, when set, is used instead of reading --config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, libraryCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the preset config, the file at path, or the defaults when path does not exist.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	if _, err := os.Stat(path); err != nil {
		r.logger.Warn("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return config, nil
}

func (r *Runner) applyLogLevel(config *shared.Config, debug bool) {
	if debug {
		shared.SetLogLevel(r.logger, log.DebugLevel)
		return
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
