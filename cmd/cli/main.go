// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/logging"
)

type command func(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error

var commands = map[string]command{
	"validate": runValidate,
	"emit":     runEmit,
	"tail":     runTail,
}

func main() {
	logger := newLogger()

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	run, ok := commands[os.Args[1]]
	if !ok {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, os.Args[2:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

type validateStep struct {
	name string
	argv []string
	// skip returns a reason when the step should not run.
	skip func() string
}

func validateSteps() []validateStep {
	return []validateStep{
		{name: "go vet", argv: []string{"go", "vet", "./..."}},
		{name: "go test unit", argv: []string{"go", "test", "./..."}},
		{
			name: "go test integration",
			argv: []string{
				"go", "test", "-count=1", "-tags=integration",
				"./internal/persistence/postgres",
				"./internal/repository",
				"./internal/worker",
			},
			skip: func() string {
				if strings.TrimSpace(os.Getenv("DATABASE_URL")) == "" {
					return "DATABASE_URL is not set"
				}
				return ""
			},
		},
	}
}

func runValidate(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("validate takes no arguments, got %q", strings.Join(args, " "))
	}
	started := time.Now()

	if err := runGofmtCheck(ctx, logger); err != nil {
		return err
	}

	for _, step := range validateSteps() {
		if step.skip != nil {
			if reason := step.skip(); reason != "" {
				logger.Info("skipping step", "step", step.name, "reason", reason)
				continue
			}
		}
		if err := runCommand(ctx, logger, step.name, step.argv[0], step.argv[1:]...); err != nil {
			return err
		}
	}

	logger.Info("validation complete", "duration_ms", time.Since(started).Milliseconds())
	_, _ = fmt.Fprintln(out, "ok")
	return nil
}

func runGofmtCheck(ctx context.Context, logger *slog.Logger) error {
	files, err := listGoFiles(".")
	if err != nil {
		return fmt.Errorf("list go files: %w", err)
	}
	if len(files) == 0 {
		logger.Info("skipping step", "step", "gofmt check", "reason", "no go files found")
		return nil
	}

	logger.Info("running step", "step", "gofmt check", "files", len(files))
	started := time.Now()

	cmd := exec.CommandContext(ctx, "gofmt", append([]string{"-l"}, files...)...)
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("gofmt check failed: %w", err)
	}
	if unformatted := strings.TrimSpace(string(out)); unformatted != "" {
		return fmt.Errorf("gofmt would change files:\n%s", unformatted)
	}

	logger.Info("step completed", "step", "gofmt check", "duration_ms", time.Since(started).Milliseconds())
	return nil
}

func runCommand(ctx context.Context, logger *slog.Logger, step string, name string, args ...string) error {
	logger.Info("running step", "step", step, "command", strings.Join(append([]string{name}, args...), " "))
	started := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		exitCode := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		logger.Error("step failed", "step", step, "duration_ms", time.Since(started).Milliseconds(), "exit_code", exitCode)
		return fmt.Errorf("%s: %w", step, err)
	}

	logger.Info("step completed", "step", step, "duration_ms", time.Since(started).Milliseconds())
	return nil
}

// listGoFiles walks root for .go files, skipping tool caches and the
// read-only reference tree.
func listGoFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".cache", ".gocache", ".gomodcache", "vendor", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logging.ParseLevel(os.Getenv("LOG_LEVEL")),
	}))
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: go run ./cmd/cli validate")
	_, _ = fmt.Fprintln(w, "       go run ./cmd/cli emit --url URL --node NODE --status STATUS [--execution-id ID] [--secret SECRET] [--data JSON]")
	_, _ = fmt.Fprintln(w, "       go run ./cmd/cli tail [--url URL] [--count N]")
}
