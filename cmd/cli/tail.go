// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const maxTailLine = 1 << 20

// runTail prints the data payload of every event on the workflow stream,
// one JSON document per line. Comment frames are skipped.
func runTail(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	fs.SetOutput(out)
	url := fs.String("url", "http://localhost:8080/api/workflow-events/stream", "stream endpoint")
	count := fs.Int("count", 0, "exit after N events (0 = until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream rejected: %d", resp.StatusCode)
	}
	logger.Info("stream connected", "url", *url)

	seen, err := copyEvents(resp.Body, out, *count)
	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("stream finished", "events", seen)
	return nil
}

// copyEvents reads SSE frames from r and writes each data payload to out.
// It stops after limit events when limit > 0.
func copyEvents(r io.Reader, out io.Writer, limit int) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxTailLine)

	var (
		seen int
		data []string
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if len(data) == 0 {
				continue
			}
			if _, err := fmt.Fprintln(out, strings.Join(data, "\n")); err != nil {
				return seen, err
			}
			data = data[:0]
			seen++
			if limit > 0 && seen >= limit {
				return seen, nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return seen, fmt.Errorf("read stream: %w", err)
	}
	return seen, nil
}
