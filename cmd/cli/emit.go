// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/transport/middleware"
)

const emitTimeout = 10 * time.Second

type emitOptions struct {
	URL         string
	Node        string
	Status      string
	ExecutionID string
	Secret      string
	Data        string
}

type emitPayload struct {
	ExecutionID *string         `json:"executionId,omitempty"`
	Node        string          `json:"node"`
	Status      string          `json:"status"`
	Data        json.RawMessage `json:"data,omitempty"`
}

func parseEmitFlags(args []string, output io.Writer) (emitOptions, error) {
	var opts emitOptions

	fs := flag.NewFlagSet("emit", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.URL, "url", "http://localhost:8080/api/workflow-events", "ingestion endpoint")
	fs.StringVar(&opts.Node, "node", "", "workflow node name (required)")
	fs.StringVar(&opts.Status, "status", "", "node status: pending|running|success|error (required)")
	fs.StringVar(&opts.ExecutionID, "execution-id", "", "workflow execution id")
	fs.StringVar(&opts.Secret, "secret", "", "value for the X-Workflow-Secret header")
	fs.StringVar(&opts.Data, "data", "", "JSON value attached as data")

	if err := fs.Parse(args); err != nil {
		return emitOptions{}, err
	}
	if fs.NArg() > 0 {
		return emitOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts.Node = strings.TrimSpace(opts.Node)
	opts.Status = strings.TrimSpace(opts.Status)
	if opts.Node == "" || opts.Status == "" {
		return emitOptions{}, domain.ErrMissingEventFields
	}
	if opts.Data != "" && !json.Valid([]byte(opts.Data)) {
		return emitOptions{}, errors.New("--data must be valid JSON")
	}
	return opts, nil
}

func buildEmitPayload(opts emitOptions) ([]byte, error) {
	p := emitPayload{
		Node:   opts.Node,
		Status: opts.Status,
	}
	if opts.ExecutionID != "" {
		id := opts.ExecutionID
		p.ExecutionID = &id
	}
	if opts.Data != "" {
		p.Data = json.RawMessage(opts.Data)
	}
	return json.Marshal(p)
}

func runEmit(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error {
	opts, err := parseEmitFlags(args, out)
	if err != nil {
		return err
	}

	body, err := buildEmitPayload(opts)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, emitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Secret != "" {
		req.Header.Set(middleware.HeaderWorkflowSecret, opts.Secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest rejected event: %d %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	logger.Info("event emitted",
		"url", opts.URL,
		"node", opts.Node,
		"status", opts.Status,
	)
	_, _ = fmt.Fprintln(out, strings.TrimSpace(string(respBody)))
	return nil
}
