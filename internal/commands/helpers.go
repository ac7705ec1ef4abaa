package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/orchestrator"
)

// parseSource maps a CLI path to a document source; http(s) locations are
// fetched remotely.
func parseSource(raw string) (openapi.Source, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil, errors.New("--schema is required (flag, FORMBIND_SCHEMA or formbind.yaml)")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if _, err := url.ParseRequestURI(path); err != nil {
			return nil, fmt.Errorf("invalid schema URL %q: %w", path, err)
		}
		return openapi.SourceFromURL(path), nil
	}
	return openapi.SourceFromFile(path), nil
}

func newOrchestrator(cfg *Config, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	base := []orchestrator.Option{
		orchestrator.WithLogger(cfg.Logger),
		orchestrator.WithLoader(openapi.NewLoader(openapi.WithHTTPFallback(cfg.Timeout))),
	}
	return orchestrator.New(append(base, opts...)...)
}

func newRequest(cfg *Config) (orchestrator.Request, error) {
	src, err := parseSource(cfg.Schema)
	if err != nil {
		return orchestrator.Request{}, err
	}
	if cfg.Form == "" {
		return orchestrator.Request{}, errors.New("--form is required")
	}
	return orchestrator.Request{Source: src, Form: cfg.Form}, nil
}

// readSubmission merges a submission file with key=value pairs. Files
// ending in .json hold an object of scalars or arrays; anything else is
// read as an urlencoded body.
func readSubmission(path string, pairs []string) (forms.Values, error) {
	values := forms.Values{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read submission: %w", err)
		}
		parsed, err := parseSubmission(raw, strings.EqualFold(filepath.Ext(path), ".json"))
		if err != nil {
			return nil, fmt.Errorf("parse submission %s: %w", path, err)
		}
		values = parsed
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --value %q, expected key=value", pair)
		}
		values.Add(strings.TrimSpace(key), value)
	}
	return values, nil
}

func parseSubmission(raw []byte, isJSON bool) (forms.Values, error) {
	if !isJSON {
		return forms.ParseQuery(strings.TrimSpace(string(raw)))
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	values := forms.Values{}
	for key, value := range payload {
		switch typed := value.(type) {
		case nil:
		case []any:
			for _, item := range typed {
				text, err := cast.ToStringE(item)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				values.Add(key, text)
			}
		default:
			text, err := cast.ToStringE(typed)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			values.Add(key, text)
		}
	}
	return values, nil
}

// readErrorPayload reads a JSON object mapping field paths to one message or
// a list of messages.
func readErrorPayload(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read errors: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse errors %s: %w", path, err)
	}
	out := make(map[string][]string, len(payload))
	for key, value := range payload {
		if message, ok := value.(string); ok {
			out[key] = []string{message}
			continue
		}
		messages, err := cast.ToStringSliceE(value)
		if err != nil {
			return nil, fmt.Errorf("parse errors %s: %s: %w", path, key, err)
		}
		out[key] = messages
	}
	return out, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", path)
	return nil
}
