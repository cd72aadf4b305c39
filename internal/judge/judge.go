// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package judge is the client for the optional remote language-model judge.
// It sends one chat completion per call with a fixed system instruction and
// expects a JSON object back, validated against a compiled schema. Calls are
// bounded by a fixed timeout and never retried: callers own the fallback.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
)

// Defaults applied by New when the config leaves a field empty.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second
)

// ErrNoAPIKey is returned by New when no credential is configured.
var ErrNoAPIKey = errors.New("judge API key not configured")

// Config holds the judge connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Completer submits a system instruction and user content and returns the
// raw JSON object produced by the judge. Implementations must return an
// error for any transport failure or response that does not satisfy schema.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string, schema *Schema) ([]byte, error)
}

// Schema is a named JSON schema used both as the requested response format
// and to validate what comes back.
type Schema struct {
	Name     string
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

// NewSchema compiles src under name.
func NewSchema(name, src string) (*Schema, error) {
	compiled, err := jsonschema.CompileString(name+".json", src)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return &Schema{Name: name, raw: json.RawMessage(src), compiled: compiled}, nil
}

// MustSchema is NewSchema for package-level schemas known at compile time.
func MustSchema(name, src string) *Schema {
	s, err := NewSchema(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate decodes content and checks it against the schema.
func (s *Schema) Validate(content []byte) error {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return fmt.Errorf("decoding judge response: %w", err)
	}
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("judge response violates schema %s: %w", s.Name, err)
	}
	return nil
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New builds a Client from cfg, filling in the default model and timeout.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c := &Client{
		api:     openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c, nil
}

// zeroTemperature requests greedy decoding. go-openai omits a literal 0.
const zeroTemperature = math.SmallestNonzeroFloat32

// CompleteJSON sends one request at temperature 0. With a schema the
// response format is a strict JSON schema and the reply is validated;
// without one the judge is only asked for a JSON object.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, schema *Schema) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: zeroTemperature,
	}
	if schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: schema.raw,
				Strict: true,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling judge: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices")
	}

	content := []byte(strings.TrimSpace(resp.Choices[0].Message.Content))
	if schema != nil {
		if err := schema.Validate(content); err != nil {
			return nil, err
		}
	} else if !json.Valid(content) {
		return nil, fmt.Errorf("judge returned non-JSON content")
	}
	return content, nil
}
