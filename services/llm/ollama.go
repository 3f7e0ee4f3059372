// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ollamaTracer = otel.Tracer("cognitive.llm.ollama")

const defaultOllamaHost = "http://localhost:11434"
const defaultOllamaModel = "llama3"

// OllamaClient talks to a local or self-hosted Ollama server's /api/generate
// endpoint, requesting JSON-object output mode via format:"json".
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient reads OLLAMA_HOST and LLM_MODEL from the environment.
func NewOllamaClient() (*OllamaClient, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = defaultOllamaHost
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    host,
		model:      model,
	}, nil
}

func (o *OllamaClient) Model() string { return o.model }

func (o *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := ollamaTracer.Start(ctx, "ollama.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))

	payload := ollamaGenerateRequest{Model: o.model, Prompt: prompt, Format: "json", Stream: false}
	body, err := json.Marshal(payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", llmError("failed to marshal ollama request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", llmError("failed to build ollama request", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			return "", timeout("ollama request deadline exceeded", err)
		}
		return "", llmError("ollama HTTP request failed", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "non-200 from ollama")
		return "", llmError("ollama returned a non-200 status", fmt.Errorf("status %d: %s", resp.StatusCode, raw))
	}

	var decoded ollamaGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", llmError("failed to parse ollama response", err)
	}
	return decoded.Response, nil
}
