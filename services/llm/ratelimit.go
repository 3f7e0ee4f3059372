// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// rateLimitedClient throttles Complete to a fixed request rate, mirroring
// the teacher's own rate.Limiter use around its Ollama streaming client.
type rateLimitedClient struct {
	Client
	limiter *rate.Limiter
}

// withRateLimit wraps client in a limiter when LLM_RATE_LIMIT_RPS is set to
// a positive value; absent that, client is returned unwrapped so the
// default stays unthrottled.
func withRateLimit(client Client) Client {
	rps := rateLimitFromEnv()
	if rps <= 0 {
		return client
	}
	return &rateLimitedClient{Client: client, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func rateLimitFromEnv() float64 {
	raw := os.Getenv("LLM_RATE_LIMIT_RPS")
	if raw == "" {
		return 0
	}
	rps, err := strconv.ParseFloat(raw, 64)
	if err != nil || rps <= 0 {
		return 0
	}
	return rps
}

func (c *rateLimitedClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", timeout("rate limiter wait cancelled", err)
	}
	return c.Client.Complete(ctx, prompt)
}
