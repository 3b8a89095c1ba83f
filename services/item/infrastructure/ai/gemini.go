// Package ai calls the Gemini generateContent REST API to suggest a category,
// tags and a short summary for a listing.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/secondlife-exchange/exchange/pkg/logger"
	"github.com/secondlife-exchange/exchange/services/item/domain/models"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	maxSummaryLength        = 280
	maxResponseBytes        = 1 << 20
)

// ErrUnavailable is returned while the circuit breaker is open or the rate
// limiter cannot grant a slot before the context ends.
var ErrUnavailable = errors.New("ai categorization unavailable")

// Config configures the Gemini client.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// GeminiCategorizer is a rate-limited, circuit-broken Gemini client.
type GeminiCategorizer struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[models.Categorization]
	log     logger.Logger
}

// NewGeminiCategorizer returns a categorizer for cfg. Outbound requests are
// traced through otelhttp.
func NewGeminiCategorizer(cfg Config, log logger.Logger) *GeminiCategorizer {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 1
	}

	g := &GeminiCategorizer{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		log:     log,
	}
	g.breaker = gobreaker.NewCircuitBreaker[models.Categorization](gobreaker.Settings{
		Name:    "gemini",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("ai: circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return g
}

// Categorize asks Gemini for a category, tags and summary for the listing.
func (g *GeminiCategorizer) Categorize(ctx context.Context, title, description string) (models.Categorization, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return models.Categorization{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c, err := g.breaker.Execute(func() (models.Categorization, error) {
		return g.generate(ctx, buildPrompt(title, description))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return models.Categorization{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return c, err
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// suggestion is the JSON object the prompt asks the model to return.
type suggestion struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

func (g *GeminiCategorizer) generate(ctx context.Context, prompt string) (models.Categorization, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json", Temperature: 0.2},
	})
	if err != nil {
		return models.Categorization{}, fmt.Errorf("ai: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.Categorization{}, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return models.Categorization{}, fmt.Errorf("ai: send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.Categorization{}, fmt.Errorf("ai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Categorization{}, fmt.Errorf("ai: gemini returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return models.Categorization{}, fmt.Errorf("ai: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return models.Categorization{}, fmt.Errorf("ai: empty response")
	}
	return parseSuggestion(gr.Candidates[0].Content.Parts[0].Text)
}

// parseSuggestion decodes the model's JSON answer. An unknown category maps
// to OTHER so it never overrides the owner's choice.
func parseSuggestion(text string) (models.Categorization, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var s suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &s); err != nil {
		return models.Categorization{}, fmt.Errorf("ai: decode suggestion: %w", err)
	}

	category, err := models.ParseCategory(s.Category)
	if err != nil {
		category = models.CategoryOther
	}
	return models.Categorization{
		Category: category,
		Tags:     s.Tags,
		Summary:  truncate(strings.TrimSpace(s.Summary), maxSummaryLength),
	}, nil
}

func buildPrompt(title, description string) string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return fmt.Sprintf(`You categorize second-hand items listed for exchange.
Answer with a JSON object {"category": string, "tags": string[], "summary": string}.
"category" must be one of: %s.
"tags" holds at most 5 short lower-case keywords.
"summary" is one sentence of at most %d characters, in the language of the listing.

Title: %s
Description: %s`, strings.Join(names, ", "), maxSummaryLength, title, description)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
