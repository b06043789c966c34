package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/config"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/intel"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

const parsePromptText = `You are a resume parser. Extract the candidate's details from the resume below.
Respond with JSON only, using this shape:
{"name": "", "email": "", "phone": "", "skills": [""], "summary": ""}

Filename: {{.Filename}}
Resume:
{{.Document}}`

const matchPromptText = `You are a recruiting assistant. Score how well the candidate below fits job posting {{.JobID}} on a 0-100 scale.
Respond with JSON only, using this shape:
{"score": 0, "summary": ""}

Candidate: {{.Candidate}}
Skills: {{.Skills}}`

const generatePromptText = `You are a recruiting copywriter. Write a job description for the position below.
Subject: {{.Subject}}
{{if .Department}}Department: {{.Department}}{{end}}`

// GeminiProvider implements the intel.ResumeParser, intel.MatchScorer, and
// intel.ContentGenerator interfaces using Google's Gemini API.
type GeminiProvider struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string

	parseTemplate    *template.Template
	matchTemplate    *template.Template
	generateTemplate *template.Template

	// breaker guards match scoring. When it opens, the provider reports
	// intel.ErrUnavailable so a running batch aborts instead of timing out
	// once per remaining candidate.
	breaker *gobreaker.CircuitBreaker
}

// NewGeminiProvider creates a provider with the given configuration.
func NewGeminiProvider(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiProvider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", intel.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", intel.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", intel.ErrInvalidConfig, err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "gemini-match-scoring",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return &GeminiProvider{
		logger:           logger.With("component", "gemini_provider"),
		config:           cfg,
		client:           client,
		model:            cfg.ModelName,
		parseTemplate:    template.Must(template.New("parse").Parse(parsePromptText)),
		matchTemplate:    template.Must(template.New("match").Parse(matchPromptText)),
		generateTemplate: template.Must(template.New("generate").Parse(generatePromptText)),
		breaker:          breaker,
	}, nil
}

// ParseResume implements intel.ResumeParser.
func (p *GeminiProvider) ParseResume(ctx context.Context, data []byte, filename string) (*intel.ParsedResume, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	prompt, err := p.renderPrompt(p.parseTemplate, promptData{
		Filename: filename,
		Document: string(data),
	})
	if err != nil {
		return nil, err
	}

	text, err := p.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed parsedResumeSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", intel.ErrInvalidResponse, err)
	}
	if parsed.Name == "" {
		return nil, fmt.Errorf("%w: parsed resume has no candidate name", intel.ErrInvalidResponse)
	}

	return &intel.ParsedResume{
		Name:    parsed.Name,
		Email:   parsed.Email,
		Phone:   parsed.Phone,
		Skills:  parsed.Skills,
		Summary: parsed.Summary,
	}, nil
}

// ScoreCandidate implements intel.MatchScorer. The API call runs through
// the circuit breaker; an open breaker maps to intel.ErrUnavailable.
func (p *GeminiProvider) ScoreCandidate(ctx context.Context, jobID uuid.UUID, candidate *domain.Candidate) (*intel.MatchScore, error) {
	if candidate == nil {
		return nil, ErrNilCandidate
	}

	prompt, err := p.renderPrompt(p.matchTemplate, promptData{
		JobID:     jobID.String(),
		Candidate: candidate.Name + ": " + candidate.Summary,
		Skills:    strings.Join(candidate.Skills, ", "),
	})
	if err != nil {
		return nil, err
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.callWithRetry(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: match scoring circuit open", intel.ErrUnavailable)
		}
		if errors.Is(err, intel.ErrTransientFailure) {
			// Retries exhausted on what looks like an outage; the breaker
			// counts it, but this call already tells the batch to stop.
			return nil, fmt.Errorf("%w: %v", intel.ErrUnavailable, err)
		}
		return nil, err
	}

	text, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected breaker result type", intel.ErrInvalidResponse)
	}

	var score matchScoreSchema
	if err := json.Unmarshal([]byte(text), &score); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", intel.ErrInvalidResponse, err)
	}
	if score.Score < 0 || score.Score > 100 {
		return nil, fmt.Errorf("%w: score %f out of range", intel.ErrInvalidResponse, score.Score)
	}

	return &intel.MatchScore{Score: score.Score, Summary: score.Summary}, nil
}

// GenerateContent implements intel.ContentGenerator.
func (p *GeminiProvider) GenerateContent(ctx context.Context, subject, department string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	prompt, err := p.renderPrompt(p.generateTemplate, promptData{
		Subject:    subject,
		Department: department,
	})
	if err != nil {
		return "", err
	}

	return p.callWithRetry(ctx, prompt)
}

func (p *GeminiProvider) renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry makes a call to the Gemini API with exponential backoff for
// transient errors. Permanent errors (safety blocks, unparseable responses)
// are returned immediately without retrying.
func (p *GeminiProvider) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := p.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := p.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		text, err := p.callOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}

		if errors.Is(err, intel.ErrContentBlocked) || errors.Is(err, intel.ErrInvalidResponse) {
			p.logger.Warn("permanent provider error, not retrying", "error", err)
			return "", err
		}

		if attempt >= maxRetries {
			p.logger.Warn("maximum retry attempts reached", "max_retries", maxRetries)
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				intel.ErrTransientFailure, maxRetries, err)
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		p.logger.Info("retrying Gemini call after delay",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", intel.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs a single generation request and extracts the response text.
func (p *GeminiProvider) callOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", intel.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: blocked by safety filters", intel.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", intel.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", intel.ErrInvalidResponse)
	}

	// The model sometimes wraps JSON in a code fence despite instructions.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text), nil
}
