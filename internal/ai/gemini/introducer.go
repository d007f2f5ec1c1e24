package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/logger"
	"github.com/underdogdevs/mentormatch/internal/profile"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxMessageRunes     = 600
)

// Introducer drafts introduction messages with Gemini.
type Introducer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewIntroducer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Introducer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Introducer{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// publicProfile is the subset of a profile that may be shared with the
// model. Background flags and contact details are never sent.
type publicProfile struct {
	FirstName   string   `json:"first_name,omitempty"`
	Subject     string   `json:"subject,omitempty"`
	Level       string   `json:"experience_level,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

func toPublic(p *profile.Profile) publicProfile {
	return publicProfile{
		FirstName:   p.FirstName,
		Subject:     p.Subject,
		Level:       p.Level.String(),
		City:        p.Location.City,
		State:       p.Location.State,
		Preferences: p.Wants.Set(),
	}
}

func (i *Introducer) Introduce(ctx context.Context, mentee, mentor *profile.Profile, score float64) (string, error) {
	if mentee == nil || mentor == nil {
		return "", fmt.Errorf("mentee and mentor are required")
	}

	menteeJSON, err := json.MarshalIndent(toPublic(mentee), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal mentee payload: %w", err)
	}
	mentorJSON, err := json.MarshalIndent(toPublic(mentor), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal mentor payload: %w", err)
	}

	prompt := buildPrompt(string(menteeJSON), string(mentorJSON), score)

	i.logger.Debug("gemini generate content request",
		zap.String("mentee_id", mentee.ID),
		zap.String("mentor_id", mentor.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Truncate(prompt, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	i.logger.Debug("gemini generate content response",
		zap.String("mentor_id", mentor.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Truncate(raw, i.maxLogLen)),
	)

	return cleanMessage(raw), nil
}

func buildPrompt(menteeJSON, mentorJSON string, score float64) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Mentee:\n{{MENTEE_JSON}}\n\nMentor:\n{{MENTOR_JSON}}\n\nScore: {{SCORE}}\n\nMessage:"
	}
	prompt := strings.ReplaceAll(template, "{{MENTEE_JSON}}", menteeJSON)
	prompt = strings.ReplaceAll(prompt, "{{MENTOR_JSON}}", mentorJSON)
	prompt = strings.ReplaceAll(prompt, "{{SCORE}}", strconv.FormatFloat(score, 'f', 2, 64))
	return prompt
}

// cleanMessage strips code fences and surrounding quotes and caps the length.
func cleanMessage(raw string) string {
	msg := strings.TrimSpace(raw)
	if strings.HasPrefix(msg, "```") {
		msg = strings.TrimPrefix(msg, "```text")
		msg = strings.TrimPrefix(msg, "```")
		if idx := strings.LastIndex(msg, "```"); idx != -1 {
			msg = msg[:idx]
		}
	}
	msg = strings.Trim(strings.TrimSpace(msg), "\"`")

	runes := []rune(msg)
	if len(runes) > maxMessageRunes {
		msg = string(runes[:maxMessageRunes])
	}
	return strings.TrimSpace(msg)
}
