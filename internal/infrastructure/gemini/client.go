// Package gemini generates skincare advice for an aesthetic passport.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

// Client falls back to canned advice when no API key is configured or the API fails.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *logrus.Logger
}

// NewClient returns a fallback-only client when apiKey is empty.
func NewClient(ctx context.Context, apiKey, modelName string, logger *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return &Client{logger: logger}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.4)
	return &Client{client: client, model: model, logger: logger}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}

// Advise returns short care recommendations for the passport, in Russian.
func (c *Client) Advise(ctx context.Context, p entity.Passport) (string, error) {
	if c.model == nil {
		return FallbackAdvice(p), nil
	}
	prompt := fmt.Sprintf(`
		You are a cosmetologist assistant.
		Skin type: %s
		Skin concerns: %s
		Allergies: %s
		Notes: %s

		Task: give 3 short, practical skincare recommendations. Mention ingredients to avoid if allergies are listed.
		Language: Russian.
		Output: plain text, one recommendation per line.
	`, p.SkinType, strings.Join(p.SkinConcerns, ", "), strings.Join(p.Allergies, ", "), p.Notes)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("gemini unavailable, using fallback advice")
		}
		return FallbackAdvice(p), nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return FallbackAdvice(p), nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return FallbackAdvice(p), nil
	}
	return out, nil
}

var skinTips = map[entity.SkinType]string{
	entity.SkinNormal:      "Поддерживайте баланс: мягкое очищение, лёгкий увлажняющий крем и SPF каждый день.",
	entity.SkinDry:         "Выбирайте кремы с церамидами и гиалуроновой кислотой, избегайте спиртовых тоников.",
	entity.SkinOily:        "Используйте гели с ниацинамидом и некомедогенные средства, не пересушивайте кожу.",
	entity.SkinCombination: "Ухаживайте по зонам: матирующие средства для Т-зоны и увлажнение для щёк.",
	entity.SkinSensitive:   "Выбирайте средства без отдушек, вводите новые продукты по одному и делайте тест на запястье.",
}

// FallbackAdvice builds deterministic advice from the passport fields.
func FallbackAdvice(p entity.Passport) string {
	tip, ok := skinTips[p.SkinType]
	if !ok {
		tip = skinTips[entity.SkinNormal]
	}
	lines := []string{tip, "Не забывайте про солнцезащитный крем круглый год."}
	if len(p.Allergies) > 0 {
		lines = append(lines, "Проверяйте состав на аллергены: "+strings.Join(p.Allergies, ", ")+".")
	}
	return strings.Join(lines, "\n")
}
