package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/pipeline"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

// defaultConfidence is reported when the model answers with plain text.
const defaultConfidence = 0.95

const translatePrompt = `You are a translation engine. Translate the text under [Current Text] into the language under [Target Language].

[History] holds earlier source/translation pairs of the same conversation. Use it only to keep names,
terminology and tone consistent; never translate or repeat it. It may be empty.

Output only the translation: no labels, quotes, explanations or comments.`

type translateResponse struct {
	Translation string   `json:"translation"`
	Confidence  *float64 `json:"confidence"`
}

// Translate translates text into targetLang with the conversation as context.
// The model may answer with plain text or {"translation", "confidence"}.
func (c *Client) Translate(ctx context.Context, conversation []session.Turn, text, sourceLang, targetLang string) (*pipeline.Translation, error) {
	var history strings.Builder
	for _, t := range conversation {
		fmt.Fprintf(&history, "- source: %q\n  translation: %q\n", t.SourceText, t.TargetText)
	}

	user := fmt.Sprintf("[History]\n%s\n[Source Language]\n%s\n\n[Current Text]\n%s\n\n[Target Language]\n%s (%s)\n",
		history.String(), language.Name(sourceLang), text, language.Name(targetLang), targetLang)

	content, err := c.complete(ctx, translatePrompt, user, c.config.TranslateTemperature, 0)
	if err != nil {
		return nil, err
	}

	return parseTranslation(content), nil
}

func parseTranslation(content string) *pipeline.Translation {
	var resp translateResponse
	if strings.HasPrefix(stripCodeFence(content), "{") && unmarshalJSON(content, &resp) == nil && resp.Translation != "" {
		conf := defaultConfidence
		if resp.Confidence != nil {
			conf = *resp.Confidence
		}
		return &pipeline.Translation{Text: strings.TrimSpace(resp.Translation), Confidence: conf}
	}
	return &pipeline.Translation{Text: strings.TrimSpace(content), Confidence: defaultConfidence}
}
