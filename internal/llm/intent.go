package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/pipeline"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

const intentPrompt = `You classify transcribed speech from a live translation app.
Decide whether the current text is a direct, actionable request to translate something.

Input:
[History] a JSON array of the most recent utterances, possibly empty.
[Transcribed Text] what the user just said.

Return "translate" when:
- the text names both the content and the target language ("translate good morning into Spanish");
- the text is a short follow-up whose content lives in the history ("and in German?", "say that in French").
  Walk back through the history past earlier translation commands to the original statement;
- the text asks what a phrase means; the target is the main conversation language;
- the request is embedded in a longer sentence; keep only the request.

Return "do_not_translate" when the user talks about translation itself, quotes someone,
describes a hypothetical, or the history shows the topic is unrelated.

source_text must contain only the words to translate, with every command phrase removed.
target_language must be a BCP 47 tag such as zh-CN, en-US, ja-JP, ko-KR, fr-FR, de-DE, es-ES,
it-IT, pt-PT, ru-RU, vi-VN, ar-SA or tl-PH, or empty when none was requested.

Reply with JSON only:
{"intent": "translate" | "do_not_translate", "source_text": "...", "target_language": "..."}`

type intentResponse struct {
	Intent         string `json:"intent"`
	SourceText     string `json:"source_text"`
	TargetLanguage string `json:"target_language"`
}

type historyEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Classify decides whether text is a translation request, using the recent
// turns to resolve follow-ups and pronouns.
func (c *Client) Classify(ctx context.Context, recent []session.Turn, text string) (*pipeline.IntentResult, error) {
	history := make([]historyEntry, 0, len(recent))
	for _, t := range recent {
		history = append(history, historyEntry{Speaker: "user", Text: t.SourceText})
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf("[History]\n%s\n\n[Transcribed Text]\n%s\n", historyJSON, text)
	content, err := c.complete(ctx, intentPrompt, user, c.config.IntentTemperature, 0)
	if err != nil {
		return nil, err
	}

	var resp intentResponse
	if err := unmarshalJSON(content, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(resp.Intent)) {
	case string(pipeline.IntentTranslate):
		return &pipeline.IntentResult{
			Intent:         pipeline.IntentTranslate,
			SourceText:     strings.TrimSpace(resp.SourceText),
			TargetLanguage: language.Normalize(resp.TargetLanguage),
		}, nil
	case string(pipeline.IntentDoNotTranslate):
		return &pipeline.IntentResult{Intent: pipeline.IntentDoNotTranslate}, nil
	default:
		return nil, fmt.Errorf("unknown intent %q", resp.Intent)
	}
}
