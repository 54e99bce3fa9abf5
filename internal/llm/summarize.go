package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skypro1111/voice-translate-service/internal/session"
)

// ErrEmptyConversation is returned when there is nothing to summarize.
var ErrEmptyConversation = errors.New("conversation is empty")

const summaryPrompt = `You are a conversation analyst. Turn the translation session below into a clear,
well structured Markdown recap written in %[1]s.

Use these sections:
- **Overview**: when the session happened and which languages were involved.
- **Goal**: one sentence on what the session was about.
- **Story**: how the conversation developed and its key exchanges.
- **Language dynamics**: how the languages alternated and how technical the vocabulary was.
- **Learning notes**: idiomatic alternatives, cultural notes, grammar hints and synonyms from the conversation.
- **Wrap-up**: one or two encouraging sentences.

Write everything in %[1]s.`

// Summarize writes a Markdown recap of the conversation in the given output
// language (an English language name such as "english").
func (c *Client) Summarize(ctx context.Context, conversation []session.Turn, outputLanguage string) (string, error) {
	if len(conversation) == 0 {
		return "", ErrEmptyConversation
	}
	if outputLanguage == "" {
		outputLanguage = "english"
	}

	var b strings.Builder
	for _, t := range conversation {
		fmt.Fprintf(&b, "[%s] user (%s): %s\n", t.Timestamp.Format("15:04:05"), t.SourceLanguage, t.SourceText)
		fmt.Fprintf(&b, "[%s] translation (%s): %s\n", t.Timestamp.Format("15:04:05"), t.TargetLanguage, t.TargetText)
	}

	user := fmt.Sprintf("[Conversation]\n%s\n[Language]\n%s\n", b.String(), outputLanguage)
	return c.complete(ctx, fmt.Sprintf(summaryPrompt, outputLanguage), user, c.config.SummaryTemperature, c.config.SummaryMaxTokens)
}
