package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/protocol"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

// ErrEmptyConversation is returned for sessions without any turns.
var ErrEmptyConversation = errors.New("no conversation to summarize")

// Summarizer writes the recap text.
type Summarizer interface {
	Summarize(ctx context.Context, conversation []session.Turn, outputLanguage string) (string, error)
}

// SummaryStore attaches summaries to history records.
type SummaryStore interface {
	UpdateSummary(ctx context.Context, sessionID, summary string) error
}

// Config holds summary export configuration
type Config struct {
	Language       string
	ExportDir      string
	MaxExportFiles int // 0 keeps every file
}

// Generator produces summary_generated replies.
type Generator struct {
	config     Config
	summarizer Summarizer
	store      SummaryStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewGenerator creates a generator. store may be nil.
func NewGenerator(config Config, summarizer Summarizer, store SummaryStore, logger *slog.Logger) (*Generator, error) {
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	if config.ExportDir == "" {
		return nil, fmt.Errorf("export directory cannot be empty")
	}
	if config.MaxExportFiles < 0 {
		return nil, fmt.Errorf("max export files cannot be negative")
	}
	if config.Language == "" {
		config.Language = "english"
	}

	return &Generator{
		config:     config,
		summarizer: summarizer,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Generate summarizes snap, writes the Markdown export and stores the summary.
func (g *Generator) Generate(ctx context.Context, snap session.Snapshot) (*protocol.SummaryGenerated, error) {
	if len(snap.Conversation) == 0 {
		return nil, ErrEmptyConversation
	}

	text, err := g.summarizer.Summarize(ctx, snap.Conversation, g.config.Language)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	info, err := g.export(snap.ID, text)
	if err != nil {
		return nil, err
	}

	if g.store != nil {
		if err := g.store.UpdateSummary(ctx, snap.ID, text); err != nil {
			g.logger.Warn("Failed to store summary",
				slog.String("session_id", snap.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	g.logger.Info("Summary generated",
		slog.String("session_id", snap.ID),
		slog.Int("turns", len(snap.Conversation)),
		slog.String("file", info.Filename),
	)

	return &protocol.SummaryGenerated{
		Summary:  text,
		FileInfo: info,
		Success:  true,
	}, nil
}

func (g *Generator) export(sessionID, text string) (*protocol.FileInfo, error) {
	if err := os.MkdirAll(g.config.ExportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	now := g.now()
	filename := fmt.Sprintf("summary_%s_%s.md", now.Format("20060102_150405"), sessionID)
	path := filepath.Join(g.config.ExportDir, filename)

	if err := os.WriteFile(path, []byte(render(sessionID, text, now)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat summary: %w", err)
	}

	if err := g.cleanup(path); err != nil {
		g.logger.Warn("Failed to clean up old summaries", slog.String("error", err.Error()))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &protocol.FileInfo{
		Filename:  filename,
		Path:      abs,
		Size:      st.Size(),
		CreatedAt: now,
	}, nil
}

func render(sessionID, text string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Summary on Details\n\n")
	fmt.Fprintf(&b, "**Created At:** %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Session ID:** %s\n\n", sessionID)
	b.WriteString("---\n\n")
	b.WriteString("## Summary Content:\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n---\n\n")
	b.WriteString("*This summary was generated automatically from the translation session.*\n")
	return b.String()
}

// cleanup removes the oldest summary exports beyond MaxExportFiles. The
// export at keep always survives.
func (g *Generator) cleanup(keep string) error {
	if g.config.MaxExportFiles == 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(g.config.ExportDir, "summary_*.md"))
	if err != nil {
		return err
	}
	if len(matches) <= g.config.MaxExportFiles {
		return nil
	}

	type file struct {
		path    string
		modTime time.Time
	}
	files := make([]file, 0, len(matches))
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			continue
		}
		files = append(files, file{path: m, modTime: st.ModTime()})
	}

	// keep first, then newest first; names break mtime ties
	sort.SliceStable(files, func(i, j int) bool {
		if (files[i].path == keep) != (files[j].path == keep) {
			return files[i].path == keep
		}
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].path > files[j].path
	})

	var errs []error
	for _, f := range files[min(g.config.MaxExportFiles, len(files)):] {
		if err := os.Remove(f.path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
