// Package file provides append-only file storage adapters.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

// FeedbackFileName is the log written inside the storage directory.
const FeedbackFileName = "feedback.tsv"

// Ensure FeedbackLog implements the interface.
var _ driven.FeedbackLog = (*FeedbackLog)(nil)

// FeedbackLog appends one tab-separated line per feedback entry:
// answer_id, helpful, comment.
type FeedbackLog struct {
	mu   sync.Mutex
	path string
}

// NewFeedbackLog creates a log at <dir>/feedback.tsv.
// The directory is created on first append.
func NewFeedbackLog(dir string) *FeedbackLog {
	return &FeedbackLog{path: filepath.Join(dir, FeedbackFileName)}
}

// Path returns the log file path.
func (l *FeedbackLog) Path() string {
	return l.path
}

// Append records one feedback entry.
func (l *FeedbackLog) Append(ctx context.Context, feedback domain.Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(feedback.AnswerID) == "" {
		return fmt.Errorf("%w: answer_id is required", domain.ErrInvalidInput)
	}

	line := strings.Join([]string{
		sanitise(feedback.AnswerID),
		strconv.FormatBool(feedback.Helpful),
		sanitise(feedback.Comment),
	}, "\t") + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("create feedback directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write feedback: %w", err)
	}
	return f.Close()
}

// sanitise keeps a field on one line and in one column.
func sanitise(s string) string {
	return strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
