package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the built-in prompts, one <name>.txt per prompt, plus the
// README seeded next to them.
//
//go:embed defaults
var defaults embed.FS

// PromptStore serves prompts from a directory of user-editable text files.
//
// The directory is seeded with the built-in prompts on first use. A file
// is re-read whenever its size or modification time changes, so edits
// reach a running server without a restart. Known prompts fall back to
// the built-in text when their file is missing or blank.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	text string
	mod  time.Time
	size int64
}

// NewPromptStore returns a store rooted at dir, or ~/.policyqa/prompts when
// dir is empty. Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the current text of the named prompt.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompt(name)
	s.seedOnce.Do(s.seed)

	path := filepath.Join(s.dir, name+".txt")
	info, err := os.Stat(path)
	if err != nil {
		if known {
			return builtin, nil
		}
		if s.seedErr != nil {
			return "", fmt.Errorf("load prompt %q: %w", name, s.seedErr)
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	c, ok := s.cache[name]
	s.mu.Unlock()
	if ok && c.size == info.Size() && c.mod.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if known {
			logger.Warn("Reading %s: %v, using built-in prompt", path, err)
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" && known {
		logger.Warn("%s is blank, using built-in prompt", path)
		text = builtin
	}
	if name == driven.PromptPolicySystem && !strings.Contains(text, "JSON") {
		logger.Warn("%s no longer asks for JSON, answers will be returned unparsed", path)
	}

	s.mu.Lock()
	s.cache[name] = cachedPrompt{text: text, mod: info.ModTime(), size: info.Size()}
	s.mu.Unlock()
	return text, nil
}

// Reload drops every cached prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedPrompt)
}

// seed copies built-in files that are missing from the directory. Existing
// files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	entries, err := defaults.ReadDir("defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, e := range entries {
		dst := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaults.ReadFile("defaults/" + e.Name())
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", e.Name(), err)
			return
		}
	}
}

func builtinPrompt(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	data, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
