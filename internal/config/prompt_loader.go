package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultPromptDir is the subdirectory within the user's home directory
// where prompt override files live.
const defaultPromptDir = ".config/linkhive/prompts"

// ResolvePrompt turns a configured prompt value into template text.
// An empty value yields the fallback. A value naming a readable file
// (absolute, relative, or a bare filename under ~/.config/linkhive/prompts)
// is read from disk. Anything else is used verbatim as the template.
func ResolvePrompt(configured, fallback string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return fallback, nil
	}

	if content, ok, err := readPromptFile(configured); err != nil {
		return "", err
	} else if ok {
		return content, nil
	}

	if !filepath.IsAbs(configured) && !strings.ContainsAny(configured, " \n{") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			candidate := filepath.Join(homeDir, defaultPromptDir, configured)
			if content, ok, err := readPromptFile(candidate); err != nil {
				return "", err
			} else if ok {
				return content, nil
			}
		}
	}

	// Not a file: the configured value is the template itself.
	return configured, nil
}

func readPromptFile(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read prompt file '%s': %w", path, err)
	}
	return string(content), true, nil
}
