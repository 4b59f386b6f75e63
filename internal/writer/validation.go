package writer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Matches the names NewSessionManager produces, e.g. session_2025-10-30T14-30-00
var sessionNameRegex = regexp.MustCompile(`^session_\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}$`)

// ValidateSessionPath checks a session directory name before it is joined
// onto OutputDir. Session names arrive as user input on the sessions command,
// so anything that is not a bare, well-formed session directory name is
// rejected: traversal sequences, absolute paths, path separators, and names
// whose resolved path would land outside the output directory.
func ValidateSessionPath(sessionName string) error {
	if sessionName == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if strings.Contains(sessionName, "..") {
		return fmt.Errorf("invalid session name %q: traversal sequence", sessionName)
	}

	if filepath.IsAbs(sessionName) || strings.ContainsAny(sessionName, `/\`) {
		return fmt.Errorf("invalid session name %q: must be a bare directory name", sessionName)
	}

	if !sessionNameRegex.MatchString(sessionName) {
		return fmt.Errorf("invalid session name %q: expected session_YYYY-MM-DDTHH-MM-SS", sessionName)
	}

	absOutput, err := filepath.Abs(OutputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	absSession, err := filepath.Abs(filepath.Join(OutputDir, sessionName))
	if err != nil {
		return fmt.Errorf("failed to resolve session path: %w", err)
	}

	// Separator suffix so a sibling like output-backup can never pass as a
	// prefix match.
	if !strings.HasPrefix(absSession, absOutput+string(filepath.Separator)) {
		return fmt.Errorf("session path %q escapes the output directory", sessionName)
	}

	return nil
}
