package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lamim/blogforge/pkg/models"
)

// OutcomeFilename is the per-session pipeline outcome record
const OutcomeFilename = "outcome.json"

// Stage artifact filenames by role
var artifactNames = map[models.Role]string{
	models.RoleResearcher: "research.md",
	models.RoleWriter:     "draft.md",
	models.RoleEditor:     "post.md",
}

// OutcomeRecord is what gets persisted per session: the submitted topic plus
// the terminal pipeline outcome.
type OutcomeRecord struct {
	Topic string `json:"topic"`
	models.PipelineOutcome
}

// ArtifactPath returns the artifact filename for a role within the session
func (sm *SessionManager) ArtifactPath(role models.Role) string {
	return filepath.Join(sm.sessionDir, artifactNames[role])
}

// SaveStageArtifact writes a stage's accepted content to its artifact file
func (sm *SessionManager) SaveStageArtifact(role models.Role, content string) error {
	path := sm.ArtifactPath(role)
	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s artifact: %w", role, err)
	}
	sm.logger.Debug("Saved stage artifact", "role", role, "path", path)
	return nil
}

// SaveOutcome persists the pipeline outcome record for the session
func (sm *SessionManager) SaveOutcome(topic string, outcome models.PipelineOutcome) error {
	record := OutcomeRecord{Topic: topic, PipelineOutcome: outcome}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	path := filepath.Join(sm.sessionDir, OutcomeFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write outcome record: %w", err)
	}

	sm.logger.Info("Saved outcome record", "path", path, "success", outcome.Success)
	return nil
}

// LoadOutcome reads the outcome record from a session directory
func LoadOutcome(sessionDir string) (*OutcomeRecord, error) {
	data, err := os.ReadFile(filepath.Join(sessionDir, OutcomeFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read outcome record: %w", err)
	}

	var record OutcomeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse outcome record: %w", err)
	}

	return &record, nil
}
