package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lamim/blogforge/internal/api"
	"github.com/lamim/blogforge/internal/config"
	"github.com/lamim/blogforge/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	return &config.Config{
		Models: map[string]config.ModelConfig{
			"default": {
				BaseURL:            "http://localhost:9999/v1",
				ModelName:          "test-model",
				Temperature:        0.7,
				TopP:               1.0,
				MaxOutputTokens:    1024,
				Seed:               42,
				RateLimitPerMinute: 600,
				FollowUpTurns:      -1,
				AllowKeyless:       true,
			},
		},
		Prompts: config.PromptConfig{
			ResearcherInstruction: config.DefaultResearcherInstruction(),
			ResearcherTask:        config.DefaultResearcherTask(),
			WriterInstruction:     config.DefaultWriterInstruction(),
			WriterTask:            config.DefaultWriterTask(),
			EditorInstruction:     config.DefaultEditorInstruction(),
			EditorTask:            config.DefaultEditorTask(),
		},
	}
}

func testSecrets() *config.Secrets {
	return &config.Secrets{APIKeys: map[string]string{"generic": "test-key"}}
}

type stubCall struct {
	instruction string
	task        string
}

// stubCompleter answers calls in order from the responses/errs slices
type stubCompleter struct {
	responses []string
	errs      []error
	delay     time.Duration
	calls     []stubCall
}

func (s *stubCompleter) Complete(_ context.Context, _ config.ModelConfig, _ string, instruction, task string) (string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	i := len(s.calls)
	s.calls = append(s.calls, stubCall{instruction: instruction, task: task})

	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", fmt.Errorf("unexpected call %d", i)
}

func TestPipeline_EndToEndSuccess(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"bullet facts", "a draft paragraph", "a polished paragraph"},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if !outcome.Success {
		t.Fatalf("expected success, got failure: %s", outcome.FailureMessage)
	}
	if outcome.FinalContent != "a polished paragraph" {
		t.Errorf("expected final content %q, got %q", "a polished paragraph", outcome.FinalContent)
	}
	if len(outcome.Stages) != 3 {
		t.Fatalf("expected 3 stage results, got %d", len(outcome.Stages))
	}
	for _, stage := range outcome.Stages {
		if !stage.Accepted() {
			t.Errorf("expected stage %s to be completed, got %s", stage.Role, stage.Status)
		}
	}
	if len(stub.calls) != 3 {
		t.Fatalf("expected 3 completion calls, got %d", len(stub.calls))
	}

	// The researcher receives the topic; each later stage receives the prior
	// stage's accepted output embedded in its task message.
	if !strings.Contains(stub.calls[0].task, "topic X") {
		t.Errorf("expected researcher task to contain the topic, got %q", stub.calls[0].task)
	}
	if !strings.Contains(stub.calls[1].task, "bullet facts") {
		t.Errorf("expected writer task to contain research output, got %q", stub.calls[1].task)
	}
	if !strings.Contains(stub.calls[2].task, "a draft paragraph") {
		t.Errorf("expected editor task to contain the draft, got %q", stub.calls[2].task)
	}
}

func TestPipeline_ShortCircuitsOnResearchRejection(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"No research content generated."},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.FailedStage != models.RoleResearcher {
		t.Errorf("expected failed stage researcher, got %s", outcome.FailedStage)
	}
	if len(stub.calls) != 1 {
		t.Errorf("expected writer and editor clients never invoked, got %d calls", len(stub.calls))
	}
	if outcome.FinalContent != "" {
		t.Errorf("expected no final content on failure, got %q", outcome.FinalContent)
	}
	if !strings.Contains(outcome.FailureMessage, "Researcher") {
		t.Errorf("expected failure message to name the stage, got %q", outcome.FailureMessage)
	}
}

func TestPipeline_WriterRefusalStopsEditor(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"bullet facts", "I cannot create this content."},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.FailedStage != models.RoleWriter {
		t.Errorf("expected failed stage writer, got %s", outcome.FailedStage)
	}
	if len(stub.calls) != 2 {
		t.Errorf("expected editor client never invoked, got %d calls", len(stub.calls))
	}
	if len(outcome.Stages) != 2 {
		t.Errorf("expected 2 stage results, got %d", len(outcome.Stages))
	}
}

func TestPipeline_ServiceUnavailable(t *testing.T) {
	stub := &stubCompleter{
		errs: []error{&api.APIError{Message: "connection refused", StatusCode: 0}},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Stages[0].RejectionReason != "service unavailable" {
		t.Errorf("expected reason %q, got %q", "service unavailable", outcome.Stages[0].RejectionReason)
	}
	if len(stub.calls) != 1 {
		t.Errorf("expected no further stages after client failure, got %d calls", len(stub.calls))
	}
}

func TestPipeline_EmptyCompletion(t *testing.T) {
	stub := &stubCompleter{
		errs: []error{api.ErrEmptyCompletion},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Stages[0].RejectionReason != "empty completion" {
		t.Errorf("expected reason %q, got %q", "empty completion", outcome.Stages[0].RejectionReason)
	}
}

func TestPipeline_SanitizesBeforeValidationAndChaining(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{
			">>>>>>>> USING AUTO REPLY\n## Findings\n- Fact A\nTERMINATE",
			"a draft paragraph",
			"a polished paragraph",
		},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if !outcome.Success {
		t.Fatalf("expected success, got failure: %s", outcome.FailureMessage)
	}
	if outcome.Stages[0].SanitizedText != "## Findings\n- Fact A" {
		t.Errorf("expected sanitized research output, got %q", outcome.Stages[0].SanitizedText)
	}
	if strings.Contains(stub.calls[1].task, "TERMINATE") {
		t.Errorf("expected sanitized text forwarded to writer, got %q", stub.calls[1].task)
	}
	if !strings.Contains(stub.calls[1].task, "## Findings") {
		t.Errorf("expected research findings forwarded to writer, got %q", stub.calls[1].task)
	}
}

func TestPipeline_StageResultsCarryDurations(t *testing.T) {
	delay := 10 * time.Millisecond
	stub := &stubCompleter{
		responses: []string{"bullet facts", "a draft paragraph", "a polished paragraph"},
		delay:     delay,
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	outcome := pipe.Run(context.Background(), "topic X")

	if !outcome.Success {
		t.Fatalf("expected success, got failure: %s", outcome.FailureMessage)
	}
	for _, stage := range outcome.Stages {
		if stage.Duration < delay {
			t.Errorf("expected stage %s duration >= %v, got %v", stage.Role, delay, stage.Duration)
		}
	}
	if outcome.Duration < 3*delay {
		t.Errorf("expected pipeline duration >= %v, got %v", 3*delay, outcome.Duration)
	}
}

func TestPipeline_HooksObserveStageLifecycle(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"bullet facts", "a draft paragraph", "a polished paragraph"},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())

	var started, done []models.Role
	pipe.SetHooks(Hooks{
		OnStageStart: func(role models.Role) { started = append(started, role) },
		OnStageDone:  func(result models.StageResult) { done = append(done, result.Role) },
	})

	pipe.Run(context.Background(), "topic X")

	want := []models.Role{models.RoleResearcher, models.RoleWriter, models.RoleEditor}
	if len(started) != 3 || len(done) != 3 {
		t.Fatalf("expected 3 start and 3 done events, got %d/%d", len(started), len(done))
	}
	for i, role := range want {
		if started[i] != role || done[i] != role {
			t.Errorf("expected stage order %v, got started=%v done=%v", want, started, done)
		}
	}
}

func TestPipeline_CustomSanitizerStrategy(t *testing.T) {
	stub := &stubCompleter{
		responses: []string{"raw-1", "raw-2", "raw-3"},
	}
	pipe := New(testConfig(), testSecrets(), stub, nil, testLogger())
	pipe.SetSanitizer(func(s string) string { return "cleaned:" + s })

	outcome := pipe.Run(context.Background(), "topic X")

	if !outcome.Success {
		t.Fatalf("expected success, got failure: %s", outcome.FailureMessage)
	}
	if outcome.FinalContent != "cleaned:raw-3" {
		t.Errorf("expected injected sanitizer output, got %q", outcome.FinalContent)
	}
}
