package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lamim/blogforge/internal/api"
	"github.com/lamim/blogforge/internal/config"
	"github.com/lamim/blogforge/internal/metrics"
	"github.com/lamim/blogforge/internal/pipeline"
	"github.com/lamim/blogforge/internal/server"
	"github.com/lamim/blogforge/internal/writer"
	"github.com/lamim/blogforge/pkg/models"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	envFile    string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blogforge",
		Short: "BlogForge - three-stage blog post generator",
		Long: `BlogForge generates blog posts through a three-stage LLM pipeline:
1. Research the topic (key points, facts, sections)
2. Write a full draft from the research
3. Edit the draft into the final, polished post`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	runCmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Generate a blog post for a topic",
		Long: `Run one pipeline invocation for the given topic. Stage artifacts
(research.md, draft.md, post.md) and the outcome record are written to a
timestamped session directory under output/.`,
		Args: cobra.ExactArgs(1),
		RunE: runGeneration,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP entry point",
		Long: `Serve the pipeline over HTTP: POST /api/posts submits a topic,
GET /api/posts/:id polls per-stage status and fetches the finished post.`,
		RunE: runServer,
	}

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List past generation sessions",
		Long:  "List session directories under output/ with their topics and outcomes",
		RunE:  listSessions,
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the env file, the configuration, and the secrets, and verifies
// that every pipeline role has a usable credential before anything runs.
func setup() (*config.Config, *config.Secrets, error) {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
			}
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	cfg, secrets, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.ResolveKeys(secrets); err != nil {
		return nil, nil, err
	}

	return cfg, secrets, nil
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func runGeneration(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(args[0])
	if topic == "" {
		return fmt.Errorf("topic must not be empty")
	}

	cfg, secrets, err := setup()
	if err != nil {
		return err
	}

	sessionMgr, err := writer.NewSessionManager(slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	logger, logFile, err := writer.SetupLogger(sessionMgr, logLevel())
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()

	logger.Info("BlogForge starting",
		"version", Version,
		"config", configPath,
		"session_dir", sessionMgr.GetSessionDir())

	if err := sessionMgr.BackupConfig(configPath); err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	apiClient := api.NewClient(logger)
	collector := metrics.NewCollector()
	pipe := pipeline.New(cfg, secrets, apiClient, collector, logger)

	bar := progressbar.Default(int64(len(models.Roles)), "Generating blog post")
	pipe.SetHooks(pipeline.Hooks{
		OnStageStart: func(role models.Role) {
			bar.Describe(fmt.Sprintf("%s is working", role.Display()))
		},
		OnStageDone: func(result models.StageResult) {
			_ = bar.Add(1)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	outcome := pipe.Run(ctx, topic)
	_ = bar.Finish()

	// Persist accepted stage artifacts and the outcome record even when a
	// later stage failed; a rejected result is never saved as content.
	for _, stage := range outcome.Stages {
		if stage.Accepted() {
			if err := sessionMgr.SaveStageArtifact(stage.Role, stage.SanitizedText); err != nil {
				logger.Error("Failed to save stage artifact", "role", stage.Role, "error", err)
			}
		}
	}
	if err := sessionMgr.SaveOutcome(topic, outcome); err != nil {
		logger.Error("Failed to save outcome record", "error", err)
	}

	stats := pipeline.Stats(outcome, start)
	logger.Info("Session finished",
		"stages_run", stats.StagesRun,
		"stages_completed", stats.StagesCompleted,
		"stages_failed", stats.StagesFailed,
		"duration", stats.TotalDuration,
		"session_dir", sessionMgr.GetSessionDir())

	if !outcome.Success {
		return fmt.Errorf("%s", outcome.FailureMessage)
	}

	fmt.Println()
	fmt.Println(outcome.FinalContent)
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, secrets, err := setup()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))

	apiClient := api.NewClient(logger)
	collector := metrics.NewCollector()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(hooks pipeline.Hooks) server.Runner {
		p := pipeline.New(cfg, secrets, apiClient, collector, logger)
		p.SetHooks(hooks)
		return p
	}

	srv := server.New(ctx, cfg, factory, logger)

	logger.Info("BlogForge serving", "version", Version, "port", cfg.Server.Port)
	return srv.ListenAndServe(ctx)
}

// listSessions lists past generation sessions and their outcomes
func listSessions(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(writer.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No output directory found. Run a generation first.")
			return nil
		}
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	type sessionRow struct {
		name    string
		topic   string
		outcome string
	}

	var sessions []sessionRow
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "session_") {
			continue
		}
		if err := writer.ValidateSessionPath(entry.Name()); err != nil {
			continue
		}

		row := sessionRow{name: entry.Name(), topic: "N/A", outcome: "incomplete"}
		record, err := writer.LoadOutcome(filepath.Join(writer.OutputDir, entry.Name()))
		if err == nil {
			row.topic = record.Topic
			if record.Success {
				row.outcome = "success"
			} else {
				row.outcome = fmt.Sprintf("failed (%s)", record.FailedStage)
			}
		}
		sessions = append(sessions, row)
	}

	if len(sessions) == 0 {
		fmt.Println("No session directories found.")
		return nil
	}

	fmt.Println("Available sessions:")
	fmt.Println()
	fmt.Printf("%-35s %-20s %s\n", "SESSION", "OUTCOME", "TOPIC")
	fmt.Println(strings.Repeat("-", 80))
	for _, s := range sessions {
		topic := s.topic
		if len(topic) > 40 {
			topic = topic[:40] + "..."
		}
		fmt.Printf("%-35s %-20s %s\n", s.name, s.outcome, topic)
	}

	return nil
}

// loadEnvFile loads environment variables from a file
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
