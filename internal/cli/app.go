// Package cli provides the vizchat command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/anuvratrastogi/vizchat/config"
	"github.com/anuvratrastogi/vizchat/internal/agents/answer"
	sqlagent "github.com/anuvratrastogi/vizchat/internal/agents/sql"
	"github.com/anuvratrastogi/vizchat/internal/cache"
	"github.com/anuvratrastogi/vizchat/internal/logging"
	"github.com/anuvratrastogi/vizchat/internal/orchestrator"
	"github.com/anuvratrastogi/vizchat/internal/semantic"
	"github.com/anuvratrastogi/vizchat/pkg/localllm"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "vizchat",
		Short: "Ask questions about your PostgreSQL data and get charts back",
		Long: `vizchat turns business questions into read-only SQL, runs them against
PostgreSQL, picks a visualization for the result and explains it.

Configuration is read from the environment (DATABASE_URL, LLM_PROVIDER,
GOOGLE_API_KEY, LLM_MODEL, LOCAL_LLM_URL, REDIS_URL, SEMANTIC_LAYER_PATH, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newReplCmd(),
		app.newAskCmd(),
		app.newRenderCmd(),
		app.newMCPCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithInput sets the reader used by the REPL.
func (a *App) WithInput(stdin io.Reader) *App {
	a.stdin = stdin
	a.root.SetIn(stdin)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "vizchat version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
		},
	}
}

// services is everything a question needs, built from the environment.
type services struct {
	cfg      *config.Config
	db       *sqlagent.Client
	cache    *cache.Cache
	pipeline *orchestrator.Orchestrator
}

func (s *services) Close() {
	if s.cache != nil {
		logging.Info().
			Add(logging.Component("cache")).
			Add(logging.CacheStats(s.cache.Stats())).
			Msg("response cache closed")
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// initLogging configures the default logger from cfg, writing to stderr.
func (a *App) initLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: a.stderr,
	})
}

func (a *App) bootstrap(ctx context.Context) (*services, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	a.initLogging(cfg)
	log := logging.Component("cli")

	llm, err := newLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := &services{cfg: cfg}
	svc.db, err = sqlagent.NewClient(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	schema, err := svc.db.DescribeDatabase(ctx)
	if err != nil {
		logging.Warn().Add(log).Add(logging.ErrorField(err)).Msg("could not load database schema")
		schema = ""
	}

	var semanticContext string
	if cfg.SemanticLayerPath != "" {
		layer, err := semantic.Load(cfg.SemanticLayerPath)
		if err != nil {
			svc.Close()
			return nil, err
		}
		semanticContext = layer.Prompt()
	}

	generator, err := sqlagent.NewGenerator(sqlagent.GeneratorConfig{
		Model:           llm,
		DatabaseSchema:  schema,
		SemanticContext: semanticContext,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	writer, err := answer.New(llm)
	if err != nil {
		svc.Close()
		return nil, err
	}

	orchCfg := orchestrator.Config{
		Generator: generator,
		Answerer:  writer,
		Database:  svc.db,
		RowLimit:  cfg.QueryRowLimit,
	}
	if cfg.CacheEnabled() {
		svc.cache, err = cache.New(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logging.Warn().Add(log).Add(logging.ErrorField(err)).Msg("response cache disabled")
		} else {
			orchCfg.Cache = svc.cache
		}
	}

	svc.pipeline, err = orchestrator.New(orchCfg)
	if err != nil {
		svc.Close()
		return nil, err
	}

	logging.Info().
		Add(log).
		Add(logging.Str("provider", string(cfg.LLMProvider))).
		Add(logging.Str("model", cfg.Model)).
		Add(logging.Cached(svc.cache != nil)).
		Msg("pipeline ready")
	return svc, nil
}

func newLLM(ctx context.Context, cfg *config.Config) (model.LLM, error) {
	if cfg.IsLocalLLM() {
		return localllm.New(localllm.Config{
			BaseURL: cfg.LocalLLMURL,
			Model:   cfg.Model,
		}), nil
	}
	llm, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.GoogleAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini model: %w", err)
	}
	return llm, nil
}
