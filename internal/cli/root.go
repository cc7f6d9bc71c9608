package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"repocast/internal/config"
	"repocast/internal/contextbuilder"
	"repocast/internal/httpapi"
	"repocast/internal/observability"
	"repocast/internal/podcast"
	"repocast/internal/progress"
	"repocast/internal/tts"
	"repocast/internal/wiring"

	"github.com/spf13/cobra"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "repocast",
	Short: "Turn a public GitHub repo into an architecture diagram, a narrated podcast, or a voice Q&A session",
	RunE: func(cmd *cobra.Command, args []string) error {
		flagTUI = true
		return runGenerate(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repocast %s\n", Version)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a two-speaker podcast episode narrating a repository's architecture",
	RunE:  runGenerate,
}

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Generate an architecture diagram for a repository",
	RunE:  runDiagram,
}

var listVoicesCmd = &cobra.Command{
	Use:   "list-voices",
	Short: "List available voices for all TTS providers",
	RunE:  runListVoices,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP+SSE API server",
	RunE:  runServe,
}

var (
	flagRepoURL      string
	flagOutput       string
	flagTone         string
	flagDurationMin  int
	flagVoiceHost    string
	flagVoiceExpert  string
	flagVerbose      bool
	flagTUI          bool
	flagTTS          string
	flagTTSModel     string
	flagGitHubToken  string
	flagAnthropicKey string
	flagGeminiKey    string
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(listVoicesCmd)
	rootCmd.AddCommand(serveCmd)

	generateCmd.Flags().StringVarP(&flagRepoURL, "repo", "r", "", "Public GitHub repository URL to narrate")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output MP3 path (default: auto-named in ./data)")
	generateCmd.Flags().StringVarP(&flagTone, "tone", "n", "casual", "Conversation tone: casual, technical, educational")
	generateCmd.Flags().IntVarP(&flagDurationMin, "duration", "d", 5, "Target episode length in minutes")
	generateCmd.Flags().StringVar(&flagVoiceHost, "voice-host", "", "Voice ID for the host speaker")
	generateCmd.Flags().StringVar(&flagVoiceExpert, "voice-expert", "", "Voice ID for the expert speaker")
	generateCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable detailed logging")
	generateCmd.Flags().BoolVarP(&flagTUI, "tui", "t", false, "Interactive setup wizard for generation options")
	generateCmd.Flags().StringVarP(&flagTTS, "tts", "T", "", "TTS provider: gemini, elevenlabs, google, polly (default from TTS_PROVIDER env)")
	generateCmd.Flags().StringVar(&flagTTSModel, "tts-model", "", "TTS model ID override")
	generateCmd.Flags().StringVar(&flagGitHubToken, "github-token", "", "GitHub token (overrides GITHUB_TOKEN env var, raises the unauthenticated rate limit)")
	generateCmd.Flags().StringVar(&flagAnthropicKey, "anthropic-api-key", "", "Anthropic API key (overrides ANTHROPIC_API_KEY env var)")
	generateCmd.Flags().StringVar(&flagGeminiKey, "gemini-api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")

	diagramCmd.Flags().StringVarP(&flagRepoURL, "repo", "r", "", "Public GitHub repository URL to diagram")
	diagramCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output path for the graph text (default: stdout)")
	diagramCmd.Flags().StringVar(&flagGitHubToken, "github-token", "", "GitHub token (overrides GITHUB_TOKEN env var)")
	diagramCmd.Flags().StringVar(&flagAnthropicKey, "anthropic-api-key", "", "Anthropic API key (overrides ANTHROPIC_API_KEY env var)")
	diagramCmd.Flags().StringVar(&flagGeminiKey, "gemini-api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
}

func Execute() error {
	return rootCmd.Execute()
}

func loadCLIConfig() config.Config {
	cfg := config.Load()
	if flagGitHubToken != "" {
		cfg.GitHubToken = flagGitHubToken
	}
	if flagAnthropicKey != "" {
		cfg.AnthropicAPIKey = flagAnthropicKey
	}
	if flagGeminiKey != "" {
		cfg.GeminiAPIKey = flagGeminiKey
	}
	if flagTTS != "" {
		cfg.TTSProvider = flagTTS
	}
	if flagTTSModel != "" {
		cfg.TTSModel = flagTTSModel
	}
	return cfg
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if flagTUI {
		if err := runInteractiveSetup(); err != nil {
			return err
		}
	}

	if flagRepoURL == "" {
		return fmt.Errorf("either --repo (-r) or the interactive wizard (-t) is required")
	}

	validTones := map[string]bool{"casual": true, "technical": true, "educational": true}
	if !validTones[flagTone] {
		return fmt.Errorf("invalid tone %q: must be casual, technical, or educational", flagTone)
	}
	if flagDurationMin < 1 || flagDurationMin > 60 {
		return fmt.Errorf("invalid duration %d: must be between 1 and 60 minutes", flagDurationMin)
	}

	cfg := loadCLIConfig()
	if err := checkAPIKeys(cfg); err != nil {
		return err
	}
	if err := checkFFmpeg(); err != nil {
		return err
	}

	workDir := filepath.Join(cfg.StoreRoot, "cli-builds")
	ctx := cmd.Context()
	app, err := wiring.Build(ctx, cfg, workDir)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	voices := podcast.VoiceSettings{HostVoiceID: flagVoiceHost, ExpertVoiceID: flagVoiceExpert}

	var sender podcast.Sender = podcast.NullSender{}
	var renderer *progress.BarRenderer
	start := time.Now()
	if !flagVerbose {
		renderer = progress.NewBarRenderer(os.Stdout)
		defer renderer.Finish()
		sender = &barSender{renderer: renderer, start: start}
	}

	rec, err := app.PodcastBuilder.GetOrBuild(ctx, flagRepoURL, flagDurationMin, flagTone, voices, sender)
	if err != nil {
		return fmt.Errorf("generate podcast: %w", err)
	}

	if flagOutput != "" {
		if err := os.Rename(rec.AudioFile, flagOutput); err != nil {
			return fmt.Errorf("move output to %s: %w", flagOutput, err)
		}
		rec.AudioFile = flagOutput
	}

	if flagVerbose {
		fmt.Printf("Episode saved to %s\n", rec.AudioFile)
		if len(rec.Warnings) > 0 {
			fmt.Printf("Warnings: %s\n", strings.Join(rec.Warnings, "; "))
		}
	} else {
		sizeMB := 0.0
		if info, statErr := os.Stat(rec.AudioFile); statErr == nil {
			sizeMB = float64(info.Size()) / (1024 * 1024)
		}
		renderer.Handle(progress.Event{
			Stage:      progress.StageComplete,
			Message:    "podcast ready",
			OutputFile: rec.AudioFile,
			SizeMB:     sizeMB,
		})
	}
	return nil
}

// barSender adapts podcast.Event onto progress.Event so BarRenderer, built
// for a single-binary CLI, keeps working unchanged.
type barSender struct {
	renderer *progress.BarRenderer
	start    time.Time
}

func (s *barSender) Send(ev podcast.Event) {
	stage := progress.Stage(ev.Stage)
	switch ev.Stage {
	case "cache", "done":
		stage = progress.StageComplete
	}
	pe := progress.NewEvent(stage, ev.Message, ev.Progress, s.start)
	if ev.Type == podcast.EventError {
		pe.Error = fmt.Errorf("%s", ev.Message)
	}
	s.renderer.Handle(pe)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := observability.InitLogger()
	ctx := cmd.Context()

	cfg := config.Load()
	if err := cfg.LoadSecrets(ctx, logger); err != nil {
		logger.Warn("failed to load secrets, falling back to env vars", "error", err)
	}

	workDir := filepath.Join(cfg.StoreRoot, "cli-builds")
	app, err := wiring.Build(ctx, cfg, workDir)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	srv := &httpapi.Server{
		Ingester:           app.Ingester,
		DiagramPipeline:    app.DiagramPipeline,
		PodcastBuilder:     app.PodcastBuilder,
		VoiceManager:       app.VoiceManager,
		ModelContextWindow: cfg.ModelContextWindow,
		Logger:             logger,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting REST+SSE server", "addr", addr)
	return http.ListenAndServe(addr, srv.Routes())
}

func runDiagram(cmd *cobra.Command, args []string) error {
	if flagRepoURL == "" {
		return fmt.Errorf("--repo (-r) is required")
	}

	cfg := loadCLIConfig()
	ctx := cmd.Context()

	workDir := filepath.Join(cfg.StoreRoot, "cli-builds")
	app, err := wiring.Build(ctx, cfg, workDir)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	snap, err := app.Ingester.Parse(ctx, flagRepoURL)
	if err != nil {
		return fmt.Errorf("ingest repository: %w", err)
	}
	pc := contextbuilder.Build(snap, contextbuilder.PurposeDiagram, cfg.ModelContextWindow)
	artifact, err := app.DiagramPipeline.Generate(ctx, pc)
	if err != nil {
		return fmt.Errorf("generate diagram: %w", err)
	}

	if flagOutput == "" {
		fmt.Println(artifact.GraphText)
		return nil
	}
	return os.WriteFile(flagOutput, []byte(artifact.GraphText), 0o644)
}

func runListVoices(cmd *cobra.Command, args []string) error {
	providers := []struct {
		name  string
		label string
	}{
		{"gemini", "GEMINI"},
		{"elevenlabs", "ELEVENLABS"},
		{"google", "GOOGLE CLOUD TTS"},
		{"polly", "AMAZON POLLY"},
	}

	fmt.Println("\nAvailable voices:")

	for _, p := range providers {
		voices, err := tts.AvailableVoices(p.name)
		if err != nil {
			return err
		}

		fmt.Printf("\n  %s\n", p.label)
		fmt.Printf("  %s\n", strings.Repeat("─", 50))
		fmt.Printf("  %-28s %-12s %-8s %s\n", "ID", "NAME", "GENDER", "DESCRIPTION")
		for _, v := range voices {
			def := ""
			if v.DefaultFor != "" {
				def = fmt.Sprintf(" (default %s)", v.DefaultFor)
			}
			fmt.Printf("  %-28s %-12s %-8s %s%s\n", v.ID, v.Name, v.Gender, v.Description, def)
		}
	}
	fmt.Println()
	return nil
}

func checkAPIKeys(cfg config.Config) error {
	hasKey := func(v string) bool { return v != "" }

	var needed []string
	switch cfg.LLMProvider {
	case "claude":
		if !hasKey(cfg.AnthropicAPIKey) {
			needed = append(needed, "ANTHROPIC_API_KEY")
		}
	case "gemini":
		if !hasKey(cfg.GeminiAPIKey) {
			needed = append(needed, "GEMINI_API_KEY")
		}
	case "bedrock-nova":
		// uses the AWS SDK's default credential chain
	}

	switch cfg.TTSProvider {
	case "elevenlabs":
		if !hasKey(cfg.ElevenLabsAPIKey) {
			needed = append(needed, "ELEVENLABS_API_KEY")
		}
	case "gemini":
		if !hasKey(cfg.GeminiAPIKey) {
			needed = append(needed, "GEMINI_API_KEY")
		}
	case "google", "polly":
		// uses Application Default Credentials / the AWS SDK credential chain
	}

	if len(needed) > 0 {
		return fmt.Errorf("missing required environment variable(s): %s\nYou can also pass these via --anthropic-api-key, --gemini-api-key flags", strings.Join(needed, ", "))
	}
	return nil
}

func checkFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("FFmpeg not found — install with: brew install ffmpeg")
	}
	return nil
}
