package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"opencodex/internal/agent"
	"opencodex/internal/approval"
	"opencodex/internal/config"
	"opencodex/internal/llm"
	"opencodex/internal/logging"
	"opencodex/internal/sandbox"
	"opencodex/internal/session"
	"opencodex/internal/tools"
	"opencodex/internal/tools/applypatch"
	"opencodex/internal/tools/core"
	"opencodex/internal/tools/shell"
)

// version is set via -ldflags at build time.
var version = "dev"

var (
	// Global flags
	flagModel        string
	flagBaseURL      string
	flagCwd          string
	flagApproval     string
	flagAutoEdit     bool
	flagFullAuto     bool
	flagNoProjectDoc bool
	flagProjectDoc   string
	flagFullStdout   bool
	flagQuiet        bool
	flagDebug        bool
	flagEditConfig   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codex [prompt]",
	Short: "codex - a lightweight coding agent for local Ollama models",
	Long: `codex is a terminal coding agent that talks to a self-hosted Ollama
server. The model can read files, search, run sandboxed shell commands and
apply structured patches; anything that mutates the workspace goes through
the approval policy first.

Run without arguments to start the interactive chat interface, or pass a
prompt to seed the first turn.`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if flagDebug {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		dir, err := config.Dir()
		if err != nil {
			return err
		}
		return logging.Initialize(dir, flagDebug || os.Getenv("CODEX_DEBUG") == "1")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagEditConfig {
			return editConfig()
		}

		cfg, err := loadRuntimeConfig()
		if err != nil {
			return err
		}

		prompt := strings.TrimSpace(strings.Join(args, " "))
		if flagQuiet {
			if prompt == "" {
				return fmt.Errorf("quiet mode requires a prompt argument")
			}
			return runQuiet(cfg, prompt)
		}
		return runInteractiveChat(cfg, prompt)
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the Ollama server",
	RunE:  runModels,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List recorded sessions, or replay one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessions,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the codex version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codex %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Model to use (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Ollama server URL (or set OLLAMA_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagCwd, "cwd", "", "Working directory (default: current)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&flagApproval, "approval-mode", "a", "", "Approval policy: suggest, auto-edit, full-auto")
	rootCmd.Flags().BoolVar(&flagAutoEdit, "auto-edit", false, "Auto-approve file edits (same as -a auto-edit)")
	rootCmd.Flags().BoolVar(&flagFullAuto, "full-auto", false, "Auto-approve edits and commands (same as -a full-auto)")
	rootCmd.Flags().BoolVar(&flagNoProjectDoc, "no-project-doc", false, "Do not include the repository codex.md")
	rootCmd.Flags().StringVar(&flagProjectDoc, "project-doc", "", "Include an additional markdown file as context")
	rootCmd.Flags().BoolVar(&flagFullStdout, "full-stdout", false, "Do not truncate command output")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Non-interactive mode: print the final answer and exit")
	rootCmd.Flags().BoolVarP(&flagEditConfig, "config", "c", false, "Open the instructions file in $EDITOR and exit")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntimeConfig loads stored config and layers CLI flags on top.
func loadRuntimeConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagApproval != "" {
		cfg.ApprovalMode = flagApproval
	}
	if flagAutoEdit {
		cfg.ApprovalMode = "auto-edit"
	}
	if flagFullAuto {
		cfg.ApprovalMode = "full-auto"
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Validate early so a typo fails before the UI starts.
	if _, err := approval.ParseMode(cfg.ApprovalMode); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveCwd returns the effective working directory.
func resolveCwd() (string, error) {
	if flagCwd != "" {
		return filepath.Abs(flagCwd)
	}
	return os.Getwd()
}

// buildAgent wires the client, tool registry and approval policy together.
func buildAgent(cfg *config.Config) (*agent.Agent, string, error) {
	cwd, err := resolveCwd()
	if err != nil {
		return nil, "", err
	}

	mode, err := approval.ParseMode(cfg.ApprovalMode)
	if err != nil {
		return nil, "", err
	}

	client := llm.NewOllamaClient(cfg.BaseURL, 0)

	writableRoots := cfg.Execution.WritableRoots
	if len(writableRoots) == 0 {
		writableRoots = []string{cwd}
	}
	sb := sandbox.New(writableRoots)

	registry := tools.NewRegistry()
	if err := core.RegisterAll(registry); err != nil {
		return nil, "", err
	}
	if err := shell.RegisterAll(registry, sb, flagFullStdout); err != nil {
		return nil, "", err
	}
	if err := applypatch.Register(registry, cwd); err != nil {
		return nil, "", err
	}

	systemPrompt, err := assembleSystemPrompt(cfg, cwd)
	if err != nil {
		return nil, "", err
	}

	logger.Debug("agent assembled",
		zap.String("model", cfg.Model),
		zap.String("cwd", cwd),
		zap.String("approval", mode.String()),
		zap.Int("tools", registry.Count()))

	return agent.New(agent.Options{
		Client:       client,
		Registry:     registry,
		Policy:       approval.NewPolicy(mode),
		Model:        cfg.Model,
		Cwd:          cwd,
		SystemPrompt: systemPrompt,
	}), cwd, nil
}

// assembleSystemPrompt combines user instructions with the project doc.
func assembleSystemPrompt(cfg *config.Config, cwd string) (string, error) {
	parts := []string{basePrompt(cwd)}
	if cfg.Instructions != "" {
		parts = append(parts, cfg.Instructions)
	}
	if !flagNoProjectDoc {
		doc, err := config.LoadProjectDoc(cwd, flagProjectDoc)
		if err != nil {
			return "", err
		}
		if doc != "" {
			parts = append(parts, "Project notes:\n\n"+doc)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func basePrompt(cwd string) string {
	return fmt.Sprintf(`You are codex, a coding agent running in a terminal at %s.

Work in small steps. Use the tools to inspect the repository before
changing it. Prefer apply_patch for file edits so the user can review a
diff. Shell commands run in a sandbox; cd does not persist, pass
working_dir instead. When the task is complete, summarize what changed.`, cwd)
}

// openSessionStore opens the transcript database when memory is enabled.
// Returns nil without error when disabled.
func openSessionStore(cfg *config.Config) (*session.Store, error) {
	if !cfg.Memory.Enabled {
		return nil, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return session.Open(filepath.Join(dir, "sessions.db"))
}

// editConfig opens the user instructions file in $EDITOR, creating it
// first when missing. A running session picks the change up through the
// instructions watcher.
func editConfig() error {
	path, err := config.InstructionsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
