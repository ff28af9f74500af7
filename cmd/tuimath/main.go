// Package main provides the CLI entrypoint for tuimath.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuimath/internal/config"
	"github.com/verte-zerg/tuimath/internal/generator"
	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/report"
	"github.com/verte-zerg/tuimath/internal/session"
	"github.com/verte-zerg/tuimath/internal/tui"
	"github.com/verte-zerg/tuimath/internal/typeset"
	"github.com/verte-zerg/tuimath/internal/validate"
)

const (
	defaultDifficulty = string(model.Easy)
	defaultRenderer   = typeset.KindUnicode
	defaultLogLevel   = "info"
)

var (
	practiceOps        string
	practiceDifficulty string
	practiceDuration   int
	practiceCountdown  int

	rendererKind    string
	rendererURL     string
	rendererTimeout time.Duration

	logLevel string
)

var errNotTerminal = errors.New("stdout is not a terminal")

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuimath",
		Short:         "TUI arithmetic trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceOps, "ops", "", "preselected operations, comma separated (add,subtract,multiply,divide,root)")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "difficulty (easy, medium, hard)")
	rootCmd.Flags().IntVar(&practiceDuration, "duration", session.DefaultDuration, "session length in seconds")
	rootCmd.Flags().IntVar(&practiceCountdown, "countdown", session.DefaultCountdown, "countdown before the session starts, in seconds")
	rootCmd.Flags().StringVar(&rendererKind, "renderer", defaultRenderer, "question renderer (unicode, plain, remote)")
	rootCmd.Flags().StringVar(&rendererURL, "renderer-url", "", "symbol table URL, required with --renderer remote")
	rootCmd.Flags().DurationVar(&rendererTimeout, "renderer-timeout", typeset.DefaultTimeout, "how long to wait for the renderer before falling back to plain text")
	rootCmd.Flags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (error, warn, info, debug, trace)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newOpsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	if err := validate.NewValidator().Struct(cfg); err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	logPath := config.DefaultLogPath()
	if fileCfg.Log.Path != nil {
		logPath = *fileCfg.Log.Path
	}
	log, closer, err := config.NewLogger(cfg.LogLevel, logPath)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	renderer, err := typeset.New(cfg.Renderer, cfg.RendererURL, config.DefaultRendererCacheDir())
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	m := tui.NewModel(cfg, generator.New(), renderer, log)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return printResult(cmd.OutOrStdout(), final)
}

// printResult writes the report of a finished session once the alternate
// screen is gone. Quitting before the session ends prints nothing.
func printResult(w io.Writer, final tea.Model) error {
	m, ok := final.(*tui.Model)
	if !ok {
		return nil
	}
	rec, ok := m.Result()
	if !ok {
		return nil
	}
	if err := report.Write(w, rec, m.Renderer()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// resolveConfig merges config file values under the command-line flags.
func resolveConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyOpsConfig(cmd, "ops", &practiceOps, fileCfg.Practice.Ops)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyIntConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyIntConfig(cmd, "countdown", &practiceCountdown, fileCfg.Practice.Countdown)
	applyStringConfig(cmd, "renderer", &rendererKind, fileCfg.Renderer.Kind)
	applyStringConfig(cmd, "renderer-url", &rendererURL, fileCfg.Renderer.URL)
	if err := applyDurationConfig(cmd, "renderer-timeout", &rendererTimeout, fileCfg.Renderer.Timeout); err != nil {
		return model.Config{}, err
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	ops, err := model.ParseOperations(practiceOps)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --ops value: %w", err)
	}
	return model.Config{
		Operations:      ops,
		Difficulty:      model.Difficulty(strings.ToLower(strings.TrimSpace(practiceDifficulty))),
		Duration:        practiceDuration,
		Countdown:       practiceCountdown,
		Renderer:        strings.ToLower(strings.TrimSpace(rendererKind)),
		RendererURL:     strings.TrimSpace(rendererURL),
		RendererTimeout: rendererTimeout,
		LogLevel:        strings.ToLower(strings.TrimSpace(logLevel)),
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the config file unless it already exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List operations and difficulty ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := report.WriteOperations(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyOpsConfig(cmd *cobra.Command, name string, target *string, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = strings.Join(*value, ",")
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuimath configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# ops = ["add", "subtract"]  # Preselected operations: add, subtract, multiply, divide, root
# difficulty = %q        # easy (1-10), medium (11-50), hard (51-100)
# duration = %d              # Session length in seconds
# countdown = %d              # Countdown before the session starts

[renderer]
# kind = %q         # unicode, plain or remote
# url = ""               # Symbol table URL, required when kind = "remote"
# timeout = %q             # Fallback to plain text after this long

[log]
# level = %q            # error, warn, info, debug, trace
# path = %q
`,
		defaultDifficulty,
		session.DefaultDuration,
		session.DefaultCountdown,
		defaultRenderer,
		typeset.DefaultTimeout.String(),
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
