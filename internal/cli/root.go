package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	jstore "github.com/tarmac-project/jstore"
	"github.com/tarmac-project/jstore/channel"
	"github.com/tarmac-project/jstore/kv/sqlite"
	"github.com/tarmac-project/jstore/record"
	"github.com/tarmac-project/jstore/storage"
	"github.com/tarmac-project/jstore/tabstatus"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DB     string
	Config string
	Prefix string
	Debug  bool
	Color  string // "auto" | "always" | "never"
}

// ValidColors defines the allowed --color values.
var ValidColors = []string{"auto", "always", "never"}

// NewRootCommand creates the root command for the jstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "jstore",
		Short: "jstore - namespaced JSON records and cross-process commands",
		Long: `Inspect and modify namespaced JSON records kept in a SQLite file, and
broadcast commands to every other process watching the same file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidColor(opts.Color) {
				return fmt.Errorf("invalid color %q: must be one of %v", opts.Color, ValidColors)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "jstore.db", "path to the SQLite store")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Prefix, "prefix", "", "namespace prefix (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "log channel and record activity to stderr")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colorize keys (auto|always|never)")

	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDelCommand(opts))
	cmd.AddCommand(NewOmitCommand(opts))
	cmd.AddCommand(NewHasCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewEachCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewRemoveAllCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewFireCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidColor(mode string) bool {
	for _, c := range ValidColors {
		if c == mode {
			return true
		}
	}
	return false
}

// env is everything a command needs, opened from the global flags.
type env struct {
	runtime jstore.RuntimeConfig
	db      *sqlite.Store
	origin  *storage.Origin
	port    *storage.Context
	store   *record.Store
	channel *channel.Channel
	logger  *slog.Logger
}

func (e *env) Close() error {
	e.port.Detach()
	return e.origin.Close()
}

// openEnv loads configuration and opens the SQLite origin. Flags override
// values from the config file.
func openEnv(opts *RootOptions, stderr io.Writer) (*env, error) {
	var cfg jstore.Config
	if opts.Config != "" {
		loaded, err := jstore.LoadConfig(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "cannot load config", err)
		}
		cfg = loaded
	}
	if opts.Prefix != "" {
		cfg.Prefix = opts.Prefix
	}
	if opts.Debug {
		cfg.Debug = true
	}

	rt, err := jstore.New(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	runtime := rt.Config()

	var logger *slog.Logger
	if runtime.Debug {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	db, err := sqlite.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot open store", err)
	}

	origin := storage.NewOrigin(db)
	port := origin.Attach()

	store, err := record.New(record.Config{SDKConfig: runtime, Port: port, Logger: logger})
	if err != nil {
		origin.Close()
		return nil, err
	}

	chCfg := channel.Config{SDKConfig: runtime, Port: port, Logger: logger}
	if runtime.TabStatus {
		chCfg.Observer = tabstatus.New("jstore", func(title string) {
			fmt.Fprintf(stderr, "title: %s\n", title)
		})
	}

	ch, err := channel.New(chCfg)
	if err != nil {
		origin.Close()
		return nil, err
	}

	return &env{
		runtime: runtime,
		db:      db,
		origin:  origin,
		port:    port,
		store:   store,
		channel: ch,
		logger:  logger,
	}, nil
}

// withEnv opens the environment, runs fn and closes it again.
func withEnv(opts *RootOptions, cmd *cobra.Command, fn func(*env) error) error {
	e, err := openEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

// stdoutFile returns the command's stdout as a file when it is one.
func stdoutFile(cmd *cobra.Command) *os.File {
	f, _ := cmd.OutOrStdout().(*os.File)
	return f
}
