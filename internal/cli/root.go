package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/maihuoche/Medoo/internal/config"
	"github.com/maihuoche/Medoo/internal/quote"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config is resolved before any subcommand runs.
	Config *config.Config

	// Fs is where descriptions, config files and output files live.
	// Defaults to config.AppFs.
	Fs afero.Fs

	// Home overrides the home directory searched for .medoo.yaml.
	Home string
}

// Version is reported by --version.
const Version = "0.1.0"

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the medoo CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "medoo",
		Version: Version,
		Short:   "medoo - compile query descriptions to parameterized SQL",
		Long: `Compile Medoo-style query descriptions (CUE or YAML) into parameterized
SQL plus ordered bind values, and optionally execute them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(config.Options{
				Fs:    opts.fs(),
				Home:  opts.Home,
				File:  opts.ConfigFile,
				Flags: cmd.Flags(),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			opts.Config = cfg
			opts.Verbose = cfg.Verbose

			setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				slog.Debug("config loaded", "file", cfg.File)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, config.KeyVerbose, "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default .medoo.yaml in ., $HOME, $HOME/.config/medoo)")
	flags.String(config.KeyDriver, "", "database driver (sqlite3|mysql)")
	flags.String(config.KeyDSN, "", "data source name")
	flags.String(config.KeyPrefix, "", "table name prefix")
	flags.String(config.KeyQuote, "", "identifier quote style (backtick|double)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))

	return cmd
}

func (o *RootOptions) fs() afero.Fs {
	if o.Fs != nil {
		return o.Fs
	}
	return config.AppFs
}

func (o *RootOptions) quoter() quote.Quoter {
	if o.Config == nil {
		return quote.Default()
	}
	return o.Config.Quoter()
}

// setupLogging installs the default slog logger. Logs go to w (stderr)
// so they never mix with command output.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
