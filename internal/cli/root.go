// Package cli implements the sieve command line: it loads filter definitions
// and requests from YAML files, validates them, renders the SQL they compile
// to and runs them against a SQLite database.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Definition string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sieve CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sieve",
		Short: "sieve - declarative query filters",
		Long:  "Validate filter requests against a filter definition and compile them to SQL.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Definition, "definition", "d", "", "filter definition file (YAML)")

	cmd.AddCommand(NewFieldsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// Logger returns a development logger writing to stderr when verbose output
// was requested, and a no-op logger otherwise.
func (o *RootOptions) Logger() (*zap.Logger, error) {
	if !o.Verbose {
		return zap.NewNop(), nil
	}
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func (o *RootOptions) load() (*Loaded, error) {
	if o.Definition == "" {
		return nil, WrapExitError(ExitCommandError, "missing --definition", nil)
	}
	loaded, err := LoadDefinition(o.Definition)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading definition", err)
	}
	return loaded, nil
}
