package cli

import (
	"errors"
	"fmt"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Request string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a filter request against a definition",
		Long: `Validate the entries of a request file against a filter definition
and print the value each field was interpreted as.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "request file (YAML)")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger, err := opts.Logger()
	if err != nil {
		return WrapExitError(ExitCommandError, "building logger", err)
	}
	defer logger.Sync()

	loaded, request, err := loadRequest(opts.RootOptions, opts.Request)
	if err != nil {
		return err
	}

	facade, err := filter.NewFacade(loaded.Definition, request.Entries, &filter.FacadeOptions{Validate: true, Logger: logger})
	if err != nil {
		return reject(formatter, err)
	}

	values := facade.Values()
	if formatter.JSON() {
		return formatter.Success(values.Map())
	}

	fmt.Fprintf(formatter.Writer, "✓ %d entries valid for %s\n", len(request.Entries), loaded.Definition.Name())
	for _, field := range loaded.Definition.Fields() {
		if value := values.Get(field.Name); value != nil {
			fmt.Fprintf(formatter.Writer, "  %s (%s) = %v\n", field.Name, field.Kind.Name(), value)
		}
	}
	logger.Debug("Validated request", zap.String("definition", loaded.Definition.Name()), zap.Int("entries", len(request.Entries)))
	return nil
}

func loadRequest(opts *RootOptions, path string) (*Loaded, *Request, error) {
	loaded, err := opts.load()
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return loaded, &Request{}, nil
	}
	request, err := loaded.LoadRequest(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "loading request", err)
	}
	return loaded, request, nil
}

// reject reports err and maps it to an exit code: entries refused by the
// filter core fail with ExitFailure, anything else is a command error.
func reject(formatter *OutputFormatter, err error) error {
	var fieldErr *filter.FieldError
	if errors.As(err, &fieldErr) {
		_ = formatter.Error(fieldErr.Field, err.Error())
		return WrapExitError(ExitFailure, "request rejected", err)
	}
	_ = formatter.Error("", err.Error())
	return WrapExitError(ExitCommandError, "command failed", err)
}
