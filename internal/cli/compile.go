package cli

import (
	"fmt"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Request        string
	Exclude        []string
	SkipValidation bool
}

// CompiledQuery is the output of the compile command.
type CompiledQuery struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a filter request to SQLite SQL",
		Long: `Fold the entries of a request file into the request's base statement
and render it as parameterised SQLite SQL against the definition's table.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "request file (YAML)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "fields whose entries are not compiled")
	cmd.Flags().BoolVar(&opts.SkipValidation, "skip-validation", false, "compile without validating entries")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
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
	if loaded.Table == nil {
		return reject(formatter, fmt.Errorf("definition %q has no table to compile against", loaded.Definition.Name()))
	}

	facade, err := filter.NewFacade(loaded.Definition, request.Entries, &filter.FacadeOptions{
		Validate: !opts.SkipValidation,
		Logger:   logger,
	})
	if err != nil {
		return reject(formatter, err)
	}
	stmt, err := facade.Apply(request.Base, opts.Exclude...)
	if err != nil {
		return reject(formatter, err)
	}

	generator, err := sqlite.NewSqliteQuery(loaded.Table)
	if err != nil {
		return reject(formatter, err)
	}
	sql, params, err := generator.GenerateSelectSQL(stmt)
	if err != nil {
		return reject(formatter, err)
	}
	logger.Debug("Compiled request", zap.String("sql", sql), zap.Any("params", params))

	if formatter.JSON() {
		return formatter.Success(CompiledQuery{SQL: sql, Params: params})
	}
	fmt.Fprintln(formatter.Writer, sql)
	for i, p := range params {
		fmt.Fprintf(formatter.Writer, "  $%d = %v (%T)\n", i+1, p, p)
	}
	return nil
}
