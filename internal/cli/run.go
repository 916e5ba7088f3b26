package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asaidimu/go-sieve/core/persistence"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/sqlite"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Request        string
	DB             string
	Seed           string
	Exclude        []string
	SkipValidation bool
}

// RunResult is the output of the run command.
type RunResult struct {
	Count int               `json:"count"`
	Rows  []schema.Document `json:"rows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a filter request against a SQLite database",
		Long: `Register the definition's table in a SQLite database, creating it when
missing, optionally insert seed rows, and print the rows matching a request.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "request file (YAML)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the SQLite database")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "rows to insert before running (YAML list)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "fields whose entries are not compiled")
	cmd.Flags().BoolVar(&opts.SkipValidation, "skip-validation", false, "compile without validating entries")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRun(ctx context.Context, opts *RunOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
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
		return reject(formatter, fmt.Errorf("definition %q has no table to run against", loaded.Definition.Name()))
	}

	db, err := sql.Open("sqlite3", opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer db.Close()

	interactor := sqlite.NewSQLiteInteractor(db, logger, sqlite.DefaultInteractorOptions(), nil)
	store, err := persistence.NewPersistence(interactor, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "initializing persistence", err)
	}
	collection, err := store.Register(loaded.Table, loaded.Definition)
	if err != nil {
		return reject(formatter, err)
	}

	if opts.Seed != "" {
		records, err := loadSeed(opts.Seed, loaded.Table)
		if err != nil {
			return WrapExitError(ExitCommandError, "loading seed rows", err)
		}
		if _, err := collection.Create(ctx, records); err != nil {
			return reject(formatter, err)
		}
		logger.Info("Inserted seed rows", zap.Int("count", len(records)))
	}

	result, err := collection.Find(ctx, request.Entries, &persistence.FindOptions{
		Base:           request.Base,
		Exclude:        opts.Exclude,
		SkipValidation: opts.SkipValidation,
	})
	if err != nil {
		return reject(formatter, err)
	}

	if formatter.JSON() {
		return formatter.Success(RunResult{Count: result.Count, Rows: result.Data})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d row(s)\n", result.Count)
	if result.Count == 0 {
		return nil
	}
	out, err := yaml.Marshal(result.Data)
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding rows", err)
	}
	_, err = formatter.Writer.Write(out)
	return err
}

// loadSeed reads a YAML list of rows, coercing each value to its column type.
func loadSeed(path string, table *schema.SchemaDefinition) ([]map[string]any, error) {
	var records []map[string]any
	if err := decodeFile(path, &records); err != nil {
		return nil, err
	}
	for i, record := range records {
		for column, value := range record {
			field := table.FindField(column)
			if field == nil {
				return nil, fmt.Errorf("row %d: unknown column %q", i, column)
			}
			coerced, err := schema.CoerceValue(value, field.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i, column, err)
			}
			record[column] = coerced
		}
	}
	return records, nil
}
