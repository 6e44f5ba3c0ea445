package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/catalog"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/store"
)

// sqliteExts are the extensions read as existing SQLite databases rather
// than catalog files. Only the declared schema is read.
var sqliteExts = map[string]bool{".db": true, ".sqlite": true, ".sqlite3": true}

// QueryOptions holds the flags shared by commands that check queries.
type QueryOptions struct {
	*RootOptions
	Catalog  string // catalog file, directory or SQLite database
	MaxDepth int    // expression depth limit (0 = default)
	Workers  int    // checker workers (0 = one per CPU)
}

func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog file, directory or SQLite database (required)")
	_ = cmd.MarkFlagRequired("catalog")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum expression nesting depth (0 = default)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of checker workers (0 = one per CPU)")
}

// session is everything a query command needs after loading its inputs.
type session struct {
	formatter *OutputFormatter
	catalog   *catalog.Catalog
	queries   []algebra.Query
	checker   *infer.Checker
}

// openSession loads the catalog and query document. Load failures are
// reported through the formatter and returned as command errors.
func openSession(ctx context.Context, opts *QueryOptions, queriesPath string, cmd *cobra.Command) (*session, error) {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.MaxDepth < 0 {
		return nil, formatter.commandError(ErrCodeGeneric, fmt.Errorf("--max-depth must be non-negative"))
	}

	cat, err := LoadCatalog(ctx, opts.Catalog)
	if err != nil {
		return nil, formatter.commandError(catalogErrCode(err), err)
	}
	formatter.VerboseLog("Loaded %d table(s) from %s", cat.Len(), opts.Catalog)

	queries, err := LoadQueries(queriesPath)
	if err != nil {
		code := ErrCodeQueries
		if os.IsNotExist(err) {
			code = ErrCodeNotFound
		}
		return nil, formatter.commandError(code, err)
	}
	formatter.VerboseLog("Decoded %d quer(ies) from %s", len(queries), queriesPath)

	logger := newLogger(opts.RootOptions, formatter.GetErrWriter()).With("trace_id", formatter.TraceID)
	checkerOpts := []infer.Option{infer.WithLogger(logger)}
	if opts.MaxDepth > 0 {
		checkerOpts = append(checkerOpts, infer.WithMaxDepth(opts.MaxDepth))
	}

	return &session{
		formatter: formatter,
		catalog:   cat,
		queries:   queries,
		checker:   infer.New(cat.Env(), checkerOpts...),
	}, nil
}

// LoadCatalog reads a catalog from a CUE or YAML file, a directory of
// them, or the declared schema of an existing SQLite database.
func LoadCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("no catalog given")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if sqliteExts[filepath.Ext(path)] {
		return store.IntrospectFile(ctx, path)
	}
	return catalog.Load(path)
}

// LoadQueries reads and decodes a query document.
func LoadQueries(path string) ([]algebra.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	queries, err := algebra.DecodeQueries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return queries, nil
}

func catalogErrCode(err error) string {
	if os.IsNotExist(err) {
		return ErrCodeNotFound
	}
	return ErrCodeCatalog
}
