package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rae/internal/catalog"
	"github.com/roach88/rae/internal/store"
	"github.com/roach88/rae/internal/typesys"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Database string
}

// TableReport describes one catalog table.
type TableReport struct {
	Name     string `json:"name"`
	Schema   string `json:"schema"`
	SchemaID string `json:"schema_id"`
	Source   string `json:"source"`
}

// CatalogResult holds the loaded catalog.
type CatalogResult struct {
	CatalogID string        `json:"catalog_id"`
	Tables    []TableReport `json:"tables"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog [path]",
		Short: "Load and print a catalog",
		Long: `Load a catalog and print every table schema with its identity.

The path may be a CUE or YAML catalog file, a directory of them, or an
existing SQLite database whose declared schema is read. With --db the
catalog is saved to the store; without a path it is read back from it.

Examples:
  rae catalog schema.cue
  rae catalog ./catalog --db rae.db
  rae catalog --db rae.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runCatalog(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to save the catalog to, or read it from")

	return cmd
}

func runCatalog(opts *CatalogOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if path == "" && opts.Database == "" {
		return formatter.commandError(ErrCodeGeneric, fmt.Errorf("a catalog path or --db is required"))
	}

	var cat *catalog.Catalog
	if path != "" {
		var err error
		cat, err = LoadCatalog(ctx, path)
		if err != nil {
			return formatter.commandError(catalogErrCode(err), err)
		}
		formatter.VerboseLog("Loaded %d table(s) from %s", cat.Len(), path)
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.commandError(ErrCodeStore, fmt.Errorf("failed to open database: %w", err))
		}
		defer st.Close()

		if cat != nil {
			err = st.SaveCatalog(ctx, cat)
			formatter.VerboseLog("Saved %d table(s) to %s", cat.Len(), opts.Database)
		} else {
			cat, err = st.LoadCatalog(ctx)
		}
		if err != nil {
			return formatter.commandError(ErrCodeStore, err)
		}
	}

	result, err := describeCatalog(cat)
	if err != nil {
		return formatter.commandError(ErrCodeCatalog, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	w := formatter.Writer
	for _, t := range result.Tables {
		fmt.Fprintf(w, "%s\n", t.Schema)
		if formatter.Verbose {
			fmt.Fprintf(w, "  source: %s\n  id: %s\n", t.Source, t.SchemaID)
		}
	}
	fmt.Fprintf(w, "\n%d table(s), catalog %s\n", len(result.Tables), result.CatalogID)
	return nil
}

func describeCatalog(cat *catalog.Catalog) (CatalogResult, error) {
	id, err := store.CatalogID(cat)
	if err != nil {
		return CatalogResult{}, err
	}
	result := CatalogResult{CatalogID: id, Tables: make([]TableReport, 0, cat.Len())}
	for _, name := range cat.Names() {
		fields := cat.Tables[name]
		schemaID, err := typesys.SchemaID(fields)
		if err != nil {
			return CatalogResult{}, err
		}
		result.Tables = append(result.Tables, TableReport{
			Name:     name,
			Schema:   typesys.Lines{Label: name, Fields: fields}.String(),
			SchemaID: schemaID,
			Source:   cat.Sources[name],
		})
	}
	return result, nil
}
