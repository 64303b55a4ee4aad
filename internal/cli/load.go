package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/quakelink/internal/graph"
)

var loadGraph string

var loadCmd = &cobra.Command{
	Use:   "load <file.nt> [file.nt...]",
	Short: "Import N-Triples or N-Quads into the local SQLite graph",
	Long: `Load reads catalogue exports in N-Triples or N-Quads format into the
SQLite graph database used by the sqlite backend, so matching can run
without a SPARQL endpoint. Triples already present are skipped.

Example:
  quakelink load catalogue.nt --db catalogue.db
  quakelink match --all --backend sqlite --db catalogue.db`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlag("graph.path", cmd.Flags().Lookup("db"))
	},
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().String("db", "", "SQLite graph database path")
	loadCmd.Flags().StringVar(&loadGraph, "graph", "", "named graph for statements without one")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	_, err = loadFiles(cmd.Context(), afero.NewOsFs(), cfg.Graph.Path, loadGraph, args, os.Stderr)
	return err
}

// loadFiles imports every file into the database at dbPath and returns the
// number of new triples
func loadFiles(ctx context.Context, fs afero.Fs, dbPath, defaultGraph string, files []string, w io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ts, err := graph.OpenSQLiteTriples(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = ts.Close() }()

	total := 0
	for _, path := range files {
		f, err := fs.Open(path)
		if err != nil {
			return total, fmt.Errorf("open %s: %w", path, err)
		}
		n, err := graph.LoadNTriples(ctx, f, ts, defaultGraph)
		_ = f.Close()
		if err != nil {
			return total, fmt.Errorf("load %s: %w", path, err)
		}
		total += n
		fmt.Fprintf(w, "✓ %s: %d new triples\n", path, n)
	}

	count, err := ts.Count(ctx)
	if err != nil {
		return total, err
	}
	fmt.Fprintf(w, "\n  Database: %s\n  Triples:  %d\n\n", dbPath, count)
	return total, nil
}
