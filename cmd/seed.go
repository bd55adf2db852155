package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Fatal777/invoisaic/internal/knowledge"
)

var seedPattern string

var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Index a directory of markdown knowledge into the vector store",
	Long: `Walks a knowledge-base directory, converts each markdown file to plain
text, embeds it and persists the vector store under the data directory.
Subdirectory names are used as category tags (e.g. kb/fraud_check/de.md).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		root := "kb"
		if len(args) == 1 {
			root = args[0]
		}

		matches, err := doublestar.Glob(os.DirFS(root), seedPattern)
		if err != nil {
			return fmt.Errorf("globbing %s: %w", seedPattern, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files matching %s under %s", seedPattern, root)
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		store, err := knowledge.NewChromemStore(embedder)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		bar := progressbar.NewOptions(len(matches),
			progressbar.OptionSetDescription("Indexing knowledge"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		var docs []knowledge.Document
		for _, match := range matches {
			path := filepath.Join(root, match)
			raw, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", path, err)
				bar.Add(1)
				continue
			}

			text := knowledge.MarkdownToText(raw)
			if strings.TrimSpace(text) == "" {
				bar.Add(1)
				continue
			}

			docs = append(docs, knowledge.Document{
				ID:       match,
				Content:  text,
				Source:   path,
				Category: topDir(match),
			})
			bar.Add(1)
		}

		if err := store.AddDocuments(context.Background(), docs); err != nil {
			return fmt.Errorf("indexing documents: %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		if err := store.Persist(cfg.DataDir); err != nil {
			return fmt.Errorf("persisting vector store: %w", err)
		}

		fmt.Printf("Indexed %d documents into %s\n", len(docs), cfg.DataDir)
		return nil
	},
}

// topDir returns the first path segment of a relative match, or "".
func topDir(rel string) string {
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	return parts[0]
}

func init() {
	seedCmd.Flags().StringVar(&seedPattern, "pattern", "**/*.md", "glob pattern for knowledge files")
	rootCmd.AddCommand(seedCmd)
}
