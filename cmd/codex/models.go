package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"opencodex/internal/llm"
)

// runModels lists the models on the Ollama server alongside its version.
func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	client := llm.NewOllamaClient(cfg.BaseURL, 0)

	var (
		models        []llm.ModelInfo
		serverVersion string
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		models, err = client.ListModels(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		serverVersion, err = client.Version(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cannot reach Ollama at %s: %w", cfg.BaseURL, err)
	}

	fmt.Printf("Ollama %s at %s\n\n", serverVersion, cfg.BaseURL)
	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull " + cfg.Model)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, m := range models {
		marker := ""
		if m.Name == cfg.Model {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\n", m.Name, marker, humanSize(m.Size), m.ModifiedAt)
	}
	return w.Flush()
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
