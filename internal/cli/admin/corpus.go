package admin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/folio/internal/cli"
	"github.com/cloo-solutions/folio/internal/service"
	"github.com/cloo-solutions/folio/internal/storage"
	"github.com/spf13/cobra"
)

// EmbedCmd returns the embed command
func EmbedCmd() *cobra.Command {
	var overrides cli.Overrides

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Build the embedding cache and exit",
		Long:  "Chunk the knowledge file, reuse or compute its embeddings and persist them to the configured cache backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), overrides)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := buildCorpus(cmd.Context(), rt); err != nil {
				return err
			}
			stats, err := rt.corpus.Stats()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d chunks (fingerprint %s)\n", stats.Chunks, stats.Fingerprint)
			return nil
		},
	}

	cli.BindFlags(cmd.Flags(), &overrides)
	return cmd
}

// ChunksCmd returns the chunks command
func ChunksCmd() *cobra.Command {
	var overrides cli.Overrides

	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List the chunks of the knowledge file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(overrides)
			if err != nil {
				return err
			}

			document, _, err := storage.NewKnowledgeFile(cfg.KnowledgePath).Refresh()
			if err != nil {
				return err
			}
			chunks := service.ChunkKnowledge(document)
			if len(chunks) == 0 {
				return fmt.Errorf("no chunks found in %s", cfg.KnowledgePath)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d chunks:\n\n", len(chunks))
			for i, c := range chunks {
				fmt.Fprintf(out, "%d. %s (%d bytes)\n", i+1, c.Type, len(c.Text))
			}
			fmt.Fprintf(out, "\nFingerprint: %s\n", service.Fingerprint(chunks))
			return nil
		},
	}

	cli.BindFlags(cmd.Flags(), &overrides)
	return cmd
}

// PromptCmd returns the prompt command
func PromptCmd() *cobra.Command {
	var overrides cli.Overrides
	var showMatches bool

	cmd := &cobra.Command{
		Use:   "prompt <query>",
		Short: "Print the system prompt built for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), overrides)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := buildCorpus(cmd.Context(), rt); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if showMatches {
				results, err := rt.corpus.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Fprintf(cmd.ErrOrStderr(), "%.4f  %s\n", r.Similarity, r.Type)
				}
			}

			prompt, err := rt.corpus.BuildPrompt(cmd.Context(), rt.knowledge.Current(), query)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, prompt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMatches, "matches", false, "Also print the matched chunks and scores to stderr")
	cli.BindFlags(cmd.Flags(), &overrides)
	return cmd
}

func buildCorpus(ctx context.Context, rt *runtime) error {
	if err := rt.requireOpenAI(); err != nil {
		return err
	}

	document, _, err := rt.knowledge.Refresh()
	if err != nil {
		return err
	}
	if _, err := os.Stat(rt.knowledge.Path()); err != nil {
		return fmt.Errorf("knowledge file: %w", err)
	}

	return rt.corpus.Init(ctx, document)
}
