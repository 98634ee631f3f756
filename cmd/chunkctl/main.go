package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"doc-chunker/internal/app"
	"doc-chunker/internal/chunker"
	"doc-chunker/internal/config"
	"doc-chunker/internal/extract"
	"doc-chunker/internal/logger"
	"doc-chunker/internal/report"
	"doc-chunker/internal/tokenizer"
)

type chunkFlags struct {
	maxTokens int
	split     bool
	encoding  string
	logLevel  string
	asJSON    bool
}

func main() {
	cmd := newRootCommand(config.Load())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(cfg config.Config) *cobra.Command {
	flags := &chunkFlags{}
	cmd := &cobra.Command{
		Use:           "chunkctl",
		Short:         "Chunk documents into token-bounded passages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.IntVar(&flags.maxTokens, "max-tokens", cfg.MaxTokens, "Token budget per chunk")
	pf.BoolVar(&flags.split, "split", cfg.SplitIfExceedsLimit, "Split paragraphs that exceed the token budget")
	pf.StringVar(&flags.encoding, "encoding", cfg.TokenEncoding, `Tiktoken encoding or model name, or "words"`)
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")
	pf.BoolVar(&flags.asJSON, "json", false, "Write JSON instead of text")

	cmd.AddCommand(newChunkCommand(flags))
	cmd.AddCommand(newStatsCommand(flags))
	return cmd
}

func newChunkCommand(flags *chunkFlags) *cobra.Command {
	var show int
	cmd := &cobra.Command{
		Use:   "chunk FILE",
		Short: "Chunk a file and print the first chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunks, counter, err := chunkFile(cmd, flags, args[0])
			if err != nil || chunks == nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.asJSON {
				return writeJSON(out, chunks)
			}
			report.PrintChunks(out, texts(chunks), counter, show)
			return nil
		},
	}
	cmd.Flags().IntVar(&show, "show", 8, "Number of chunks to print")
	return cmd
}

func newStatsCommand(flags *chunkFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Print token statistics for a chunked file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunks, counter, err := chunkFile(cmd, flags, args[0])
			if err != nil || chunks == nil {
				return err
			}
			stats := report.Summarize(texts(chunks), counter, flags.maxTokens)
			out := cmd.OutOrStdout()
			if flags.asJSON {
				return writeJSON(out, stats)
			}
			report.PrintStats(out, stats, flags.maxTokens)
			return nil
		},
	}
}

// chunkFile returns nil chunks, after telling the user, when the file has no content.
func chunkFile(cmd *cobra.Command, flags *chunkFlags, path string) ([]chunker.Chunk, tokenizer.Counter, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWriter(cmd.ErrOrStderr(), flags.logLevel).With("file", path)

	counter, err := tokenizer.New(flags.encoding)
	if err != nil {
		return nil, nil, err
	}
	ch, err := app.NewChunker(flags.encoding, log)
	if err != nil {
		return nil, nil, err
	}

	opts := chunker.Options{MaxTokens: flags.maxTokens, SplitIfExceedsLimit: flags.split}
	chunks, err := ch.ChunkDocument(cmd.Context(), extract.New(), content, path, opts)
	if errors.Is(err, chunker.ErrNoContent) {
		log.Warn("no content extracted")
		fmt.Fprintf(cmd.OutOrStdout(), "No content extracted from %s\n", path)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return chunks, counter, nil
}

func texts(chunks []chunker.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
