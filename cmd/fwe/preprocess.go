package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/knowledge-engine/fwe/internal/corpus"
)

func newPreprocessCommand(a *app) *cobra.Command {
	var (
		input, output, tokenizer string
		linesPerChunk, workers   int
		minSentLen               int
		uncased, globalDedup     bool
	)

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Turn every feed file into one deduplicated sentence-lines corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Preprocess
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.InputDir = input
			}
			if flags.Changed("output") {
				cfg.OutputPath = output
			}
			if flags.Changed("tokenizer") {
				cfg.Tokenizer = tokenizer
			}
			if flags.Changed("lines-per-chunk") {
				cfg.LinesPerChunk = linesPerChunk
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("min-sent-len") {
				cfg.MinSentLen = minSentLen
			}
			if flags.Changed("uncased") {
				cfg.CreateUncased = uncased
			}
			if flags.Changed("global-dedup") {
				cfg.GlobalDedup = globalDedup
			}

			asm, err := corpus.New(cfg, a.log())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := asm.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s sentences from %d files (%s lines) into %s\n",
				humanize.Comma(int64(res.Stats.Sentences)), len(res.Files),
				humanize.Comma(int64(res.Stats.Lines)), res.Output)
			if res.Uncased != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "uncased copy: %s\n", res.Uncased)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&input, "input", "", "directory of *.jl feed files")
	f.StringVar(&output, "output", "", "sentence-lines output file")
	f.StringVar(&tokenizer, "tokenizer", "tweet", "word tokenizer")
	f.IntVar(&linesPerChunk, "lines-per-chunk", 30000, "feed lines per chunk")
	f.IntVar(&workers, "workers", 3, "parallel workers per chunk")
	f.IntVar(&minSentLen, "min-sent-len", 5, "minimum tokens per sentence")
	f.BoolVar(&uncased, "uncased", true, "also write a lowercased copy")
	f.BoolVar(&globalDedup, "global-dedup", false, "drop sentences already written by earlier chunks")
	return cmd
}

func newUncaseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uncase SRC [DST]",
		Short: "Write a lowercased copy of a sentence-lines file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			dst := corpus.UncasedPath(src)
			if len(args) == 2 {
				dst = args[1]
			}
			if filepath.Clean(src) == filepath.Clean(dst) {
				return fmt.Errorf("source and destination are the same file: %s", src)
			}

			a.log().Infof("Creating uncased into %q...", dst)
			if err := corpus.Uncase(src, dst); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dst)
			return nil
		},
	}
}
