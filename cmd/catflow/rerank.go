package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rushteam/catflow/annotation"
	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/pipeline"
)

func newRerankCmd(opts *options) *cobra.Command {
	var (
		start  int
		suffix string
	)
	cmd := &cobra.Command{
		Use:   "rerank <dir>",
		Short: "Re-rank every *_annotations.json file in a directory",
		Long: `Re-rank every *_annotations.json file in a directory and write the result
next to it as <name>_reranked.json. A document that cannot be re-ranked is
logged and skipped; the command exits non-zero if any document failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			p, err := rt.pipeline()
			if err != nil {
				return fmt.Errorf("building pipeline: %w", err)
			}
			return rt.rerankDir(cmd.Context(), p, args[0], start, suffix)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "skip the first N files (sorted by name)")
	cmd.Flags().StringVar(&suffix, "suffix", annotation.RerankedSuffix, "output file suffix")
	return cmd
}

func (r *runtime) rerankDir(ctx context.Context, p *pipeline.Pipeline, dir string, start int, suffix string) error {
	paths, err := annotation.Scan(dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	for i, path := range paths {
		r.logger.Debug("annotation file", "index", i, "file", filepath.Base(path))
	}
	if start < 0 {
		start = 0
	}
	if start > len(paths) {
		start = len(paths)
	}

	failed := 0
	for _, path := range paths[start:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.rerankFile(ctx, p, path, annotation.OutputPath(path, suffix)); err != nil {
			failed++
			r.logger.Error("document failed", "file", path, "error", err)
			continue
		}
	}

	done := len(paths) - start
	r.logger.Info("rerank finished", "documents", done, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, done)
	}
	return nil
}

func (r *runtime) rerankFile(ctx context.Context, p *pipeline.Pipeline, in, out string) error {
	mentions, err := annotation.Load(in)
	if err != nil {
		return err
	}
	dctx := core.NewDocumentContext(annotation.DocID(in), r.app.Language)
	dctx.MaxTopics = r.app.Graph.MaxTopics

	mentions, err = p.Run(ctx, dctx, mentions)
	if err != nil {
		return err
	}
	if err := annotation.Save(out, mentions); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	r.logger.Info("document reranked", "doc_id", dctx.DocID, "mentions", len(mentions), "output", filepath.Base(out))
	return nil
}
