package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/catflow/annotation"
	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/rexster"
)

func newWarmCmd(opts *options) *cobra.Command {
	var start int
	cmd := &cobra.Command{
		Use:   "warm <dir>",
		Short: "Pre-fetch category and flow maps for every candidate",
		Long: `Fetch the category map and the flow map of every candidate in every
*_annotations.json file, one identifier per request. With a cache backend
configured the results are stored for later runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return rt.warmDir(cmd.Context(), args[0], start)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "skip the first N files (sorted by name)")
	return cmd
}

func (r *runtime) warmDir(ctx context.Context, dir string, start int) error {
	catMap, err := r.fetcher(rexster.ScriptCatMap)
	if err != nil {
		return err
	}
	flowMap, err := r.fetcher(rexster.ScriptFlowMap)
	if err != nil {
		return err
	}

	paths, err := annotation.Scan(dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	if start < 0 {
		start = 0
	}
	if start > len(paths) {
		start = len(paths)
	}

	for _, path := range paths[start:] {
		mentions, err := annotation.Load(path)
		if err != nil {
			r.logger.Warn("skipping file", "file", path, "error", err)
			continue
		}
		for _, uri := range annotation.URIs(mentions) {
			if err := ctx.Err(); err != nil {
				return err
			}
			req := core.FlowRequest{IDs: []string{uri}, Language: r.app.Language}

			cats, err := catMap.FetchFlowMap(ctx, req)
			if err != nil {
				r.logger.Warn("category map failed", "uri", uri, "error", err)
			} else {
				r.logger.Info("category map", "uri", uri, "found_cats", cats.RelatedTopics)
			}

			flows, err := flowMap.FetchFlowMap(ctx, req)
			if err != nil {
				r.logger.Warn("flow map failed", "uri", uri, "error", err)
			} else {
				r.logger.Info("flow map", "uri", uri, "related_topics", flows.RelatedTopics)
			}
		}
	}
	return nil
}
