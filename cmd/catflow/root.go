package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/rushteam/catflow/config"
	_ "github.com/rushteam/catflow/config/builders"
	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/fetch"
	"github.com/rushteam/catflow/metrics"
	"github.com/rushteam/catflow/pipeline"
	"github.com/rushteam/catflow/rexster"
)

// options 是全局 flag。
type options struct {
	cfgFile  string
	verbose  bool
	endpoint string
	lang     string
	// metricsAddr 非空时在运行期间暴露 /metrics
	metricsAddr string

	app    *config.App
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "catflow",
		Short: "Re-rank entity candidates by category flow",
		Long: `catflow re-ranks the candidate entities of every mention in an annotation
file by how well each candidate's categories agree with the rest of the document.

Example usage:
  catflow rerank ./annotations               # write *_reranked.json next to each file
  catflow rerank ./annotations --start 10    # skip the first 10 files
  catflow warm ./annotations                 # pre-fetch category and flow maps`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML, or JSON with .json extension)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "graph service endpoint, overrides graph.endpoint")
	cmd.PersistentFlags().StringVar(&opts.lang, "lang", "", "language code, overrides language")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running, e.g. :9090")

	cmd.AddCommand(newRerankCmd(opts), newWarmCmd(opts))
	return cmd
}

func (o *options) setup(w io.Writer) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	// 配置构建的 Node 没有单独的 Logger，统一走默认 logger
	slog.SetDefault(o.logger)

	app, err := config.Load(o.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if o.endpoint != "" {
		app.Graph.Endpoint = o.endpoint
	}
	if o.lang != "" {
		app.Language = o.lang
	}
	o.app = app

	o.logger.Debug("configuration loaded",
		"endpoint", app.Graph.Endpoint,
		"language", app.Language,
		"cache", app.Cache.Backend,
	)

	if o.metricsAddr != "" {
		o.serveMetrics()
	}
	return nil
}

func (o *options) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: o.metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("metrics server stopped", "addr", o.metricsAddr, "error", err)
		}
	}()
	o.logger.Info("serving metrics", "addr", o.metricsAddr)
}

// runtime 持有一次命令执行所需的客户端与存储。
type runtime struct {
	client *rexster.Client
	store  core.Store
	app    *config.App
	logger *slog.Logger
}

func (o *options) newRuntime() (*runtime, error) {
	s, err := o.app.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if s != nil {
		config.RegisterStore(config.DefaultName, s)
	}
	return &runtime{
		client: rexster.New(o.app.RexsterConfig(), rexster.WithLogger(o.logger)),
		store:  s,
		app:    o.app,
		logger: o.logger,
	}, nil
}

// fetcher 返回某个脚本的 fetcher，配置了缓存时包一层 CachedFetcher。
func (r *runtime) fetcher(script string) (core.FlowMapFetcher, error) {
	f, err := r.client.Fetcher(script)
	if err != nil {
		return nil, err
	}
	if r.store == nil {
		return f, nil
	}
	return &fetch.CachedFetcher{
		Fetcher: f,
		Store:   r.store,
		Prefix:  r.app.Cache.Prefix + ":" + script,
		TTL:     r.app.Cache.TTL,
		Logger:  r.logger,
	}, nil
}

// pipeline 注册默认 fetcher 后按配置构建 Pipeline。
func (r *runtime) pipeline() (*pipeline.Pipeline, error) {
	f, err := r.fetcher(rexster.ScriptCatFlowMap)
	if err != nil {
		return nil, err
	}
	config.RegisterFetcher(config.DefaultName, f)
	return config.BuildPipeline(r.app.PipelineConfig())
}

func (r *runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
