// Package metrics 定义 catflow 的 Prometheus 指标。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catflow"

var (
	// FetchTotal 按 fetcher 与状态统计 flow map 拉取次数
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Total number of flow map fetches",
		},
		[]string{"fetcher", "status"},
	)

	// FetchDuration 是 flow map 拉取耗时
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of flow map fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"fetcher"},
	)

	// DegradedMentionsTotal 统计降级为空 flow map 的 mention
	DegradedMentionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_mentions_total",
			Help:      "Total number of mentions reranked with an empty flow map",
		},
		[]string{"reason"},
	)

	// DocumentsTotal 按状态统计重排的文档
	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Total number of reranked documents",
		},
		[]string{"status"},
	)

	// CacheTotal 统计 flow 缓存命中与未命中
	CacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Total number of flow cache lookups",
		},
		[]string{"backend", "result"},
	)

	// GraphRetriesTotal 统计图查询服务的重试次数
	GraphRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_retries_total",
			Help:      "Total number of retried graph service requests",
		},
		[]string{"script"},
	)
)

// RecordFetch 记录一次 flow map 拉取。
func RecordFetch(fetcher, status string, duration float64) {
	FetchTotal.WithLabelValues(fetcher, status).Inc()
	FetchDuration.WithLabelValues(fetcher).Observe(duration)
}

// RecordDegraded 记录一个降级的 mention。
func RecordDegraded(reason string) {
	DegradedMentionsTotal.WithLabelValues(reason).Inc()
}

// RecordDocument 记录一篇重排的文档。
func RecordDocument(status string) {
	DocumentsTotal.WithLabelValues(status).Inc()
}

// RecordCache 记录一次缓存查询。
func RecordCache(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheTotal.WithLabelValues(backend, result).Inc()
}

// RecordGraphRetry 记录一次图查询重试。
func RecordGraphRetry(script string) {
	GraphRetriesTotal.WithLabelValues(script).Inc()
}

// Handler 返回暴露默认 registry 的 HTTP handler。
func Handler() http.Handler {
	return promhttp.Handler()
}
