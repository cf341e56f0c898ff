package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/catflow/config"
	"github.com/rushteam/catflow/fetch"
	"github.com/rushteam/catflow/filter"
	"github.com/rushteam/catflow/pipeline"
	"github.com/rushteam/catflow/pkg/conv"
	"github.com/rushteam/catflow/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("fetch.flow", BuildFetchNode)
	config.Register("rerank.catflow", BuildCatFlowNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildFetchNode 构建 fetch.flow，fetcher 按名字从 config.GetFetcher 取。
func BuildFetchNode(cfg map[string]interface{}) (pipeline.Node, error) {
	fetcher, err := config.GetFetcher(conv.ConfigGet(cfg, "fetcher", config.DefaultName))
	if err != nil {
		return nil, err
	}
	node := &fetch.Node{
		Fetcher:       fetcher,
		ReuseExisting: conv.ConfigGet(cfg, "reuse_existing", false),
	}
	switch s := fetch.Strategy(conv.ConfigGet(cfg, "strategy", string(fetch.StrategySequential))); s {
	case fetch.StrategySequential, fetch.StrategyParallel:
		node.Strategy = s
	default:
		return nil, fmt.Errorf("unknown fetch strategy: %s", s)
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		node.MaxConcurrent = int(n)
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		node.Timeout = time.Duration(sec) * time.Second
	}
	return node, nil
}

func BuildCatFlowNode(cfg map[string]interface{}) (pipeline.Node, error) {
	factor := conv.ConfigGetFloat64(cfg, "floor_factor", 0)
	if factor < 0 {
		return nil, fmt.Errorf("floor_factor must be >= 0, got %v", factor)
	}
	return &rerank.CatFlowNode{FloorFactor: factor}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n <= 0 {
		return nil, fmt.Errorf("n must be > 0")
	}
	return &rerank.TopNNode{N: int(n), Tail: conv.ConfigGet(cfg, "tail", false)}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			uris := conv.SliceAnyToString(filterMap["uris"])
			if uris == nil {
				uris = []string{}
			}
			var adapter *filter.StoreAdapter
			key := conv.ConfigGet(filterMap, "key", "")
			if key != "" {
				s, err := config.GetStore(conv.ConfigGet(filterMap, "store", config.DefaultName))
				if err != nil {
					return nil, fmt.Errorf("blacklist: %w", err)
				}
				adapter = filter.NewStoreAdapter(s)
			}
			filters = append(filters, filter.NewBlacklistFilter(uris, adapter, key))

		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}
