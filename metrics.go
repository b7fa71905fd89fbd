package vitalchain

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 区块处理的统计
type Metrics struct {
	blocks       prometheus.Counter
	candidates   prometheus.Counter
	txs          *prometheus.CounterVec // 按 fault 类别区分结果
	instructions prometheus.Counter
	blockTime    prometheus.Histogram
}

// NewMetrics 创建并注册统计项
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalchain",
			Name:      "blocks_processed",
			Help:      "number of processed blocks",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalchain",
			Name:      "candidate_txs",
			Help:      "number of transactions carrying programs",
		}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalchain",
			Name:      "txs_executed",
			Help:      "number of executed transactions by outcome",
		}, []string{"class"}),
		instructions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalchain",
			Name:      "instructions_executed",
			Help:      "number of successfully executed instructions",
		}),
		blockTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vitalchain",
			Name:      "block_process_seconds",
			Help:      "time spent processing a block",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.blocks, m.candidates, m.txs, m.instructions, m.blockTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
