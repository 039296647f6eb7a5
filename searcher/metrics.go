package searcher

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Policy      string        `json:"policy"`
	Goroutines  int           `json:"goroutines"`
	Depth       int           `json:"depth"` // Base depth for expectimax, rollout horizon for Monte Carlo
	Duration    time.Duration `json:"duration"`
	Evaluations int64         `json:"evaluations"`
	ChanceNodes int64         `json:"chance_nodes"`
	Rollouts    int64         `json:"rollouts"`
}

type Collector interface {
	Start(policy string, goroutines, depth int)
	AddEvaluation()
	AddChanceNode()
	AddRollout()
	Complete() SearchMetric
}

type collector struct {
	policy      string
	goroutines  int
	depth       int
	startTime   time.Time
	evaluations atomic.Int64
	chanceNodes atomic.Int64
	rollouts    atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(policy string, goroutines, depth int) {
	m.startTime = time.Now()
	m.policy = policy
	m.goroutines = goroutines
	m.depth = depth
	m.evaluations.Store(0)
	m.chanceNodes.Store(0)
	m.rollouts.Store(0)
}

func (m *collector) AddEvaluation() {
	m.evaluations.Add(1)
}

func (m *collector) AddChanceNode() {
	m.chanceNodes.Add(1)
}

func (m *collector) AddRollout() {
	m.rollouts.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Policy:      m.policy,
		Goroutines:  m.goroutines,
		Depth:       m.depth,
		Duration:    time.Since(m.startTime),
		Evaluations: m.evaluations.Load(),
		ChanceNodes: m.chanceNodes.Load(),
		Rollouts:    m.rollouts.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(policy string, goroutines, depth int) {}
func (m *dummyCollector) AddEvaluation()                             {}
func (m *dummyCollector) AddChanceNode()                             {}
func (m *dummyCollector) AddRollout()                                {}
func (m *dummyCollector) Complete() SearchMetric                     { return SearchMetric{} }
