package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Algorithm string
	StartTime time.Time
	Duration  time.Duration
	Visited   int
	Pruned    int
	Cutoffs   int
	Value     float64
}

type Collector interface {
	Start(algorithm string)
	AddVisit()
	AddPrune()
	AddCutoff()
	Complete(value float64) SearchMetric
}

type collector struct {
	algorithm string
	startTime time.Time
	visited   atomic.Int32
	pruned    atomic.Int32
	cutoffs   atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(algorithm string) {
	m.algorithm = algorithm
	m.startTime = time.Now()
	m.visited.Store(0)
	m.pruned.Store(0)
	m.cutoffs.Store(0)
}

func (m *collector) AddVisit() {
	m.visited.Add(1)
}

func (m *collector) AddPrune() {
	m.pruned.Add(1)
}

func (m *collector) AddCutoff() {
	m.cutoffs.Add(1)
}

func (m *collector) Complete(value float64) SearchMetric {
	return SearchMetric{
		Algorithm: m.algorithm,
		StartTime: m.startTime,
		Duration:  time.Since(m.startTime),
		Visited:   int(m.visited.Load()),
		Pruned:    int(m.pruned.Load()),
		Cutoffs:   int(m.cutoffs.Load()),
		Value:     value,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(algorithm string)              {}
func (m *dummyCollector) AddVisit()                           {}
func (m *dummyCollector) AddPrune()                           {}
func (m *dummyCollector) AddCutoff()                          {}
func (m *dummyCollector) Complete(value float64) SearchMetric { return SearchMetric{} }
