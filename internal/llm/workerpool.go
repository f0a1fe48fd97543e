// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// BalancingStrategy selects which worker in a WorkerPool takes the next
// task.
type BalancingStrategy string

const (
	LeastLoaded BalancingStrategy = "least_loaded"
	RoundRobin  BalancingStrategy = "round_robin"
	Weighted    BalancingStrategy = "weighted"
)

// WorkerStats tracks one worker's running load, mirroring the fields a
// load-balancing dispatcher needs to score fairness across LLM calls
// without any one slow provider starving the others (§4.11).
type WorkerStats struct {
	WorkerID           string        `json:"worker_id"`
	ActiveTasks        int           `json:"active_tasks"`
	CompletedTasks     int           `json:"completed_tasks"`
	FailedTasks        int           `json:"failed_tasks"`
	TotalExecutionTime time.Duration `json:"-"`
	AvgExecutionTime   time.Duration `json:"avg_execution_time_ns"`
	SuccessRate        float64       `json:"success_rate"`
	LoadScore          float64       `json:"load_score"`
	lastTaskTime       time.Time
}

// WorkerPool distributes LLM calls across a fixed number of logical
// workers and tracks per-worker load, so the parallel runner's
// generators don't all hammer the same provider slot at once.
type WorkerPool struct {
	mu         sync.Mutex
	strategy   BalancingStrategy
	workers    []*WorkerStats
	roundRobin int
	totalTasks int
}

// NewWorkerPool creates a pool of numWorkers logical workers using
// strategy (defaults to LeastLoaded for an unrecognized value, matching
// the reference dispatcher's fallback).
func NewWorkerPool(numWorkers int, strategy BalancingStrategy) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 8
	}
	workers := make([]*WorkerStats, numWorkers)
	for i := range workers {
		workers[i] = &WorkerStats{WorkerID: fmt.Sprintf("worker_%d", i), SuccessRate: 1.0}
	}
	return &WorkerPool{strategy: strategy, workers: workers}
}

// Execute runs fn on the worker selected by the pool's strategy,
// updating that worker's stats on completion.
func (p *WorkerPool) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	idx := p.selectWorker()

	p.mu.Lock()
	p.workers[idx].ActiveTasks++
	p.totalTasks++
	p.mu.Unlock()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	p.recordResult(idx, elapsed, err == nil)
	return err
}

func (p *WorkerPool) selectWorker() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.strategy {
	case RoundRobin:
		idx := p.roundRobin % len(p.workers)
		p.roundRobin++
		return idx
	case Weighted:
		return p.selectWeightedLocked()
	default:
		return p.selectLeastLoadedLocked()
	}
}

func (p *WorkerPool) selectLeastLoadedLocked() int {
	best := 0
	bestScore := loadScore(p.workers[0])
	for i, w := range p.workers {
		w.LoadScore = loadScore(w)
		if w.LoadScore < bestScore {
			best, bestScore = i, w.LoadScore
		}
	}
	return best
}

func (p *WorkerPool) selectWeightedLocked() int {
	weights := make([]float64, len(p.workers))
	var total float64
	for i, w := range p.workers {
		weight := w.SuccessRate / (float64(w.AvgExecutionTime.Milliseconds())/1000.0 + 1) / float64(w.ActiveTasks+1)
		weights[i] = weight
		total += weight
	}
	if total == 0 {
		return rand.Intn(len(p.workers))
	}
	r := rand.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return i
		}
	}
	return len(p.workers) - 1
}

func loadScore(w *WorkerStats) float64 {
	baseLoad := float64(w.ActiveTasks)
	performanceFactor := float64(w.AvgExecutionTime.Milliseconds()) / 10000.0
	successFactor := (1.0 - w.SuccessRate) * 5.0
	timeFactor := 0.0
	if !w.lastTaskTime.IsZero() {
		since := time.Since(w.lastTaskTime).Seconds()
		if since < 10 {
			timeFactor = (10.0 - since) / 10.0
		}
	}
	return baseLoad + performanceFactor + successFactor + timeFactor
}

func (p *WorkerPool) recordResult(idx int, elapsed time.Duration, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.workers[idx]
	if w.ActiveTasks > 0 {
		w.ActiveTasks--
	}
	w.lastTaskTime = time.Now()

	if success {
		w.CompletedTasks++
	} else {
		w.FailedTasks++
	}

	total := w.CompletedTasks + w.FailedTasks
	if total > 0 {
		w.TotalExecutionTime += elapsed
		w.AvgExecutionTime = w.TotalExecutionTime / time.Duration(total)
		w.SuccessRate = float64(w.CompletedTasks) / float64(total)
	}
	w.LoadScore = loadScore(w)
}

// Stats returns a snapshot of every worker's current statistics.
// report.json does not include them.
func (p *WorkerPool) Stats() []WorkerStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		out[i] = *w
	}
	return out
}

// TotalTasks returns the number of tasks dispatched since the pool was
// created.
func (p *WorkerPool) TotalTasks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalTasks
}
