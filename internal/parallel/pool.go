// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs thread groups of a CPU dispatch on a pool of
// goroutines.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines executing thread-group work.
//
// Each worker owns a queue and steals from its neighbours when idle, so a
// slow group does not stall the rest of a dispatch.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every work item and waits for all of them. A panic in a
// work item is recovered and returned as an error after the rest finish.
// On a closed pool the items run on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) error {
	if len(work) == 0 {
		return nil
	}

	var (
		completion sync.WaitGroup
		firstPanic atomic.Pointer[panicError]
	)
	wrap := func(fn func()) func() {
		return func() {
			defer completion.Done()
			defer func() {
				if r := recover(); r != nil {
					firstPanic.CompareAndSwap(nil, &panicError{value: r})
				}
			}()
			fn()
		}
	}

	completion.Add(len(work))
	for i, fn := range work {
		w := wrap(fn)
		if !p.running.Load() {
			w()
			continue
		}
		select {
		case p.workQueues[i%p.workers] <- w:
		case <-p.done:
			w()
		}
	}
	completion.Wait()

	if pe := firstPanic.Load(); pe != nil {
		return pe
	}
	return nil
}

// ForEachGroup calls fn(group) for every group in [0, groups) and waits.
func (p *WorkerPool) ForEachGroup(groups int, fn func(group int)) error {
	if groups <= 0 {
		return nil
	}
	work := make([]func(), groups)
	for g := range work {
		work[g] = func() { fn(g) }
	}
	return p.ExecuteAll(work)
}

// Close stops the pool after queued work has run. Safe to call more than
// once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("parallel: work item panicked: %v", e.value)
}
