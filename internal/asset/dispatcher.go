// Copyright 2026 The bithorded Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset implements StoredAsset: a file plus its persistent
// Tiger Tree Hash metadata, served through a bounded-concurrency
// hashing pipeline.
package asset

import "sync"

// Job is a unit of CPU-bound work executed on the Dispatcher's worker
// pool. Its return value is delivered to the paired ResultHandler on
// the IO thread.
type Job func() any

// ResultHandler processes a Job's result on the single IO thread. All
// mutation of StoredAsset and hasher state happens here.
type ResultHandler func(any)

type cpuTask struct {
	job     Job
	handler ResultHandler
}

// Dispatcher is a two-queue work pool: a fixed-size CPU worker pool
// that runs Jobs, and a single IO thread that runs their
// ResultHandlers in the order jobs complete. Every submitted job's
// handler eventually runs exactly once on the IO thread, provided the
// dispatcher is not closed first; jobs still queued (not yet started)
// at Close are dropped silently, but any job that already started
// always reports its result before its worker exits.
type Dispatcher struct {
	cpuTasks chan cpuTask
	ioTasks  chan func()
	closed   chan struct{}
	closeOne sync.Once
	wgCPU    sync.WaitGroup
	wgIO     sync.WaitGroup
}

// NewDispatcher starts a Dispatcher with the given number of CPU
// worker goroutines and one IO goroutine.
func NewDispatcher(cpuWorkers int) *Dispatcher {
	d := &Dispatcher{
		cpuTasks: make(chan cpuTask, 256),
		ioTasks:  make(chan func(), 256),
		closed:   make(chan struct{}),
	}

	for i := 0; i < cpuWorkers; i++ {
		d.wgCPU.Add(1)
		go d.cpuWorker()
	}

	d.wgIO.Add(1)
	go d.ioLoop()

	return d
}

// Submit runs job() on the CPU pool and posts handler(result) to the
// IO thread once it completes. Submissions after Close are dropped.
func (d *Dispatcher) Submit(job Job, handler ResultHandler) {
	select {
	case d.cpuTasks <- cpuTask{job: job, handler: handler}:
	case <-d.closed:
	}
}

func (d *Dispatcher) cpuWorker() {
	defer d.wgCPU.Done()
	for {
		select {
		case task, ok := <-d.cpuTasks:
			if !ok {
				return
			}
			result := task.job()
			d.ioTasks <- func() { task.handler(result) }
		case <-d.closed:
			return
		}
	}
}

func (d *Dispatcher) ioLoop() {
	defer d.wgIO.Done()
	for fn := range d.ioTasks {
		fn()
	}
}

// Close stops accepting new work, drops any jobs not yet started,
// waits for in-flight jobs to finish and report, then returns.
func (d *Dispatcher) Close() {
	d.closeOne.Do(func() { close(d.closed) })
	d.wgCPU.Wait()
	close(d.ioTasks)
	d.wgIO.Wait()
}
