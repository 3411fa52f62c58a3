package server

import (
	"errors"
	"fmt"
	"sync"
)

var errWorkerStopped = errors.New("analysis worker stopped")

// Workspace holds the latest analysis of every open document. It is only
// touched from the worker goroutine.
type Workspace struct {
	analyses map[string]*Analysis
}

// Update analyzes a new version of the document at uri.
func (ws *Workspace) Update(uri, text string) *Analysis {
	a := Analyze(text)
	ws.analyses[uri] = a
	return a
}

// Get returns the latest analysis of uri, or nil.
func (ws *Workspace) Get(uri string) *Analysis {
	return ws.analyses[uri]
}

// Remove forgets uri.
func (ws *Workspace) Remove(uri string) {
	delete(ws.analyses, uri)
}

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*Workspace) any
	done chan workResult
}

// workResult holds the return value from a workspace operation.
type workResult struct {
	value any
	err   error
}

// Worker serializes all analysis through a single goroutine, so editor
// requests arriving concurrently never race on the workspace.
type Worker struct {
	ws       *Workspace
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		ws:       &Workspace{analyses: make(map[string]*Analysis)},
		requests: make(chan workRequest),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn on the workspace, recovering from panics.
func (w *Worker) execute(fn func(*Workspace) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("analysis panic: %v", r)
			}
		}()
		result.value = fn(w.ws)
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*Workspace) any) (any, error) {
	select {
	case <-w.quit:
		return nil, errWorkerStopped
	default:
	}

	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, errWorkerStopped
	}
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine. Later calls to Do fail.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
