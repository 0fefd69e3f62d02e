package imagepipeline

import "runtime"

// pool is the dedicated blocking-work pool decode/encode jobs run on, so
// a flood of CPU-heavy transcodes never starves the goroutines serving
// HTTP requests. Sized to the host's CPU count, the same way the spec's
// originating runtime dedicates a fixed-size blocking thread pool.
var pool = newWorkerPool(runtime.NumCPU())

type job struct {
	fn   func() (*Emote, error)
	done chan<- result
}

type result struct {
	emote *Emote
	err   error
}

type workerPool struct {
	jobs chan job
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{jobs: make(chan job, workers*4)}
	for i := 0; i < workers; i++ {
		go p.loop()
	}
	return p
}

func (p *workerPool) loop() {
	for j := range p.jobs {
		emote, err := j.fn()
		j.done <- result{emote: emote, err: err}
	}
}

// run submits fn to the blocking-work pool and blocks the caller
// (typically already off the HTTP goroutine's hot path via a channel
// receive) until it completes.
func run(fn func() (*Emote, error)) (*Emote, error) {
	done := make(chan result, 1)
	pool.jobs <- job{fn: fn, done: done}
	r := <-done
	return r.emote, r.err
}
