package application

import "sync"

// WorkerPool runs jobs on at most width goroutines and holds up to depth
// more in a queue. Resizing affects admissions from then on; running and
// queued jobs are left alone.
type WorkerPool struct {
	mu      sync.Mutex
	width   int
	depth   int
	running int
	queue   []func()
	wg      sync.WaitGroup
}

func NewWorkerPool(width, depth int) *WorkerPool {
	p := &WorkerPool{}
	p.Resize(width, depth)
	return p
}

// TrySubmit starts or queues job. It reports false, without blocking, when
// every worker is busy and the queue is full.
func (p *WorkerPool) TrySubmit(job func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.running < p.width:
		p.wg.Add(1)
		p.startLocked(job)
	case len(p.queue) < p.depth:
		p.wg.Add(1)
		p.queue = append(p.queue, job)
	default:
		return false
	}
	return true
}

func (p *WorkerPool) Resize(width, depth int) {
	if width < 1 {
		width = 1
	}
	if depth < 0 {
		depth = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.width = width
	p.depth = depth
	p.drainQueueLocked()
}

// Stats returns the number of running and queued jobs.
func (p *WorkerPool) Stats() (running, queued int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running, len(p.queue)
}

// Wait blocks until every admitted job has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) startLocked(job func()) {
	p.running++
	go func() {
		defer p.finish()
		job()
	}()
}

func (p *WorkerPool) finish() {
	p.mu.Lock()
	p.running--
	p.drainQueueLocked()
	p.mu.Unlock()
	p.wg.Done()
}

func (p *WorkerPool) drainQueueLocked() {
	for p.running < p.width && len(p.queue) > 0 {
		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.startLocked(job)
	}
}
