package worker

import "sync"

// Batch is a countdown latch over jobs submitted through it. Wait returns
// once every one of them has completed, independent of other pool users.
type Batch struct {
	pool *Pool
	wg   sync.WaitGroup
}

func (p *Pool) NewBatch() *Batch {
	return &Batch{pool: p}
}

// Execute submits job to the pool and counts it against the batch.
func (b *Batch) Execute(job Job) error {
	b.wg.Add(1)
	err := b.pool.Execute(func() {
		defer b.wg.Done()
		job()
	})
	if err != nil {
		b.wg.Done()
	}
	return err
}

// Wait blocks until every job of the batch has finished. Submit the whole
// batch before calling it.
func (b *Batch) Wait() {
	b.wg.Wait()
}
