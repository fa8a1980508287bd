package audit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Record is one audited mutation.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Collection string    `json:"collection"`
	RecordID   string    `json:"recordId"`
	OldState   string    `json:"oldState,omitempty"`
	NewState   string    `json:"newState,omitempty"`
	Actor      string    `json:"actor"`
	Message    string    `json:"message"`
}

type PoolConfig struct {
	BatchSize   int
	Timeout     time.Duration
	ChannelSize int
}

type Processor interface {
	Process(batch []Record) error
}

// Logger accepts audit records without blocking the caller.
type Logger interface {
	Log(record Record)
}

type nopLogger struct{}

func (nopLogger) Log(Record) {}

// Nop discards every record.
var Nop Logger = nopLogger{}

// Pool batches records and hands every batch to all processors. A batch is
// flushed when it reaches BatchSize or when Timeout passes.
type Pool struct {
	inputCh    chan Record
	processors []Processor
	batchSize  int
	timeout    time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	dropped int
}

func NewPool(cfg PoolConfig, processors ...Processor) *Pool {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	return &Pool{
		inputCh:    make(chan Record, cfg.ChannelSize),
		processors: processors,
		batchSize:  cfg.BatchSize,
		timeout:    cfg.Timeout,
	}
}

func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.worker(ctx)
		}()
	}
}

func (p *Pool) worker(ctx context.Context) {
	var batch []Record
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			batch = p.drain(batch)
			if len(batch) > 0 {
				p.processBatch(batch)
			}
			return
		case rec := <-p.inputCh:
			batch = append(batch, rec)
			if len(batch) >= p.batchSize {
				p.processBatch(batch)
				batch = nil
				timer.Reset(p.timeout)
			}
		case <-timer.C:
			if len(batch) > 0 {
				p.processBatch(batch)
				batch = nil
			}
			timer.Reset(p.timeout)
		}
	}
}

// drain takes whatever is still buffered so that shutdown loses nothing already accepted.
func (p *Pool) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-p.inputCh:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

func (p *Pool) processBatch(batch []Record) {
	for _, proc := range p.processors {
		if err := proc.Process(batch); err != nil {
			log.Printf("Error processing audit batch: %v", err)
		}
	}
}

func (p *Pool) Log(record Record) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	select {
	case p.inputCh <- record:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		log.Println("Audit log channel full, dropping record")
	}
}

// Dropped is the number of records rejected because the channel was full.
func (p *Pool) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Shutdown cancels the workers' context and waits for the final flush.
func (p *Pool) Shutdown(cancelFunc context.CancelFunc) {
	cancelFunc()
	p.wg.Wait()
}
