package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Recorder writes journal records asynchronously so that recording never
// blocks a request flow. Records are enqueued on a buffered channel and
// drained by a single background worker; when the buffer is full the record
// is dropped and counted.
type Recorder struct {
	store      Store
	recordChan chan *Record
	done       chan struct{}
	wg         sync.WaitGroup
	logger     *slog.Logger

	dropped atomic.Int64
}

// NewRecorder creates a recorder over the given store and starts its
// background worker. bufferSize bounds the number of records awaiting
// write.
func NewRecorder(store Store, bufferSize int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	r := &Recorder{
		store:      store,
		recordChan: make(chan *Record, bufferSize),
		done:       make(chan struct{}),
		logger:     logger.With("component", "usage.journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("usage journal recorder started", "async_buffer", bufferSize)
	return r
}

// Record assigns the record an ID and timestamp and enqueues it for async
// writing. It never blocks; a full buffer drops the record.
func (r *Recorder) Record(record *Record) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	select {
	case r.recordChan <- record:
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping journal record",
			"record_id", record.ID,
			"request_id", record.RequestID,
		)
	default:
		dropped := r.dropped.Add(1)
		r.logger.Error("journal buffer full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"dropped_total", dropped,
		)
	}
}

// Dropped returns how many records have been dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops the worker after draining all enqueued records, then closes
// the underlying store.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return r.store.Close()
}

// worker drains the record channel into the store.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			// Drain whatever is still buffered before exiting.
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.Write(ctx, record); err != nil {
		r.logger.Error("failed to write journal record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
	}
}
