package pipeline

import (
	"github.com/alanyoungcy/costsim/internal/domain"
)

// DefaultQueueCapacity bounds the producer/consumer handoff queue. The
// upstream design left the bound unspecified; a bounded drop-oldest queue
// keeps the receive path non-blocking while favouring fresh estimates over
// stale ones.
const DefaultQueueCapacity = 256

// RecordQueue is a bounded FIFO handoff queue between the ingestion pipeline
// (producer) and the periodic consumer. Push never blocks: on overflow the
// oldest record is dropped to make room.
type RecordQueue struct {
	ch      chan domain.CostEstimateRecord
	dropped func()
}

// NewRecordQueue creates a queue with the given capacity (<= 0 uses the
// default). onDrop, when non-nil, is invoked once per evicted record.
func NewRecordQueue(capacity int, onDrop func()) *RecordQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &RecordQueue{
		ch:      make(chan domain.CostEstimateRecord, capacity),
		dropped: onDrop,
	}
}

// Push enqueues a record without blocking, evicting the oldest entry when
// the queue is full.
func (q *RecordQueue) Push(rec domain.CostEstimateRecord) {
	for {
		select {
		case q.ch <- rec:
			return
		default:
		}
		// Full: evict the oldest and retry. The consumer may have raced
		// us and drained in between, so this loops rather than assuming
		// the second send succeeds.
		select {
		case <-q.ch:
			if q.dropped != nil {
				q.dropped()
			}
		default:
		}
	}
}

// Drain removes up to max records (all buffered records when max <= 0)
// without blocking, preserving FIFO order.
func (q *RecordQueue) Drain(max int) []domain.CostEstimateRecord {
	if max <= 0 {
		max = cap(q.ch)
	}
	var out []domain.CostEstimateRecord
	for len(out) < max {
		select {
		case rec := <-q.ch:
			out = append(out, rec)
		default:
			return out
		}
	}
	return out
}

// Len returns the number of buffered records.
func (q *RecordQueue) Len() int {
	return len(q.ch)
}
