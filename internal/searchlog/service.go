package searchlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// eventChannelSize is the buffer size for the async event channel. When the
// channel is full, events are dropped with a warning log.
const eventChannelSize = 256

// Service records searches asynchronously. Events are sent to a buffered
// channel and written by a background goroutine, so recording never blocks
// or fails a search request.
type Service struct {
	repo         Inserter
	eventCh      chan Event
	done         chan struct{}
	droppedCount atomic.Uint64

	// mu guards closed; Log holds it for reading so Shutdown cannot close
	// eventCh under a send.
	mu     sync.RWMutex
	closed bool
}

// Inserter persists a single event.
type Inserter interface {
	Insert(ctx context.Context, event Event) error
}

// NewService creates a Service writing through repo. Call Start to begin
// processing events and Shutdown to drain and stop.
func NewService(repo Inserter) *Service {
	return &Service{
		repo:    repo,
		eventCh: make(chan Event, eventChannelSize),
		done:    make(chan struct{}),
	}
}

// Log queues an event. It never blocks; when the queue is full or the
// service has been shut down the event is dropped.
func (s *Service) Log(ctx context.Context, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		dropped := s.droppedCount.Add(1)
		slog.Warn("search log stopped, dropping event",
			"catalog", event.Catalog,
			"total_dropped", dropped,
		)
		return
	}

	select {
	case s.eventCh <- event:
	default:
		dropped := s.droppedCount.Add(1)
		slog.Warn("search log channel full, dropping event",
			"catalog", event.Catalog,
			"strategy", event.Strategy,
			"total_dropped", dropped,
		)
	}
}

// Start begins the background writer. Must be called once after NewService.
func (s *Service) Start() {
	go s.processEvents()
}

// Shutdown closes the queue and waits for buffered events to be written.
// If ctx expires first a warning is logged, but Shutdown still waits for the
// writer so no insert races with pool shutdown.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.eventCh)
	s.mu.Unlock()

	select {
	case <-s.done:
		slog.Info("search log shutdown complete")
	case <-ctx.Done():
		slog.Warn("search log shutdown timeout, still waiting for drain")
		<-s.done
	}
}

func (s *Service) processEvents() {
	defer close(s.done)

	for event := range s.eventCh {
		s.writeEvent(event)
	}
}

// writeEvent inserts one event. Errors are logged, never propagated.
func (s *Service) writeEvent(event Event) {
	// The request context is usually gone by now.
	ctx := context.Background()

	if err := s.repo.Insert(ctx, event); err != nil {
		slog.Error("failed to write search log event",
			"catalog", event.Catalog,
			"strategy", event.Strategy,
			"error", err,
		)
	}
}

// DroppedCount returns the number of events dropped since start.
func (s *Service) DroppedCount() uint64 {
	return s.droppedCount.Load()
}
