package searchlog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

type memRepo struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memRepo) Insert(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func TestLog_NonBlocking(t *testing.T) {
	// No background writer: fill the channel, then verify Log drops.
	s := &Service{
		eventCh: make(chan Event, 2),
		done:    make(chan struct{}),
	}
	s.eventCh <- Event{Catalog: "books"}
	s.eventCh <- Event{Catalog: "books"}

	done := make(chan struct{})
	go func() {
		s.Log(context.Background(), Event{Catalog: "dropped"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Log blocked when channel was full")
	}

	if len(s.eventCh) != 2 {
		t.Fatalf("expected 2 events in channel, got %d", len(s.eventCh))
	}
	if s.DroppedCount() != 1 {
		t.Fatalf("expected dropped count 1, got %d", s.DroppedCount())
	}
}

func TestShutdown_DrainsQueuedEvents(t *testing.T) {
	repo := &memRepo{}
	s := NewService(repo)
	s.Start()

	for i := 0; i < 10; i++ {
		s.Log(context.Background(), Event{Catalog: "thesis", Results: i})
	}
	s.Shutdown(context.Background())

	if len(repo.events) != 10 {
		t.Fatalf("expected 10 written events, got %d", len(repo.events))
	}
	if repo.events[9].Results != 9 {
		t.Errorf("events written out of order: %+v", repo.events[9])
	}
}

func TestWriteEvent_ErrorIsSwallowed(t *testing.T) {
	s := NewService(&memRepo{err: errors.New("relation \"search_log\" does not exist")})
	s.Start()
	s.Log(context.Background(), Event{Catalog: "books"})
	s.Shutdown(context.Background())
}

func TestShutdown_AlwaysWaitsForDone(t *testing.T) {
	s := &Service{
		eventCh: make(chan Event),
		done:    make(chan struct{}),
	}

	go func() {
		time.Sleep(200 * time.Millisecond)
		close(s.done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	start := time.Now()
	s.Shutdown(ctx)
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Shutdown returned too quickly (%v), did not wait for done channel", elapsed)
	}
}

func TestLog_AfterShutdownIsDropped(t *testing.T) {
	repo := &memRepo{}
	s := NewService(repo)
	s.Start()
	s.Shutdown(context.Background())

	// A handler still in flight after the server's shutdown deadline.
	s.Log(context.Background(), Event{Catalog: "thesis"})

	if s.DroppedCount() != 1 {
		t.Errorf("expected dropped count 1, got %d", s.DroppedCount())
	}
	if len(repo.events) != 0 {
		t.Errorf("expected no written events, got %d", len(repo.events))
	}

	// A second Shutdown must not close the channel again.
	s.Shutdown(context.Background())
}

func TestLog_ConcurrentWithShutdown(t *testing.T) {
	s := NewService(&memRepo{})
	s.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Log(context.Background(), Event{Catalog: "books"})
			}
		}()
	}
	s.Shutdown(context.Background())
	wg.Wait()
}

func TestBuildRecentQuery(t *testing.T) {
	sql, args := buildRecentQuery("", 20)
	if strings.Contains(sql, "WHERE") || !strings.HasSuffix(sql, "LIMIT $1") {
		t.Errorf("unexpected sql: %s", sql)
	}
	if !reflect.DeepEqual(args, []any{20}) {
		t.Errorf("args = %v", args)
	}

	sql, args = buildRecentQuery("books", 5)
	if !strings.Contains(sql, "WHERE catalog = $1") || !strings.HasSuffix(sql, "LIMIT $2") {
		t.Errorf("unexpected sql: %s", sql)
	}
	if !reflect.DeepEqual(args, []any{"books", 5}) {
		t.Errorf("args = %v", args)
	}
}

func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("empty string should map to nil")
	}
	if got := nullIfEmpty("machine"); got == nil || *got != "machine" {
		t.Errorf("nullIfEmpty(machine) = %v", got)
	}
}
