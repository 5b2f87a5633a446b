package queue

import (
	"strings"
	"sync"
	"time"
)

type Item struct {
	Parts    []string
	ExpireAt time.Time
}

// ContentQueue buffers entry content per user. Telegram splits long pastes
// into several messages, so each text message extends the buffer and pushes
// the flush deadline out; once the user goes quiet the buffer is flushed as
// a single piece of content.
type ContentQueue struct {
	mu      *sync.RWMutex
	pending map[int64]*Item
	stopCh  chan struct{}

	holdFor    time.Duration // how long to wait for more parts
	flushCheck time.Duration // how often to look for quiet buffers
}

type Config struct {
	HoldFor    time.Duration
	FlushCheck time.Duration
}

func NewContentQueue(cfg Config) *ContentQueue {
	if cfg.HoldFor == 0 {
		cfg.HoldFor = 2 * time.Second
	}
	if cfg.FlushCheck == 0 {
		cfg.FlushCheck = 1 * time.Second
	}
	return &ContentQueue{
		mu:         &sync.RWMutex{},
		pending:    make(map[int64]*Item),
		stopCh:     make(chan struct{}, 1),
		holdFor:    cfg.HoldFor,
		flushCheck: cfg.FlushCheck,
	}
}

func (q *ContentQueue) Add(userID int64, part string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.pending[userID]
	if !ok {
		item = &Item{}
	}
	item.Parts = append(item.Parts, part)
	item.ExpireAt = time.Now().Add(q.holdFor)
	q.pending[userID] = item
}

// Discard drops the user's buffered content before it is flushed.
// Reports whether there was anything buffered.
func (q *ContentQueue) Discard(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[userID]
	delete(q.pending, userID)
	return ok
}

func (q *ContentQueue) Stop() {
	q.stopCh <- struct{}{}
}

func (q *ContentQueue) Run(onContentReady func(userID int64, content string)) {
	go func() {
		ticker := time.NewTicker(q.flushCheck)
		defer ticker.Stop()
		for {
			select {
			case <-q.stopCh:
				return
			case now := <-ticker.C:
				flushItems(q.collectReady(now), onContentReady)
			}
		}
	}()
}

func (q *ContentQueue) collectReady(now time.Time) map[int64]*Item {
	ready := make(map[int64]*Item)
	q.mu.Lock()
	defer q.mu.Unlock()
	for userID, item := range q.pending {
		if !item.ExpireAt.After(now) {
			delete(q.pending, userID)
			ready[userID] = item
		}
	}
	return ready
}

func flushItems(ready map[int64]*Item, onContentReady func(userID int64, content string)) {
	for userID, item := range ready {
		onContentReady(userID, strings.Join(item.Parts, "\n"))
	}
}
