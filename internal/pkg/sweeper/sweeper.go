package sweeper

import (
	"log"
	"sync"
	"time"

	"github.com/agentpayhq/agentpay/app/repository"
)

// Sweeper persists EXPIRED for pending requests whose expiry has passed.
// Readers already observe such requests as expired; the sweeper only keeps
// the stored status from drifting indefinitely.
type Sweeper struct {
	links    repository.PaymentRequestRepository
	interval time.Duration

	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a sweeper running at the given interval.
func New(links repository.PaymentRequestRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		links:    links,
		interval: interval,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.ticker = time.NewTicker(s.interval)

	s.wg.Add(1)
	go s.loop()
	log.Printf("[Sweeper] Started, interval %v", s.interval)
}

// Stop halts the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stopCh)
	s.wg.Wait()
	log.Print("[Sweeper] Stopped")
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.SweepOnce()
		case <-s.stopCh:
			return
		}
	}
}

// SweepOnce marks every expired pending request and reports the count.
func (s *Sweeper) SweepOnce() int64 {
	updated, err := s.links.MarkExpiredBefore(time.Now())
	if err != nil {
		log.Printf("[Sweeper] Failed to mark expired requests: %v", err)
		return 0
	}
	if updated > 0 {
		log.Printf("[Sweeper] Marked %d requests as expired", updated)
	}
	return updated
}
