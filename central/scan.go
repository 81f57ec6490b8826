package central

import (
	"context"
	"iter"
	"strconv"
	"sync"
)

type ScanState uint8

const (
	ScanIdle ScanState = iota
	// the start command went out but no Scan is installed yet.
	ScanPending
	ScanActive
)

func (s ScanState) String() string {
	switch s {
	case ScanIdle:
		return "Idle"
	case ScanPending:
		return "Pending"
	case ScanActive:
		return "Active"
	default:
		panic("unknown scan state: " + strconv.Itoa(int(s)))
	}
}

// Scan is the live stream of a discovery session. The queue is unbounded, so
// pushing a discovery never blocks the event path.
type Scan struct {
	mu     sync.Mutex
	queue  []ScanResult
	closed bool

	wake chan struct{}
	done chan struct{}

	stopOnce sync.Once
	onStop   func()
}

func newScan(onStop func()) *Scan {
	return &Scan{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		onStop: onStop,
	}
}

// push enqueues r and reports whether the scan was still open.
func (s *Scan) push(r ScanResult) bool {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return false
	}

	s.queue = append(s.queue, r)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return true
}

// Stop ends the scan. Results already queued are still delivered. The radio is
// told to stop scanning exactly once, no matter how many times or from where
// Stop is called.
func (s *Scan) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)

		if s.onStop != nil {
			s.onStop()
		}
	})
}

// Done is closed once the scan has been stopped.
func (s *Scan) Done() <-chan struct{} {
	return s.done
}

// Results yields discoveries until the scan is stopped or ctx is done. Breaking
// out of the loop stops the scan.
//
//	for r := range scan.Results(ctx) {}
func (s *Scan) Results(ctx context.Context) iter.Seq[ScanResult] {
	return func(yield func(ScanResult) bool) {
		defer s.Stop()

		for {
			r, ok := s.next(ctx)

			if !ok || !yield(r) {
				return
			}
		}
	}
}

func (s *Scan) next(ctx context.Context) (r ScanResult, ok bool) {
	for {
		s.mu.Lock()

		if len(s.queue) > 0 {
			r = s.queue[0]
			s.queue[0] = ScanResult{}
			s.queue = s.queue[1:]
			s.mu.Unlock()

			return r, true
		}

		closed := s.closed
		s.mu.Unlock()

		if closed {
			return r, false
		}

		select {
		case <-s.wake:
		case <-s.done:
		case <-ctx.Done():
			return r, false
		}
	}
}
