package util

import (
	"sync"
	"sync/atomic"
)

// SyncPoint blocks n goroutines until all of them called Sync, then calls
// callback once. Sync does not block after the callback returned.
type SyncPoint struct {
	synced     int32
	wg         sync.WaitGroup
	once       sync.Once
	callbackWg sync.WaitGroup
	callback   func()
}

func NewSyncPoint(n int, callback func()) *SyncPoint {
	s := &SyncPoint{callback: callback}
	s.wg.Add(n)
	s.callbackWg.Add(1)
	return s
}

func (s *SyncPoint) Sync() {
	if atomic.LoadInt32(&s.synced) == 1 {
		return
	}
	s.wg.Done()
	s.wg.Wait()
	s.once.Do(s.call)
	s.callbackWg.Wait()
}

func (s *SyncPoint) call() {
	s.callback()
	atomic.StoreInt32(&s.synced, 1)
	s.callbackWg.Done()
}
