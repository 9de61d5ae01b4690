package writer

import (
	"sync"

	"github.com/omniscale/osmfeatures/feature"
)

const bufferSize = 1024 * 8

// FeatureBuffer collects features from multiple goroutines and passes them
// in batches to a single consumer that calls the wrapped Emitter. Emit is
// safe for concurrent use; the wrapped Emitter is only called from one
// goroutine.
type FeatureBuffer struct {
	In  chan *feature.Feature
	out chan []*feature.Feature
	wg  *sync.WaitGroup

	emitter feature.Emitter
	mu      sync.Mutex
	err     error
}

func NewFeatureBuffer(emitter feature.Emitter) *FeatureBuffer {
	fb := FeatureBuffer{
		In:      make(chan *feature.Feature, 256),
		out:     make(chan []*feature.Feature, 8),
		wg:      &sync.WaitGroup{},
		emitter: emitter,
	}
	fb.wg.Add(2)
	go fb.loop()
	go fb.consume()
	return &fb
}

// Emit queues f. It returns the first error of the wrapped Emitter, if
// any occurred so far.
func (fb *FeatureBuffer) Emit(f *feature.Feature) error {
	if err := fb.Err(); err != nil {
		return err
	}
	fb.In <- f
	return nil
}

func (fb *FeatureBuffer) Err() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.err
}

// Close flushes all queued features and returns the first error of the
// wrapped Emitter. Emit must not be called after Close.
func (fb *FeatureBuffer) Close() error {
	close(fb.In)
	fb.wg.Wait()
	return fb.Err()
}

func (fb *FeatureBuffer) loop() {
	defer fb.wg.Done()
	defer close(fb.out)
	batch := make([]*feature.Feature, 0, bufferSize)
	for f := range fb.In {
		batch = append(batch, f)
		if len(batch) >= bufferSize {
			fb.out <- batch
			batch = make([]*feature.Feature, 0, bufferSize)
		}
	}
	if len(batch) > 0 {
		fb.out <- batch
	}
}

// consume passes all batches to the emitter. After the first error all
// remaining features are discarded.
func (fb *FeatureBuffer) consume() {
	defer fb.wg.Done()
	for batch := range fb.out {
		if fb.Err() != nil {
			continue
		}
		for _, f := range batch {
			if err := fb.emitter.Emit(f); err != nil {
				fb.mu.Lock()
				fb.err = err
				fb.mu.Unlock()
				break
			}
		}
	}
}
