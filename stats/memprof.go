package stats

import (
	"fmt"
	"os"
	"path"
	"runtime/pprof"
	"time"
)

// MemProfiler writes a heap profile to dir every interval. It blocks and
// is meant to run in its own goroutine.
func MemProfiler(dir string, interval time.Duration) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		log.Errorf("creating memprofile dir: %s", err)
		return
	}

	ticker := time.NewTicker(interval)
	i := 0
	for range ticker.C {
		filename := path.Join(
			dir,
			fmt.Sprintf("memprof-%03d.pprof", i),
		)
		f, err := os.Create(filename)
		if err != nil {
			log.Errorf("creating memprofile: %s", err)
			ticker.Stop()
			return
		}
		pprof.WriteHeapProfile(f)
		f.Close()
		i++
	}
}
