package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/omniscale/osmfeatures/logging"
)

var log = logging.NewLogger("stats")

// Statistics counts read elements, written features, rejected elements
// and warnings. Warnings are counted for elements that are still written.
// All methods are safe for concurrent use.
type Statistics struct {
	coords    counter
	nodes     counter
	ways      counter
	relations counter

	points counter
	lines  counter
	areas  counter

	rejected reasonCounter
	warnings reasonCounter

	done    chan bool
	stopped chan bool
}

func New() *Statistics {
	return &Statistics{}
}

func (s *Statistics) AddCoords(n int)    { s.coords.Add(n) }
func (s *Statistics) AddNodes(n int)     { s.nodes.Add(n) }
func (s *Statistics) AddWays(n int)      { s.ways.Add(n) }
func (s *Statistics) AddRelations(n int) { s.relations.Add(n) }

func (s *Statistics) AddPoints(n int) { s.points.Add(n) }
func (s *Statistics) AddLines(n int)  { s.lines.Add(n) }
func (s *Statistics) AddAreas(n int)  { s.areas.Add(n) }

// Reject counts an element that was dropped for reason.
func (s *Statistics) Reject(reason string) {
	s.rejected.Add(reason)
}

// Rejected returns a copy of all rejection counts by reason.
func (s *Statistics) Rejected() map[string]int64 {
	return s.rejected.Counts()
}

// Warn counts a problem with an element that is still processed.
func (s *Statistics) Warn(reason string) {
	s.warnings.Add(reason)
}

// Warnings returns a copy of all warning counts by reason.
func (s *Statistics) Warnings() map[string]int64 {
	return s.warnings.Counts()
}

type Counts struct {
	Coords, Nodes, Ways, Relations int64
	Points, Lines, Areas           int64
}

func (s *Statistics) Counts() Counts {
	return Counts{
		Coords:    s.coords.Value(),
		Nodes:     s.nodes.Value(),
		Ways:      s.ways.Value(),
		Relations: s.relations.Value(),
		Points:    s.points.Value(),
		Lines:     s.lines.Value(),
		Areas:     s.areas.Value(),
	}
}

// StatsReporter returns Statistics that print a progress line every
// second until Stop is called.
func StatsReporter() *Statistics {
	s := New()
	s.done = make(chan bool)
	s.stopped = make(chan bool)

	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		defer close(s.stopped)
		for {
			select {
			case <-tick.C:
				logging.Progress(s.progressLine())
			case <-s.done:
				return
			}
		}
	}()
	return s
}

func (s *Statistics) progressLine() string {
	c := s.Counts()
	if c.Points+c.Lines+c.Areas > 0 {
		return fmt.Sprintf("[%s] Nodes: %d Ways: %d Relations: %d  Points: %d Lines: %d Areas: %d",
			time.Now().Format(time.Stamp), c.Nodes, c.Ways, c.Relations, c.Points, c.Lines, c.Areas)
	}
	return fmt.Sprintf("[%s] Coords: %d Nodes: %d Ways: %d Relations: %d",
		time.Now().Format(time.Stamp), c.Coords, c.Nodes, c.Ways, c.Relations)
}

// Stop ends the reporter and logs the final counts, all rejections and
// all warnings.
func (s *Statistics) Stop() {
	if s.done != nil {
		close(s.done)
		<-s.stopped
		s.done = nil
	}
	log.Print(s.progressLine())

	rejected := s.rejected.Counts()
	for _, r := range sortedReasons(rejected) {
		log.Printf("rejected %s: %d", r, rejected[r])
	}
	warnings := s.warnings.Counts()
	for _, r := range sortedReasons(warnings) {
		log.Warnf("%s: %d", r, warnings[r])
	}
}

func sortedReasons(counts map[string]int64) []string {
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}
