// Package logging prints log records of named components and a single
// progress line. All output is written by one broker goroutine, so records
// of concurrent workers never tear the progress line.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type level int

const (
	levelFatal level = iota
	levelError
	levelWarn
	levelInfo
	levelDebug
)

var levelNames = [...]string{"fatal", "error", "warn", "info", "debug"}

func (l level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return ""
	}
	return levelNames[l]
}

type record struct {
	level     level
	component string
	msg       string
}

type step struct {
	component string
	name      string
	stop      bool
}

const clearLine = "\x1b[2K"

type broker struct {
	records  chan record
	progress chan string
	steps    chan step
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	quiet int32
	debug int32

	out          io.Writer
	lastProgress string
	midLine      bool
}

func newBroker(out io.Writer) *broker {
	b := &broker{
		records:  make(chan record, 8),
		progress: make(chan string),
		steps:    make(chan step),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		out:      out,
	}
	go b.loop()
	return b
}

func (b *broker) loop() {
	defer close(b.done)
	started := make(map[step]time.Time)
	for {
		select {
		case r := <-b.records:
			b.printRecord(r)
		case p := <-b.progress:
			if atomic.LoadInt32(&b.quiet) == 0 {
				b.printProgress(p)
			}
		case s := <-b.steps:
			if !s.stop {
				started[s] = time.Now()
				b.printProgress(s.name)
				continue
			}
			s.stop = false
			took := time.Since(started[s])
			delete(started, s)
			b.printRecord(record{levelInfo, s.component, s.name + " took: " + took.String()})
		case <-b.quit:
			b.flush()
			return
		}
	}
}

// flush prints records that are still queued.
func (b *broker) flush() {
	for {
		select {
		case r := <-b.records:
			b.printRecord(r)
		default:
			return
		}
	}
}

func (b *broker) printRecord(r record) {
	if b.midLine {
		fmt.Fprint(b.out, clearLine)
	}
	fmt.Fprint(b.out, "[", time.Now().Format(time.Stamp), "] ")
	if r.component != "" {
		fmt.Fprint(b.out, "[", r.component, "] ")
	}
	if r.level != levelInfo {
		fmt.Fprint(b.out, "[", r.level, "] ")
	}
	fmt.Fprintln(b.out, r.msg)
	b.midLine = false
	if b.lastProgress != "" {
		b.printProgress(b.lastProgress)
	}
}

func (b *broker) printProgress(msg string) {
	fmt.Fprint(b.out, "[", time.Now().Format(time.Stamp), "] ", msg, "\r")
	b.lastProgress = msg
	b.midLine = true
}

func (b *broker) stop() {
	b.stopOnce.Do(func() {
		close(b.quit)
		<-b.done
	})
}

var defaultBroker = newBroker(os.Stderr)

// Progress replaces the current progress line. It is not shown in quiet
// mode.
func Progress(msg string) {
	defaultBroker.progress <- msg
}

func SetQuiet(quiet bool) {
	setFlag(&defaultBroker.quiet, quiet)
}

// SetDebug enables debug records. They are dropped before reaching the
// broker otherwise.
func SetDebug(enabled bool) {
	setFlag(&defaultBroker.debug, enabled)
}

func setFlag(flag *int32, enabled bool) {
	var v int32
	if enabled {
		v = 1
	}
	atomic.StoreInt32(flag, v)
}

// Shutdown stops the broker after printing all pending records.
// Logging after Shutdown blocks.
func Shutdown() {
	defaultBroker.stop()
}

// Logger sends records of one component.
type Logger struct {
	component string
	b         *broker
}

func NewLogger(component string) *Logger {
	return &Logger{component: component, b: defaultBroker}
}

func (l *Logger) send(lvl level, msg string) {
	l.b.records <- record{lvl, l.component, msg}
}

func (l *Logger) Print(args ...interface{}) {
	l.send(levelInfo, fmt.Sprint(args...))
}

func (l *Logger) Printf(msg string, args ...interface{}) {
	l.send(levelInfo, fmt.Sprintf(msg, args...))
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	if atomic.LoadInt32(&l.b.debug) == 0 {
		return
	}
	l.send(levelDebug, fmt.Sprintf(msg, args...))
}

func (l *Logger) Warn(args ...interface{}) {
	l.send(levelWarn, fmt.Sprint(args...))
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	l.send(levelWarn, fmt.Sprintf(msg, args...))
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.send(levelError, fmt.Sprintf(msg, args...))
}

// Fatal logs args and exits with status 1 after all records are printed.
func (l *Logger) Fatal(args ...interface{}) {
	l.send(levelFatal, fmt.Sprint(args...))
	l.b.stop()
	os.Exit(1)
}

func (l *Logger) Fatalf(msg string, args ...interface{}) {
	l.Fatal(fmt.Sprintf(msg, args...))
}

// StartStep shows msg as progress line until StopStep is called with the
// same msg, which then logs the duration of the step.
func (l *Logger) StartStep(msg string) string {
	l.b.steps <- step{component: l.component, name: msg}
	return msg
}

func (l *Logger) StopStep(msg string) {
	l.b.steps <- step{component: l.component, name: msg, stop: true}
}
