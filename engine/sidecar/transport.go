package sidecar

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ecosysx/simrun"
)

// transport frames outbound commands as newline-terminated JSON records and
// decodes inbound lines into classified records.
//
// Outbound writes are serialized by a mutex and confirmed synchronously: a
// short write is a ProtocolError, never silently ignored. Inbound records
// flow through the channel returned by records(); one undecodable line
// yields a record carrying a ProtocolError without terminating the stream.
//
// The transport passes correlation IDs through untouched — it has no notion
// of which command an ID belongs to.
type transport struct {
	mu sync.Mutex
	w  io.Writer

	scanner *bufio.Scanner
	recs    chan record

	closeOnce sync.Once
	closed    chan struct{} // closed by the session when it stops consuming
	done      chan struct{} // closed when readLoop exits
	readErr   atomic.Value  // stores error (nil = clean EOF)
}

// newTransport creates a transport reading inbound records from r and
// writing outbound commands to w. Call readLoop in a goroutine to start
// the inbound stream.
func newTransport(r io.Reader, w io.Writer, maxRecordSize int) *transport {
	if maxRecordSize <= 0 {
		maxRecordSize = defaultMaxRecordSize
	}
	scanner := bufio.NewScanner(r)
	initCap := min(4096, maxRecordSize)
	scanner.Buffer(make([]byte, 0, initCap), maxRecordSize)

	return &transport{
		w:       w,
		scanner: scanner,
		recs:    make(chan record, recordQueueSize),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// send serializes v to a single-line JSON record, appends the record
// separator, and writes it. It confirms the OS accepted the full byte count
// before returning; a short write is a *simrun.ProtocolError. Thread-safe.
func (t *transport) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sidecar: marshal command: %w", err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.w.Write(data)
	if err != nil {
		return &simrun.ProtocolError{Op: "write", Err: err}
	}
	if n != len(data) {
		return &simrun.ProtocolError{
			Op:  "write",
			Err: fmt.Errorf("short write: %d of %d bytes", n, len(data)),
		}
	}
	return nil
}

// records returns the inbound record stream. The channel is closed when the
// reader reaches EOF or the stream is torn down; it is restartable only by
// spawning a new process and a new transport.
func (t *transport) records() <-chan record {
	return t.recs
}

// readLoop reads and classifies inbound lines until the reader closes.
// Blank lines are skipped; everything else is classified, including
// undecodable lines, which surface as ProtocolError records. Must be
// called exactly once.
func (t *transport) readLoop() {
	defer close(t.done)
	defer close(t.recs)

	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec := classifyLine(line)
		select {
		case t.recs <- rec:
		case <-t.closed:
			return
		}
	}

	if err := t.scanner.Err(); err != nil {
		t.readErr.Store(err)
	}
}

// close stops the inbound stream so a blocked readLoop can exit. Safe to
// call more than once.
func (t *transport) close() {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
}

// err returns the readLoop error after it exits. Returns nil if readLoop
// has not finished or the reader closed cleanly.
func (t *transport) err() error {
	if v := t.readErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}
