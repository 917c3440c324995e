package sidecar

import (
	"errors"
	"testing"
)

func TestQueue_FlushPreservesOrder(t *testing.T) {
	var q commandQueue
	q.enqueue(command{ID: 1, Method: MethodInit})
	q.enqueue(command{ID: 2, Method: MethodStep})
	q.enqueue(command{ID: 3, Method: MethodStop})

	var sent []int64
	err := q.flush(func(c command) error {
		sent = append(sent, c.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(sent) != len(want) {
		t.Fatalf("sent %v, want %v", sent, want)
	}
	for i, id := range want {
		if sent[i] != id {
			t.Errorf("sent[%d] = %d, want %d", i, sent[i], id)
		}
	}
	if q.len() != 0 {
		t.Errorf("len() = %d after flush, want 0", q.len())
	}
}

func TestQueue_FlushResumesFromFirstUnsent(t *testing.T) {
	var q commandQueue
	q.enqueue(command{ID: 1})
	q.enqueue(command{ID: 2})
	q.enqueue(command{ID: 3})

	sendErr := errors.New("pipe broken")
	calls := 0
	err := q.flush(func(c command) error {
		calls++
		if c.ID == 2 {
			return sendErr
		}
		return nil
	})
	if !errors.Is(err, sendErr) {
		t.Fatalf("flush error = %v, want %v", err, sendErr)
	}
	// The failed command and everything behind it stay queued.
	if q.len() != 2 {
		t.Fatalf("len() = %d after failed flush, want 2", q.len())
	}

	var resumed []int64
	if err := q.flush(func(c command) error {
		resumed = append(resumed, c.ID)
		return nil
	}); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if len(resumed) != 2 || resumed[0] != 2 || resumed[1] != 3 {
		t.Errorf("resumed = %v, want [2 3]", resumed)
	}
}

func TestQueue_FlushEmpty(t *testing.T) {
	var q commandQueue
	if err := q.flush(func(command) error {
		t.Error("send must not be called for an empty queue")
		return nil
	}); err != nil {
		t.Errorf("flush: %v", err)
	}
}
