package queue

import (
	"bytes"
	"testing"
)

func TestNew(t *testing.T) {
	q := New(10, 4)
	if q.Length() != 0 {
		t.Errorf("expected queue to be empty but it has %d items", q.Length())
	}
}

func TestPush(t *testing.T) {
	q := New(10, 4)
	for i := 0; i < 10; i++ {
		if !q.Push([]byte{0x01, 0x02, 0x03, 0x04}) {
			t.Fatalf("push %d should have succeeded under capacity", i)
		}
	}
	if q.Length() != 10 {
		t.Errorf("pushed 10 items onto the queue but it only has %d items", q.Length())
	}
}

func TestPushRejectsPastCapacity(t *testing.T) {
	q := New(2, 4)
	q.Push([]byte{0x01})
	q.Push([]byte{0x02})
	if q.Push([]byte{0x03}) {
		t.Fatal("push past capacity should have been rejected")
	}
}

func TestPop(t *testing.T) {
	q := New(10, 4)
	items := [][]byte{{0x00}, {0x11}, {0x22}, {0x33}, {0x44}}
	for _, item := range items {
		q.Push(item)
	}
	for i := 0; i < len(items); i++ {
		popped := q.Pop()
		if !bytes.Equal(popped, items[i]) {
			t.Errorf("popped %v but expected %v", popped, items[i])
		}
	}
	if q.Pop() != nil {
		t.Error("expected nil from an empty queue")
	}
}

func TestPopFreesCapacityForPush(t *testing.T) {
	q := New(1, 4)
	q.Push([]byte{0x01})
	if q.Push([]byte{0x02}) {
		t.Fatal("queue of capacity 1 should reject a second push")
	}
	q.Pop()
	if !q.Push([]byte{0x03}) {
		t.Fatal("push after pop should succeed once capacity is freed")
	}
}

func TestNotifyFiresOnPush(t *testing.T) {
	q := New(4, 4)
	q.Push([]byte{0x01})
	select {
	case <-q.Notify():
	default:
		t.Fatal("expected a notification after pushing to an empty queue")
	}
}

func TestGetAndRelease(t *testing.T) {
	q := New(4, 16)
	buf := q.Get()
	if len(buf) != 16 {
		t.Fatalf("expected a 16 byte buffer, got %d", len(buf))
	}
	q.Release(buf)
}
