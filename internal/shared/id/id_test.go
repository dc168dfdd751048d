package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id2.Compare(id1) <= 0 {
		t.Error("Generated IDs should increase monotonically")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestTypedIDGeneration(t *testing.T) {
	msgID := NewMessageID()
	reqID := NewRequestID()
	obsID := NewObserverID()

	if !strings.HasPrefix(msgID.String(), "ipc_") {
		t.Errorf("MessageID should start with 'ipc_', got: %s", msgID)
	}
	if !IsValid(strings.TrimPrefix(msgID.String(), "ipc_")) {
		t.Errorf("MessageID should wrap a valid ULID, got: %s", msgID)
	}

	if !strings.HasPrefix(reqID.String(), "req_") {
		t.Errorf("RequestID should start with 'req_', got: %s", reqID)
	}

	if !strings.HasPrefix(obsID.String(), "obs_") {
		t.Errorf("ObserverID should start with 'obs_', got: %s", obsID)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(obsID.String(), "obs_")); err != nil {
		t.Errorf("ObserverID should wrap a UUID: %v", err)
	}
}

func TestIsValid(t *testing.T) {
	invalidIDs := []string{
		"",
		"invalid",
		"1234567890",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzz",
	}

	for _, id := range invalidIDs {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator()

	before := time.Now().Add(-time.Millisecond)
	id := gen.GenerateString()
	after := time.Now().Add(time.Millisecond)

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}
	if ts.Before(before) || ts.After(after) {
		t.Errorf("Timestamp %v outside [%v, %v]", ts, before, after)
	}
}

func TestConcurrentMessageIDs(t *testing.T) {
	const workers, perWorker = 10, 100

	var mu sync.Mutex
	seen := make(map[MessageID]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := NewMessageID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
