package filelock

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func TestWithSerializes(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "session.yml")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := With(target, func() error {
				mu.Lock()
				holders++
				maxSeen = max(maxSeen, holders)
				mu.Unlock()

				mu.Lock()
				holders--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("With: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}

func TestWithReturnsFnError(t *testing.T) {
	want := errors.New("boom")
	err := With(filepath.Join(t.TempDir(), "f"), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("/x/session.yml"); got != "/x/session.yml.lock" {
		t.Errorf("PathFor = %q", got)
	}
}
