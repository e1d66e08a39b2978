package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/redispool/lib/store"
)

// StoreFactory creates a new, empty store for one test. The returned advance function
// moves the clock of the store forward (used to test expiration).
type StoreFactory func(t *testing.T) (s store.IStore, advance func(d time.Duration))

// RunStoreTests runs a test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			s, _ := factory(t)
			testSetGet(t, s)
		})

		t.Run("Delete", func(t *testing.T) {
			s, _ := factory(t)
			testDelete(t, s)
		})

		t.Run("Has", func(t *testing.T) {
			s, _ := factory(t)
			testHas(t, s)
		})

		t.Run("SetEIfUnset", func(t *testing.T) {
			s, _ := factory(t)
			testSetEIfUnset(t, s)
		})

		t.Run("CompareAndDelete", func(t *testing.T) {
			s, _ := factory(t)
			testCompareAndDelete(t, s)
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			s, advance := factory(t)
			testKeyExpiry(t, s, advance)
		})

		t.Run("Size", func(t *testing.T) {
			s, _ := factory(t)
			testSize(t, s)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			s, _ := factory(t)
			testEdgeCases(t, s)
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			s, _ := factory(t)
			testConcurrentUsage(t, s)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustGet(t *testing.T, s store.IStore, key string) ([]byte, bool) {
	t.Helper()
	value, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", key, err)
	}
	return value, ok
}

func mustHas(t *testing.T, s store.IStore, key string) bool {
	t.Helper()
	ok, err := s.Has(key)
	if err != nil {
		t.Fatalf("Has(%s) failed: %v", key, err)
	}
	return ok
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("operation failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	must(t, s.Set(testKey, testValue1))

	result, exists := mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	must(t, s.Set(testKey, testValue2))

	result, exists = mustGet(t, s, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = mustGet(t, s, "nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}
}

func testDelete(t *testing.T, s store.IStore) {
	testKey := "delete-key"

	must(t, s.Set(testKey, []byte("value")))
	must(t, s.Delete(testKey))

	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Key should not exist after Delete")
	}

	// deleting a missing key is not an error
	must(t, s.Delete("nonexistent-key"))
}

func testHas(t *testing.T, s store.IStore) {
	testKey := "has-key"

	if mustHas(t, s, testKey) {
		t.Errorf("Key should not exist before Set")
	}

	must(t, s.Set(testKey, []byte("value")))
	if !mustHas(t, s, testKey) {
		t.Errorf("Key should exist after Set")
	}

	must(t, s.Delete(testKey))
	if mustHas(t, s, testKey) {
		t.Errorf("Key should not exist after Delete")
	}
}

func testSetEIfUnset(t *testing.T, s store.IStore) {
	testKey := "unset-key"
	first := []byte("first")
	second := []byte("second")

	must(t, s.SetEIfUnset(testKey, first, 0))
	must(t, s.SetEIfUnset(testKey, second, 0))

	result, exists := mustGet(t, s, testKey)
	if !exists {
		t.Fatalf("Expected key %s to exist after SetEIfUnset", testKey)
	}
	if !bytes.Equal(result, first) {
		t.Errorf("SetEIfUnset must not overwrite: expected %s, got %s", first, result)
	}
}

func testCompareAndDelete(t *testing.T, s store.IStore) {
	testKey := "cad-key"
	value := []byte("owner-1")

	must(t, s.Set(testKey, value))

	deleted, err := s.CompareAndDelete(testKey, []byte("owner-2"))
	must(t, err)
	if deleted {
		t.Errorf("CompareAndDelete must not delete a key with a different value")
	}
	if !mustHas(t, s, testKey) {
		t.Errorf("Key should still exist after a failed CompareAndDelete")
	}

	deleted, err = s.CompareAndDelete(testKey, value)
	must(t, err)
	if !deleted {
		t.Errorf("CompareAndDelete should delete a key with the same value")
	}
	if mustHas(t, s, testKey) {
		t.Errorf("Key should not exist after CompareAndDelete")
	}

	deleted, err = s.CompareAndDelete("nonexistent-key", value)
	must(t, err)
	if deleted {
		t.Errorf("CompareAndDelete of a missing key must return false")
	}
}

func testKeyExpiry(t *testing.T, s store.IStore, advance func(d time.Duration)) {
	testKey := "expiring-key"
	persistentKey := "persistent-key"
	unsetKey := "expiring-unset-key"

	must(t, s.SetE(testKey, []byte("value"), 10))
	must(t, s.SetE(persistentKey, []byte("value"), 0))
	must(t, s.SetEIfUnset(unsetKey, []byte("value"), 10))

	advance(9 * time.Second)
	if _, exists := mustGet(t, s, testKey); !exists {
		t.Errorf("Key should still exist after 9 seconds")
	}

	advance(2 * time.Second)
	if _, exists := mustGet(t, s, testKey); exists {
		t.Errorf("Key should have been deleted after 11 seconds")
	}
	if mustHas(t, s, unsetKey) {
		t.Errorf("Key set with SetEIfUnset should have been deleted after 11 seconds")
	}
	if !mustHas(t, s, persistentKey) {
		t.Errorf("Key without deleteIn should not expire")
	}
}

func testSize(t *testing.T, s store.IStore) {
	size, err := s.Size()
	must(t, err)
	if size != 0 {
		t.Fatalf("Expected empty store, got size %d", size)
	}

	for i := 0; i < 5; i++ {
		must(t, s.Set(fmt.Sprintf("size-key-%d", i), []byte("value")))
	}

	size, err = s.Size()
	must(t, err)
	if size != 5 {
		t.Errorf("Expected size 5, got %d", size)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	// empty value
	must(t, s.Set("empty-value", []byte{}))
	value, exists := mustGet(t, s, "empty-value")
	if !exists || len(value) != 0 {
		t.Errorf("Expected empty value to be stored, got exists=%v value=%q", exists, value)
	}

	// binary value
	binary := []byte{0, 1, 2, 255, '\r', '\n'}
	must(t, s.Set("binary-value", binary))
	value, _ = mustGet(t, s, "binary-value")
	if !bytes.Equal(value, binary) {
		t.Errorf("Expected binary value %v, got %v", binary, value)
	}

	// large value
	large := bytes.Repeat([]byte("x"), 1<<20)
	must(t, s.Set("large-value", large))
	value, _ = mustGet(t, s, "large-value")
	if !bytes.Equal(value, large) {
		t.Errorf("Large value was not stored correctly (got %d bytes)", len(value))
	}

	// key with spaces and unicode
	key := "key with spaces/ünïcödé"
	must(t, s.Set(key, []byte("value")))
	if !mustHas(t, s, key) {
		t.Errorf("Expected key %q to exist", key)
	}
}

func testConcurrentUsage(t *testing.T, s store.IStore) {
	const goroutines = 8
	const opsPerGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < opsPerGoroutine; i++ {
				key := fmt.Sprintf("concurrent-%d-%d", g, i%10)
				value := []byte(fmt.Sprintf("value-%d", i))
				if err := s.Set(key, value); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				got, ok, err := s.Get(key)
				if err != nil || !ok || !bytes.Equal(got, value) {
					t.Errorf("Get(%s) = %q, %v, %v; expected %q", key, got, ok, err, value)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	size, err := s.Size()
	must(t, err)
	if size != goroutines*10 {
		t.Errorf("Expected %d keys, got %d", goroutines*10, size)
	}
}
