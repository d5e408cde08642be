// Package testutils provides deterministic generators and test doubles for JARVIS testing.
// These utilities keep test output stable while preserving production formats.
package testutils

import (
	"fmt"
	"sync"
	"time"

	"jarvis/pkg/jarvistypes"

	"github.com/google/uuid"
)

var (
	// Thread-safe counter for deterministic ID generation
	idCounter uint64
	idMutex   sync.Mutex

	// Thread-safe counter for deterministic timestamp generation
	timeCounter int64
	timeMutex   sync.Mutex
)

// GenerateUUID generates a UUID that is deterministic in test mode but random in production.
// In test mode it returns 00000001-0000-4000-8000-000000000001, 00000002-0000-4000-8000-000000000002, and so on.
func GenerateUUID(mode jarvistypes.ModeProvider) string {
	if mode != nil && mode.IsTestMode() {
		return getDeterministicUUID()
	}
	return uuid.New().String()
}

// GetCurrentTime returns the current time, deterministic in test mode but real in production.
// In test mode each call returns one second later than the previous one, starting at 2025-01-01T00:00:01Z.
func GetCurrentTime(mode jarvistypes.ModeProvider) time.Time {
	if mode != nil && mode.IsTestMode() {
		return getDeterministicTime()
	}
	return time.Now()
}

func getDeterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	idCounter++

	// Version nibble 4, variant nibble 8
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

func getDeterministicTime() time.Time {
	timeMutex.Lock()
	defer timeMutex.Unlock()

	timeCounter++

	baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return baseTime.Add(time.Duration(timeCounter) * time.Second)
}

// ResetTestCounters resets the deterministic counters.
// This should only be called from test code.
func ResetTestCounters() {
	idMutex.Lock()
	timeMutex.Lock()
	defer idMutex.Unlock()
	defer timeMutex.Unlock()

	idCounter = 0
	timeCounter = 0
}
