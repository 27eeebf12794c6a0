package observability

import (
	"sync"
	"time"
)

// SystemStatus is the process-wide activity summary shown on the live status
// line and in heartbeat events.
type SystemStatus struct {
	mu             sync.RWMutex
	ActiveSessions int
	LastWorkflow   string
	Workflows      map[string]int
	Commits        int
	LastHeartbeat  time.Time
}

// StatusSnapshot is a copy of SystemStatus safe to read without locking.
type StatusSnapshot struct {
	ActiveSessions int
	LastWorkflow   string
	Workflows      map[string]int
	Commits        int
	LastHeartbeat  time.Time
}

var globalStatus = &SystemStatus{
	Workflows:     make(map[string]int),
	LastHeartbeat: time.Now(),
}

// SetActiveSessions records how many conversations have a workflow in progress.
func SetActiveSessions(n int) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.ActiveSessions = n
}

// RecordWorkflow counts a workflow start.
func RecordWorkflow(name string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.Workflows[name]++
	globalStatus.LastWorkflow = name
}

// RecordCommit counts a persisted mutation.
func RecordCommit() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.Commits++
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}

// Snapshot retrieves a copy of the global status.
func Snapshot() StatusSnapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	wf := make(map[string]int, len(globalStatus.Workflows))
	for k, v := range globalStatus.Workflows {
		wf[k] = v
	}
	return StatusSnapshot{
		ActiveSessions: globalStatus.ActiveSessions,
		LastWorkflow:   globalStatus.LastWorkflow,
		Workflows:      wf,
		Commits:        globalStatus.Commits,
		LastHeartbeat:  globalStatus.LastHeartbeat,
	}
}
