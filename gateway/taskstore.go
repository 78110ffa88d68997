package gateway

import (
	"fmt"
	"sync"

	"github.com/dispatch-gateway/dispatch-gateway/a2a"
)

// ErrTaskNotFound indicates the requested task ID has no stored record.
var ErrTaskNotFound = fmt.Errorf("task not found")

// TaskStore keeps the records of in-flight and completed tasks. It is owned
// by the request-handling layer; executors never touch it.
type TaskStore interface {
	Save(task *a2a.Task)
	Get(taskID string) (*a2a.Task, error)
	UpdateStatus(taskID string, status a2a.TaskStatus) error
}

// InMemoryTaskStore is a map-backed TaskStore safe for concurrent use.
type InMemoryTaskStore struct {
	tasks map[string]*a2a.Task
	mu    sync.RWMutex
}

// NewInMemoryTaskStore creates an empty task store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*a2a.Task),
	}
}

// Save inserts or replaces the record for the task's ID.
func (s *InMemoryTaskStore) Save(task *a2a.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

// Get returns a copy of the stored task.
func (s *InMemoryTaskStore) Get(taskID string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	copied := *task
	return &copied, nil
}

// UpdateStatus replaces the status of the stored task.
func (s *InMemoryTaskStore) UpdateStatus(taskID string, status a2a.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	task.Status = status
	return nil
}
