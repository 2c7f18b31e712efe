package compose

import (
	"context"
	"sync"
)

// StackFileStore retains the compose source document for every stack
// deployed through this process, so it can be read back later (the
// engine itself has no notion of "the YAML that created this stack").
// Retention is unconditional — even a partially-failed deploy records
// its source document, matching the original's store-after-deploy
// behavior regardless of DeployResult.Success().
type StackFileStore struct {
	mu    sync.Mutex
	files map[string]string
}

// NewStackFileStore returns an empty store.
func NewStackFileStore() *StackFileStore {
	return &StackFileStore{files: map[string]string{}}
}

// Put records composeYAML as stackName's source document.
func (s *StackFileStore) Put(stackName, composeYAML string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[stackName] = composeYAML
}

// Get returns stackName's source document and whether one was found.
func (s *StackFileStore) Get(stackName string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	yaml, ok := s.files[stackName]
	return yaml, ok
}

// DeployAndRetain deploys composeYAML under stackName and, regardless
// of outcome, records it for later GetStackFile lookups.
func (d *Deployer) DeployAndRetain(ctx context.Context, store *StackFileStore, stackName, composeYAML string) DeployResult {
	result := d.Deploy(ctx, stackName, composeYAML)
	store.Put(stackName, composeYAML)
	return result
}
