package helix

import (
	"sort"
	"sync"
)

// Registry maps symlink filenames to active prints.
type Registry struct {
	mu      sync.Mutex
	entries map[string]PrintInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]PrintInfo)}
}

// Put stores info under its symlink filename and returns any entry it replaced.
func (r *Registry) Put(info PrintInfo) (PrintInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.entries[info.SymlinkFilename]
	r.entries[info.SymlinkFilename] = info.Clone()
	return prev, ok
}

// Get returns a copy of the entry for key.
func (r *Registry) Get(key string) (PrintInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.entries[key]
	if !ok {
		return PrintInfo{}, false
	}
	return info.Clone(), true
}

// Remove deletes the entry for key.
func (r *Registry) Remove(key string) (PrintInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	return info, ok
}

// RemoveIf deletes the entry for key only while it still carries token.
func (r *Registry) RemoveIf(key, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.entries[key]
	if !ok || info.Token != token {
		return false
	}
	delete(r.entries, key)
	return true
}

// Update applies fn to the entry for key while it still carries token and
// returns the updated copy.
func (r *Registry) Update(key, token string, fn func(*PrintInfo)) (PrintInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.entries[key]
	if !ok || info.Token != token {
		return PrintInfo{}, false
	}
	fn(&info)
	r.entries[key] = info
	return info.Clone(), true
}

// Len returns the number of active prints.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns copies of all entries ordered by start time.
func (r *Registry) Snapshot() []PrintInfo {
	r.mu.Lock()
	out := make([]PrintInfo, 0, len(r.entries))
	for _, info := range r.entries {
		out = append(out, info.Clone())
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime == out[j].StartTime {
			return out[i].SymlinkFilename < out[j].SymlinkFilename
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
