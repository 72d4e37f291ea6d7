package discord

import "sync"

// Owners answers the "is this the bot owner" question. It combines the
// configured owner IDs with the application owner Discord reports at
// startup.
type Owners struct {
	mu  sync.RWMutex
	ids map[string]bool
}

// NewOwners creates an owner set from configured IDs.
func NewOwners(ids []string) *Owners {
	o := &Owners{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if id != "" {
			o.ids[id] = true
		}
	}
	return o
}

// Add marks userID as an owner.
func (o *Owners) Add(userID string) {
	if userID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids[userID] = true
}

// IsOwner implements permissions.OwnerFunc.
func (o *Owners) IsOwner(userID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ids[userID]
}
