// Package permissions implements the per-guild admin list and blacklist.
package permissions

import (
	"errors"
	"io/fs"
	"slices"
	"sync"

	"github.com/entrhq/pagelens/pkg/kvstore"
	"github.com/entrhq/pagelens/pkg/logging"
)

// Kind selects how a List answers Authorize.
type Kind int

const (
	// Blacklist rejects callers that are on the list.
	Blacklist Kind = iota
	// Admins rejects callers that are not on the list.
	Admins
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Blacklist:
		return "blacklist"
	case Admins:
		return "admins"
	default:
		return "unknown"
	}
}

// OwnerFunc reports whether userID is the owner of the bot process.
// Owners pass every Authorize check.
type OwnerFunc func(userID string) bool

// List maps guild IDs to user IDs and persists itself to a JSON file after
// every mutation.
type List struct {
	kind    Kind
	path    string
	logger  *logging.Logger
	mu      sync.Mutex
	entries map[string][]string
}

// NewList loads the list stored at path. A missing file yields an empty
// list. A file that exists but cannot be read or decoded also yields an
// empty list and is reported on logger, since the next mutation will
// overwrite it.
func NewList(kind Kind, path string, logger *logging.Logger) *List {
	if logger == nil {
		logger = logging.Discard("permissions")
	}
	l := &List{kind: kind, path: path, logger: logger}
	l.entries = l.load()
	return l
}

func (l *List) load() map[string][]string {
	m, err := kvstore.Read[[]string](l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warnf("%s file %s is unreadable, starting empty (next save replaces it): %v", l.kind, l.path, err)
		}
		return map[string][]string{}
	}
	if m == nil {
		return map[string][]string{}
	}
	return m
}

// Kind returns the list kind.
func (l *List) Kind() Kind {
	return l.kind
}

// Path returns the backing file path.
func (l *List) Path() string {
	return l.path
}

// ListFor returns a copy of the users stored for guildID.
func (l *List) ListFor(guildID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries[guildID])
}

// Contains reports whether userID is stored for guildID.
func (l *List) Contains(userID, guildID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.entries[guildID], userID)
}

// Add appends userID to guildID's list and saves. Repeated adds keep
// duplicate entries.
//
// The in-memory change survives a failed save; call Save to retry.
func (l *List) Add(userID, guildID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[guildID] = append(l.entries[guildID], userID)
	return l.saveLocked()
}

// Remove drops every occurrence of userID from guildID's list and saves.
// Removing an absent user is not an error.
func (l *List) Remove(userID, guildID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if users, ok := l.entries[guildID]; ok {
		kept := make([]string, 0, len(users))
		for _, id := range users {
			if id != userID {
				kept = append(kept, id)
			}
		}
		l.entries[guildID] = kept
	}
	return l.saveLocked()
}

// Reload replaces the in-memory state with the contents of the backing file.
func (l *List) Reload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.load()
}

// Save writes the in-memory state to the backing file.
func (l *List) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *List) saveLocked() error {
	return kvstore.Save(l.entries, l.path)
}

// Authorize checks callerID against the list for guildID.
//
// A blacklist fails when the caller is listed; an admin list fails when
// the caller is not. isOwner may be nil, meaning nobody is the owner.
func (l *List) Authorize(callerID, guildID string, isOwner OwnerFunc) error {
	member := l.Contains(callerID, guildID)

	var denied bool
	switch l.kind {
	case Blacklist:
		denied = member
	case Admins:
		denied = !member
	}
	if !denied {
		return nil
	}
	if isOwner != nil && isOwner(callerID) {
		return nil
	}

	return newAuthorizationError(l.kind, callerID, guildID)
}
