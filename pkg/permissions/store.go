package permissions

import "github.com/entrhq/pagelens/pkg/logging"

// Store owns the two permission lists for the process. It is created once
// at startup and handed to whatever needs it.
type Store struct {
	Blacklist *List
	Admins    *List
}

// Open loads both lists from their files. logger may be nil.
func Open(blacklistPath, adminsPath string, logger *logging.Logger) *Store {
	return &Store{
		Blacklist: NewList(Blacklist, blacklistPath, logger),
		Admins:    NewList(Admins, adminsPath, logger),
	}
}

// Reload reloads both lists from disk.
func (s *Store) Reload() {
	s.Blacklist.Reload()
	s.Admins.Reload()
}
