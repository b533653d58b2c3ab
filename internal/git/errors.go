package git

import "errors"

// Repository errors
var (
	ErrNotRepository = errors.New("source folder is not a git repository")
	ErrNoRemote      = errors.New("repository has no remote")
	ErrNoUpstream    = errors.New("branch has no upstream")
	ErrLocalChanges  = errors.New("file has local changes")
)
