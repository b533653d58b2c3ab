package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Status is the synchronisation state of the working tree.
type Status struct {
	Clean    bool
	Detached bool
	Local    string
	Tracking string
	Ahead    int
}

// Branch returns the upstream branch when one is configured, otherwise the
// local branch name.
func (s *Status) Branch() string {
	if s.Tracking != "" {
		return s.Tracking
	}
	return s.Local
}

// Status reports whether the working tree is clean, which branch is checked
// out, its upstream and how many commits it is ahead of that upstream.
func (c *Client) Status() (*Status, error) {
	st := &Status{}

	wt, err := c.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	wtStatus, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	st.Clean = wtStatus.IsClean()

	head, err := c.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		st.Detached = true
		return st, nil
	}
	st.Local = head.Name().Short()

	upstream, err := c.upstream(st.Local)
	if err != nil {
		c.logger.Debug("no upstream for branch", "branch", st.Local, "error", err)
		return st, nil
	}
	st.Tracking = upstream.Name().Short()

	ahead, err := c.countAhead(head.Hash(), upstream.Hash())
	if err != nil {
		return nil, err
	}
	st.Ahead = ahead
	return st, nil
}

func (c *Client) upstream(branch string) (*plumbing.Reference, error) {
	cfg, err := c.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to read repository config: %w", err)
	}
	b, ok := cfg.Branches[branch]
	if !ok || b.Remote == "" || b.Merge == "" {
		return nil, ErrNoUpstream
	}
	ref, err := c.repo.Reference(plumbing.NewRemoteReferenceName(b.Remote, b.Merge.Short()), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoUpstream, err)
	}
	return ref, nil
}

// countAhead counts the commits reachable from local that are not reachable
// from upstream.
func (c *Client) countAhead(local, upstream plumbing.Hash) (int, error) {
	if local == upstream {
		return 0, nil
	}

	upstreamCommit, err := c.repo.CommitObject(upstream)
	if err != nil {
		return 0, fmt.Errorf("failed to read upstream commit: %w", err)
	}
	known := map[plumbing.Hash]struct{}{}
	err = object.NewCommitPreorderIter(upstreamCommit, nil, nil).ForEach(func(commit *object.Commit) error {
		known[commit.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk upstream history: %w", err)
	}

	localCommit, err := c.repo.CommitObject(local)
	if err != nil {
		return 0, fmt.Errorf("failed to read local commit: %w", err)
	}
	ahead := 0
	err = object.NewCommitPreorderIter(localCommit, nil, nil).ForEach(func(commit *object.Commit) error {
		if _, ok := known[commit.Hash]; ok {
			return storer.ErrStop
		}
		ahead++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk local history: %w", err)
	}
	return ahead, nil
}
