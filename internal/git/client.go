// Package git reads revision, remote, status and blame information from a
// local repository.
package git

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-hclog"
)

// Client inspects the repository containing a project folder.
type Client struct {
	logger hclog.Logger
	repo   *git.Repository
	root   string

	changedOnce sync.Once
	changed     map[string]struct{}
	changedErr  error
}

// RemoteInfo describes the origin remote of a repository.
type RemoteInfo struct {
	URL      string
	HTTPSURL string
	Host     string
	Name     string
	FullName string
}

// Open opens the repository that contains projectFolder, walking up parent
// folders. It returns ErrNotRepository when there is none.
func Open(projectFolder string, logger hclog.Logger) (*Client, error) {
	if absSource, err := filepath.Abs(projectFolder); err == nil {
		projectFolder = absSource
	}

	root, err := findGitRepositoryPath(projectFolder)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Client{
		logger: logger.Named("git"),
		repo:   repo,
		root:   filepath.Clean(root),
	}, nil
}

// Root returns the repository working tree root.
func (c *Client) Root() string {
	return c.root
}

// changedFiles returns the repository relative paths that differ from HEAD in
// the index or the working tree. The status is read once per client.
func (c *Client) changedFiles() (map[string]struct{}, error) {
	c.changedOnce.Do(func() {
		wt, err := c.repo.Worktree()
		if err != nil {
			c.changedErr = fmt.Errorf("failed to open worktree: %w", err)
			return
		}
		status, err := wt.Status()
		if err != nil {
			c.changedErr = fmt.Errorf("failed to read worktree status: %w", err)
			return
		}
		c.changed = make(map[string]struct{}, len(status))
		for path, fs := range status {
			if fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified {
				c.changed[path] = struct{}{}
			}
		}
	})
	return c.changed, c.changedErr
}

// RevisionHash returns the commit hash HEAD points at.
func (c *Client) RevisionHash() (string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// RemoteInfo returns the URL of the origin remote and the project name
// derived from it.
func (c *Client) RemoteInfo() (*RemoteInfo, error) {
	remote, err := c.repo.Remote("origin")
	if err != nil {
		if err == git.ErrRemoteNotFound {
			return nil, ErrNoRemote
		}
		return nil, fmt.Errorf("failed to read remote: %w", err)
	}

	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return nil, ErrNoRemote
	}

	rawURL := strings.TrimSpace(cfg.URLs[0])
	info := &RemoteInfo{
		URL:  rawURL,
		Name: strings.TrimSuffix(filepath.Base(rawURL), ".git"),
	}

	parsed, err := vcsurl.Parse(rawURL)
	if err != nil {
		c.logger.Debug("unable to parse remote url, using raw value", "url", rawURL, "error", err)
		info.FullName = strings.TrimSuffix(rawURL, ".git")
		return info, nil
	}

	info.Host = string(parsed.Host)
	info.Name = parsed.Name
	info.FullName = parsed.FullName
	if httpsURL, err := parsed.Remote(vcsurl.HTTPS); err == nil {
		info.HTTPSURL = httpsURL
	}
	return info, nil
}
