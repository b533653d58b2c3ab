package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
)

const blameDateLayout = "2006-01-02 15:04:05 -0700"

// BlameText returns the attribution of every line of path at HEAD in the
// default `git blame` output format, one line per source line. Files that
// differ from HEAD return ErrLocalChanges: their lines no longer match the
// committed attribution.
func (c *Client) BlameText(path string) (string, error) {
	rel, err := repoRelative(c.root, path)
	if err != nil {
		return "", err
	}

	changed, err := c.changedFiles()
	if err != nil {
		return "", err
	}
	if _, ok := changed[rel]; ok {
		return "", fmt.Errorf("%w: %s", ErrLocalChanges, rel)
	}

	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := c.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	result, err := git.Blame(commit, rel)
	if err != nil {
		return "", fmt.Errorf("failed to blame %s: %w", rel, err)
	}

	var sb strings.Builder
	for i, line := range result.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		author := line.AuthorName
		if author == "" {
			author = line.Author
		}
		fmt.Fprintf(&sb, "%.8s (%s %s %d) %s",
			line.Hash.String(), author, line.Date.Format(blameDateLayout), i+1, line.Text)
	}
	return sb.String(), nil
}
