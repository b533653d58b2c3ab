package scan

import (
	"errors"
	"path"
	"strings"

	"github.com/gitsight/go-vcsurl"

	"github.com/reshiftsecurity/reshift-scanner/internal/ci"
	"github.com/reshiftsecurity/reshift-scanner/internal/git"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
)

// ciRepository fills the gaps of a CI checkout from the CI environment:
// runners check out a detached commit and may clone without an origin.
type ciRepository struct {
	report.VCS
	env *ci.Environment
}

// withCIEnvironment returns repo unchanged outside CI.
func withCIEnvironment(repo report.VCS, env *ci.Environment) report.VCS {
	if env == nil {
		return repo
	}
	return &ciRepository{VCS: repo, env: env}
}

func (r *ciRepository) Status() (*git.Status, error) {
	st, err := r.VCS.Status()
	if err != nil || !st.Detached || r.env.Branch == "" {
		return st, err
	}

	resolved := *st
	resolved.Local = r.env.Branch
	resolved.Tracking = r.env.Branch
	return &resolved, nil
}

func (r *ciRepository) RemoteInfo() (*git.RemoteInfo, error) {
	info, err := r.VCS.RemoteInfo()
	if !errors.Is(err, git.ErrNoRemote) || r.env.RepositoryURL == "" {
		return info, err
	}

	info = &git.RemoteInfo{
		URL:      r.env.RepositoryURL,
		HTTPSURL: r.env.RepositoryURL,
		Name:     path.Base(strings.TrimSuffix(r.env.RepositoryURL, ".git")),
		FullName: r.env.RepositoryFullName,
	}
	if parsed, perr := vcsurl.Parse(r.env.RepositoryURL); perr == nil {
		info.Host = string(parsed.Host)
		info.Name = parsed.Name
		if info.FullName == "" {
			info.FullName = parsed.FullName
		}
	}
	return info, nil
}
