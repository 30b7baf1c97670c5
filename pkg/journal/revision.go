package journal

import (
	gogit "github.com/go-git/go-git/v5"
)

// shortHashLen is the abbreviated commit length shown in history.
const shortHashLen = 12

// GitRevision returns a function reporting the abbreviated HEAD commit of
// the git repository containing dir. It reports "" outside a repository or
// before the first commit. The repository is reopened on every call so a
// checkout between restarts is picked up.
func GitRevision(dir string) func() string {
	return func() string {
		repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return ""
		}
		ref, err := repo.Head()
		if err != nil {
			return ""
		}
		hash := ref.Hash().String()
		if len(hash) > shortHashLen {
			hash = hash[:shortHashLen]
		}
		return hash
	}
}
