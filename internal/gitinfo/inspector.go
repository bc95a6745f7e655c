// Package gitinfo surfaces repository context for the directory being
// browsed: whether it sits inside a git worktree, the checked-out branch, and
// how many files have uncommitted changes. Probes are memoized per directory
// so redrawing a status line never re-walks a worktree.
package gitinfo

import (
	"fmt"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"

	"github.com/viewfinder/viewfinder/internal/cache"
	"github.com/viewfinder/viewfinder/internal/logger"
	"github.com/viewfinder/viewfinder/internal/navigation"
)

const (
	defaultCacheCapacity = 128
	defaultCacheTTL      = 30 * time.Second
)

// Info describes the repository context of one directory. The zero value
// means "not inside a repository".
type Info struct {
	Path      string
	InRepo    bool
	Branch    string
	Dirty     int
	CheckedAt time.Time
}

// Summary renders the info for a status line: the branch name, suffixed with
// the dirty count when the worktree has changes. Empty outside a repository.
func (i Info) Summary() string {
	if !i.InRepo {
		return ""
	}
	branch := i.Branch
	if branch == "" {
		branch = "detached"
	}
	if i.Dirty > 0 {
		return fmt.Sprintf("%s +%d", branch, i.Dirty)
	}
	return branch
}

// Inspector probes directories for repository context and tracks the info for
// the current one. It consumes navigation events: navigating probes the new
// directory, a content refresh re-probes it with the memo dropped.
//
// Probe failures degrade to "not a repository"; browsing must never break
// because a worktree is odd.
type Inspector struct {
	log  *logger.Logger
	memo *cache.ResourceCache

	mu      sync.Mutex
	current Info
}

// NewInspector creates an inspector. A nil memo gets a private cache with the
// default capacity and TTL; pass a shared one to pool memoization with other
// consumers.
func NewInspector(memo *cache.ResourceCache, log *logger.Logger) *Inspector {
	if memo == nil {
		memo = cache.NewResourceCache(defaultCacheCapacity, defaultCacheTTL)
	}
	return &Inspector{
		log:  log.WithComponent("gitinfo"),
		memo: memo,
	}
}

// Current returns the info for the directory last seen via navigation events.
func (in *Inspector) Current() Info {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// Inspect returns the repository context for path, probing on a memo miss.
func (in *Inspector) Inspect(path string) Info {
	if path == "" {
		return Info{}
	}
	key := cacheKey(path)
	if cached, ok := in.memo.Get(key); ok {
		if info, ok := cached.(Info); ok {
			return info
		}
	}

	info := in.probe(path)
	in.memo.Set(key, info)
	return info
}

// OnNavigationChanged implements navigation.Component.
func (in *Inspector) OnNavigationChanged(event navigation.Event) error {
	switch event.Kind {
	case navigation.EventNavigate:
		in.setCurrent(in.Inspect(event.Path))
	case navigation.EventRefresh:
		// Directory contents changed, so the dirty count is stale.
		in.memo.Invalidate(cacheKey(event.Path))
		in.setCurrent(in.Inspect(event.Path))
	}
	return nil
}

// SupportedEventKinds implements navigation.Component.
func (in *Inspector) SupportedEventKinds() []navigation.EventKind {
	return []navigation.EventKind{navigation.EventNavigate, navigation.EventRefresh}
}

func (in *Inspector) setCurrent(info Info) {
	in.mu.Lock()
	in.current = info
	in.mu.Unlock()
}

// probe opens the repository containing path, walking up through parent
// directories the way git itself resolves a worktree.
func (in *Inspector) probe(path string) Info {
	info := Info{Path: path, CheckedAt: time.Now()}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return info
	}
	info.InRepo = true

	if head, err := repo.Head(); err == nil {
		info.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		in.log.Debug("no worktree", "path", path, "error", err.Error())
		return info
	}
	status, err := wt.Status()
	if err != nil {
		in.log.Debug("worktree status failed", "path", path, "error", err.Error())
		return info
	}
	for _, file := range status {
		if file.Worktree != git.Unmodified || file.Staging != git.Unmodified {
			info.Dirty++
		}
	}
	return info
}

func cacheKey(path string) string {
	return "gitinfo:" + path
}
