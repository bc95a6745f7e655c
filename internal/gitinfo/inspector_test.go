package gitinfo

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewfinder/viewfinder/internal/logger"
	"github.com/viewfinder/viewfinder/internal/navigation"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "error", Writer: io.Discard})
	require.NoError(t, err)
	return log
}

func initGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Viewfinder",
			Email: "viewfinder@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

func headBranch(t *testing.T, dir string) string {
	t.Helper()

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Name().Short()
}

func TestInspectPlainDirectory(t *testing.T) {
	t.Parallel()

	in := NewInspector(nil, testLogger(t))

	info := in.Inspect(t.TempDir())

	assert.False(t, info.InRepo)
	assert.Empty(t, info.Summary())
}

func TestInspectRepository(t *testing.T) {
	t.Parallel()

	dir := initGitRepo(t)
	in := NewInspector(nil, testLogger(t))

	info := in.Inspect(dir)

	assert.True(t, info.InRepo)
	assert.Equal(t, headBranch(t, dir), info.Branch)
	assert.Zero(t, info.Dirty)
}

func TestInspectDirtyWorktree(t *testing.T) {
	t.Parallel()

	dir := initGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("wip"), 0o644))
	in := NewInspector(nil, testLogger(t))

	info := in.Inspect(dir)

	assert.True(t, info.InRepo)
	assert.Equal(t, 1, info.Dirty)
	assert.Contains(t, info.Summary(), "+1")
}

func TestInspectFindsRepositoryFromSubdirectory(t *testing.T) {
	t.Parallel()

	dir := initGitRepo(t)
	sub := filepath.Join(dir, "photos")
	require.NoError(t, os.Mkdir(sub, 0o755))
	in := NewInspector(nil, testLogger(t))

	info := in.Inspect(sub)

	assert.True(t, info.InRepo)
	assert.Equal(t, headBranch(t, dir), info.Branch)
}

func TestNavigationEventsDriveCurrent(t *testing.T) {
	t.Parallel()

	repoDir := initGitRepo(t)
	plainDir := t.TempDir()
	in := NewInspector(nil, testLogger(t))

	require.NoError(t, in.OnNavigationChanged(navigation.Event{
		Kind: navigation.EventNavigate, Path: repoDir,
	}))
	assert.True(t, in.Current().InRepo)

	require.NoError(t, in.OnNavigationChanged(navigation.Event{
		Kind: navigation.EventNavigate, Path: plainDir,
	}))
	assert.False(t, in.Current().InRepo)
}

func TestRefreshDropsTheMemo(t *testing.T) {
	t.Parallel()

	dir := initGitRepo(t)
	in := NewInspector(nil, testLogger(t))

	require.NoError(t, in.OnNavigationChanged(navigation.Event{
		Kind: navigation.EventNavigate, Path: dir,
	}))
	require.Zero(t, in.Current().Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))
	require.NoError(t, in.OnNavigationChanged(navigation.Event{
		Kind: navigation.EventNavigate, Path: dir,
	}))
	assert.Zero(t, in.Current().Dirty, "re-navigation hits the memo")

	require.NoError(t, in.OnNavigationChanged(navigation.Event{
		Kind: navigation.EventRefresh, Path: dir,
	}))
	assert.Equal(t, 1, in.Current().Dirty, "a refresh re-probes the worktree")
}

func TestSummaryFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info Info
		want string
	}{
		{"outside repo", Info{}, ""},
		{"clean branch", Info{InRepo: true, Branch: "main"}, "main"},
		{"dirty branch", Info{InRepo: true, Branch: "main", Dirty: 3}, "main +3"},
		{"detached head", Info{InRepo: true}, "detached"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.info.Summary())
		})
	}
}

func TestSupportedEventKinds(t *testing.T) {
	t.Parallel()

	in := NewInspector(nil, testLogger(t))

	kinds := in.SupportedEventKinds()

	assert.Contains(t, kinds, navigation.EventNavigate)
	assert.Contains(t, kinds, navigation.EventRefresh)
	assert.NotContains(t, kinds, navigation.EventHistory)
}
