package promptstore

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitSource reads overrides from a single commit of a git repository. The
// commit is fixed when the source is created.
type GitSource struct {
	tree     *object.Tree
	dir      string
	revision string
}

// CloneGitSource shallow-clones url into memory and reads from the tip of
// ref, or of the default branch when ref is empty.
func CloneGitSource(ctx context.Context, url, ref, dir string) (*GitSource, error) {
	opts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to clone prompt repository: %w", err)
	}
	return NewGitSource(repo, dir)
}

// NewGitSource reads from the HEAD commit of repo, under dir.
func NewGitSource(repo *git.Repository, dir string) (*GitSource, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", head.Hash(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for commit %s: %w", head.Hash(), err)
	}
	return &GitSource{tree: tree, dir: dir, revision: head.Hash().String()}, nil
}

// Read returns the committed contents of dir/name.
func (p *GitSource) Read(_ context.Context, name string) ([]byte, error) {
	file, err := p.tree.File(path.Join(p.dir, name))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", p.Location(name), err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Location(name), err)
	}
	return []byte(contents), nil
}

// Location returns name qualified by the commit it is read from.
func (p *GitSource) Location(name string) string {
	return p.revision + ":" + path.Join(p.dir, name)
}

// Revision is the commit hash the source reads from.
func (p *GitSource) Revision() string {
	return p.revision
}
