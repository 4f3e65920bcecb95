package approval

import (
	"context"
	"fmt"

	"github.com/pders01/intent/internal/models"
)

type fakeCommit struct {
	parents []string
	files   map[string]string
	message string
}

// fakeRepo is an in-memory history with a single writable branch
type fakeRepo struct {
	commits  map[string]*fakeCommit
	branches map[string]string
	seq      int
	created  []models.CommitResult

	failWrite  map[string]error
	failLookup map[string]error
}

func newFakeRepo(branch, headSHA string, files map[string]string) *fakeRepo {
	r := &fakeRepo{
		commits:    map[string]*fakeCommit{},
		branches:   map[string]string{},
		failWrite:  map[string]error{},
		failLookup: map[string]error{},
	}
	r.addCommit(headSHA, nil, files, "initial")
	r.branches[branch] = headSHA
	return r
}

func (r *fakeRepo) addCommit(sha string, parents []string, files map[string]string, message string) {
	copied := map[string]string{}
	for k, v := range files {
		copied[k] = v
	}
	r.commits[sha] = &fakeCommit{parents: parents, files: copied, message: message}
}

func (r *fakeRepo) resolve(ref string) (*fakeCommit, error) {
	if sha, ok := r.branches[ref]; ok {
		ref = sha
	}
	c, ok := r.commits[ref]
	if !ok {
		return nil, fmt.Errorf("unknown ref %s", ref)
	}
	return c, nil
}

func (r *fakeRepo) GetFileContent(ctx context.Context, path, ref string) (*models.FileContent, error) {
	if err := r.failLookup[path]; err != nil {
		return nil, err
	}
	c, err := r.resolve(ref)
	if err != nil {
		return nil, err
	}
	content, ok := c.files[path]
	if !ok {
		return nil, fmt.Errorf("%s at %s: %w", path, ref, models.ErrNotFound)
	}
	return &models.FileContent{SHA: "blob-" + path, Content: content}, nil
}

func (r *fakeRepo) commitChange(path, message, branch string, change func(files map[string]string)) (*models.CommitResult, error) {
	if err := r.failWrite[path]; err != nil {
		return nil, err
	}
	head, ok := r.branches[branch]
	if !ok {
		return nil, fmt.Errorf("unknown branch %s", branch)
	}
	files := map[string]string{}
	for k, v := range r.commits[head].files {
		files[k] = v
	}
	change(files)

	r.seq++
	sha := fmt.Sprintf("commit-%d", r.seq)
	r.addCommit(sha, []string{head}, files, message)
	r.branches[branch] = sha

	result := models.CommitResult{SHA: sha, URL: "https://example.test/commit/" + sha, Message: message}
	r.created = append(r.created, result)
	return &result, nil
}

func (r *fakeRepo) CreateOrUpdateFile(ctx context.Context, path, content, message, branch string) (*models.CommitResult, error) {
	return r.commitChange(path, message, branch, func(files map[string]string) {
		files[path] = content
	})
}

func (r *fakeRepo) DeleteFile(ctx context.Context, path, message, branch string) (*models.CommitResult, error) {
	c, err := r.resolve(branch)
	if err != nil {
		return nil, err
	}
	if _, ok := c.files[path]; !ok {
		return nil, fmt.Errorf("%s: %w", path, models.ErrNotFound)
	}
	return r.commitChange(path, message, branch, func(files map[string]string) {
		delete(files, path)
	})
}

func (r *fakeRepo) GetCommit(ctx context.Context, sha string) (*models.Commit, error) {
	c, ok := r.commits[sha]
	if !ok {
		return nil, fmt.Errorf("commit %s: %w", sha, models.ErrNotFound)
	}
	return &models.Commit{SHA: sha, Parents: c.parents, Message: c.message}, nil
}

// fileAt returns the content of path on branch and whether it exists
func (r *fakeRepo) fileAt(branch, path string) (string, bool) {
	c, err := r.resolve(branch)
	if err != nil {
		return "", false
	}
	content, ok := c.files[path]
	return content, ok
}

type fakeComments struct {
	bodies  map[int64]string
	updates int
	err     error
}

func newFakeComments(id int64, body string) *fakeComments {
	return &fakeComments{bodies: map[int64]string{id: body}}
}

func (c *fakeComments) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	body, ok := c.bodies[id]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", id, models.ErrNotFound)
	}
	return &models.Comment{ID: id, Body: body}, nil
}

func (c *fakeComments) UpdateComment(ctx context.Context, id int64, body string) error {
	if c.err != nil {
		return c.err
	}
	c.updates++
	c.bodies[id] = body
	return nil
}

type fakePRs struct {
	pr models.PullRequest
}

func (p *fakePRs) GetPullRequest(ctx context.Context, number int) (*models.PullRequest, error) {
	pr := p.pr
	pr.Number = number
	return &pr, nil
}

type fakeHistory struct {
	err   error
	calls []string
}

func (h *fakeHistory) ValidateAndFail(sha string) error {
	h.calls = append(h.calls, sha)
	return h.err
}
