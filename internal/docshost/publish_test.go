package docshost

import (
	"context"
	"io"
	"strings"
	"testing"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"
)

type errStub string

func (e errStub) Error() string { return string(e) }

type stubGit struct {
	calls     *[]string
	refs      map[string]*gogithub.Reference
	getErrs   map[string]error
	deleteErr error
	createErr error
	created   *gogithub.Reference
}

func (g *stubGit) GetRef(_ context.Context, _, _, ref string) (*gogithub.Reference, *gogithub.Response, error) {
	*g.calls = append(*g.calls, "get-ref:"+ref)
	if err, ok := g.getErrs[ref]; ok {
		return nil, nil, err
	}
	if existing, ok := g.refs[ref]; ok {
		return existing, nil, nil
	}
	return nil, nil, errStub("ref not found: " + ref)
}

func (g *stubGit) CreateRef(_ context.Context, _, _ string, ref *gogithub.Reference) (*gogithub.Reference, *gogithub.Response, error) {
	*g.calls = append(*g.calls, "create-ref:"+ref.GetRef())
	if g.createErr != nil {
		return nil, nil, g.createErr
	}
	g.created = ref
	return ref, nil, nil
}

func (g *stubGit) DeleteRef(_ context.Context, _, _, ref string) (*gogithub.Response, error) {
	*g.calls = append(*g.calls, "delete-ref:"+ref)
	return nil, g.deleteErr
}

type stubContents struct {
	calls *[]string
	err   error
	opts  *gogithub.RepositoryContentFileOptions
}

func (c *stubContents) CreateFile(_ context.Context, _, _, path string, opts *gogithub.RepositoryContentFileOptions) (*gogithub.RepositoryContentResponse, *gogithub.Response, error) {
	*c.calls = append(*c.calls, "create-file:"+path)
	if c.err != nil {
		return nil, nil, c.err
	}
	c.opts = opts
	return &gogithub.RepositoryContentResponse{}, nil, nil
}

type stubPulls struct {
	calls *[]string
	url   string
	err   error
	pull  *gogithub.NewPullRequest
}

func (p *stubPulls) Create(_ context.Context, _, _ string, pull *gogithub.NewPullRequest) (*gogithub.PullRequest, *gogithub.Response, error) {
	*p.calls = append(*p.calls, "create-pull")
	if p.err != nil {
		return nil, nil, p.err
	}
	p.pull = pull
	return &gogithub.PullRequest{HTMLURL: gogithub.String(p.url)}, nil, nil
}

type testHost struct {
	client   *Client
	calls    []string
	git      *stubGit
	contents *stubContents
	pulls    *stubPulls
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()

	host := &testHost{}
	baseSHA := "abc123"
	host.git = &stubGit{
		calls: &host.calls,
		refs: map[string]*gogithub.Reference{
			"refs/heads/main": {
				Ref:    gogithub.String("refs/heads/main"),
				Object: &gogithub.GitObject{SHA: gogithub.String(baseSHA)},
			},
		},
		getErrs: map[string]error{},
	}
	host.contents = &stubContents{calls: &host.calls}
	host.pulls = &stubPulls{calls: &host.calls, url: "https://github.com/acme/docs/pull/7"}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	host.client = &Client{
		git:        host.git,
		contents:   host.contents,
		pulls:      host.pulls,
		owner:      "acme",
		repo:       "docs",
		base:       "main",
		pathPrefix: "src/content/glossary",
		logger:     logger,
	}

	return host
}

func sampleRequest() PublishRequest {
	return PublishRequest{
		Branch:        "customer-auth",
		FileName:      "customer-auth.mdx",
		Content:       []byte("---\ntitle: Customer Auth\n---\n\nbody\n"),
		CommitMessage: "Add glossary entry for Customer Auth",
		Title:         "Glossary: Customer Auth",
		Body:          "How customers authenticate.",
	}
}

func callIndex(calls []string, prefix string) int {
	for i, call := range calls {
		if strings.HasPrefix(call, prefix) {
			return i
		}
	}
	return -1
}

func TestOpenPullRequestCreatesBranchFileAndPull(t *testing.T) {
	t.Parallel()

	host := newTestHost(t)

	url, err := host.client.OpenPullRequest(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("OpenPullRequest returned error: %v", err)
	}

	if url != host.pulls.url {
		t.Fatalf("expected url %q, got %q", host.pulls.url, url)
	}

	expected := []string{
		"get-ref:refs/heads/main",
		"get-ref:refs/heads/customer-auth",
		"create-ref:refs/heads/customer-auth",
		"create-file:src/content/glossary/customer-auth.mdx",
		"create-pull",
	}
	if len(host.calls) != len(expected) {
		t.Fatalf("expected calls %v, got %v", expected, host.calls)
	}
	for i, call := range expected {
		if host.calls[i] != call {
			t.Fatalf("expected call %d to be %q, got %q", i, call, host.calls[i])
		}
	}

	if host.git.created == nil || host.git.created.Object.GetSHA() != "abc123" {
		t.Fatalf("expected branch created at base tip, got %#v", host.git.created)
	}

	if host.contents.opts.GetBranch() != "customer-auth" {
		t.Fatalf("expected commit on branch 'customer-auth', got %q", host.contents.opts.GetBranch())
	}
	if host.contents.opts.GetMessage() != "Add glossary entry for Customer Auth" {
		t.Fatalf("unexpected commit message %q", host.contents.opts.GetMessage())
	}

	if host.pulls.pull.GetHead() != "customer-auth" || host.pulls.pull.GetBase() != "main" {
		t.Fatalf("expected pull from customer-auth into main, got %#v", host.pulls.pull)
	}
}

func TestOpenPullRequestDeletesStaleBranchBeforeCreate(t *testing.T) {
	t.Parallel()

	host := newTestHost(t)
	host.git.refs["refs/heads/customer-auth"] = &gogithub.Reference{
		Ref:    gogithub.String("refs/heads/customer-auth"),
		Object: &gogithub.GitObject{SHA: gogithub.String("stale")},
	}

	if _, err := host.client.OpenPullRequest(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("OpenPullRequest returned error: %v", err)
	}

	deleteIdx := callIndex(host.calls, "delete-ref:refs/heads/customer-auth")
	createIdx := callIndex(host.calls, "create-ref:refs/heads/customer-auth")

	if deleteIdx == -1 {
		t.Fatalf("expected stale branch to be deleted, calls: %v", host.calls)
	}
	if createIdx == -1 || deleteIdx > createIdx {
		t.Fatalf("expected delete before create, calls: %v", host.calls)
	}
}

func TestOpenPullRequestDeleteFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	host := newTestHost(t)
	host.git.refs["refs/heads/customer-auth"] = &gogithub.Reference{
		Ref:    gogithub.String("refs/heads/customer-auth"),
		Object: &gogithub.GitObject{SHA: gogithub.String("stale")},
	}
	host.git.deleteErr = errStub("delete denied")

	url, err := host.client.OpenPullRequest(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("expected delete failure to be swallowed, got %v", err)
	}

	if url != host.pulls.url {
		t.Fatalf("expected url %q, got %q", host.pulls.url, url)
	}
}

func TestOpenPullRequestBaseRefFailureAborts(t *testing.T) {
	t.Parallel()

	host := newTestHost(t)
	host.git.getErrs["refs/heads/main"] = errStub("upstream unavailable")

	if _, err := host.client.OpenPullRequest(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected error when base ref cannot be fetched")
	}

	if len(host.calls) != 1 {
		t.Fatalf("expected no calls after base ref failure, got %v", host.calls)
	}
}

func TestOpenPullRequestCommitFailureLeavesBranch(t *testing.T) {
	t.Parallel()

	host := newTestHost(t)
	host.contents.err = errStub("commit rejected")

	if _, err := host.client.OpenPullRequest(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected error when commit fails")
	}

	if callIndex(host.calls, "create-ref:") == -1 {
		t.Fatalf("expected branch to have been created, calls: %v", host.calls)
	}
	if callIndex(host.calls, "create-pull") != -1 {
		t.Fatalf("expected no pull request after commit failure, calls: %v", host.calls)
	}
	// No compensation: the freshly created branch is left behind.
	if callIndex(host.calls, "delete-ref:") != -1 {
		t.Fatalf("expected no cleanup delete, calls: %v", host.calls)
	}
}

func TestOpenPullRequestValidatesRequest(t *testing.T) {
	t.Parallel()

	host := newTestHost(t)

	cases := []PublishRequest{
		{FileName: "a.mdx", Content: []byte("x")},
		{Branch: "a", Content: []byte("x")},
		{Branch: "a", FileName: "a.mdx"},
	}

	for i, req := range cases {
		if _, err := host.client.OpenPullRequest(context.Background(), req); err == nil {
			t.Fatalf("expected validation error for case %d", i)
		}
	}

	if len(host.calls) != 0 {
		t.Fatalf("expected no remote calls for invalid requests, got %v", host.calls)
	}
}

func TestNewClientValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientOptions{Owner: "acme", Repo: "docs"}); err == nil {
		t.Fatalf("expected error when token missing")
	}
	if _, err := NewClient(ClientOptions{Token: "t", Repo: "docs"}); err == nil {
		t.Fatalf("expected error when owner missing")
	}
	if _, err := NewClient(ClientOptions{Token: "t", Owner: "acme"}); err == nil {
		t.Fatalf("expected error when repo missing")
	}

	client, err := NewClient(ClientOptions{Token: "t", Owner: "acme", Repo: "docs"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if client.BaseBranch() != "main" {
		t.Fatalf("expected default base branch main, got %q", client.BaseBranch())
	}
}
