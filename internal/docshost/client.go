package docshost

import (
	"context"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ClientOptions controls how the documentation-host client is initialised.
type ClientOptions struct {
	Token      string
	Owner      string
	Repo       string
	BaseBranch string
	PathPrefix string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client wraps the GitHub services used to publish glossary documents.
type Client struct {
	git        gitService
	contents   contentsService
	pulls      pullsService
	owner      string
	repo       string
	base       string
	pathPrefix string
	logger     *logrus.Logger
}

type gitService interface {
	GetRef(ctx context.Context, owner, repo, ref string) (*gogithub.Reference, *gogithub.Response, error)
	CreateRef(ctx context.Context, owner, repo string, ref *gogithub.Reference) (*gogithub.Reference, *gogithub.Response, error)
	DeleteRef(ctx context.Context, owner, repo, ref string) (*gogithub.Response, error)
}

type contentsService interface {
	CreateFile(ctx context.Context, owner, repo, path string, opts *gogithub.RepositoryContentFileOptions) (*gogithub.RepositoryContentResponse, *gogithub.Response, error)
}

type pullsService interface {
	Create(ctx context.Context, owner, repo string, pull *gogithub.NewPullRequest) (*gogithub.PullRequest, *gogithub.Response, error)
}

const defaultBaseBranch = "main"

// NewClient constructs a Client authenticated with the provided bearer token.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, eris.New("github token is required")
	}
	if strings.TrimSpace(opts.Owner) == "" {
		return nil, eris.New("docs repository owner is required")
	}
	if strings.TrimSpace(opts.Repo) == "" {
		return nil, eris.New("docs repository name is required")
	}

	base := strings.TrimSpace(opts.BaseBranch)
	if base == "" {
		base = defaultBaseBranch
	}

	apiClient := gogithub.NewClient(opts.HTTPClient).WithAuthToken(opts.Token)

	return &Client{
		git:        apiClient.Git,
		contents:   apiClient.Repositories,
		pulls:      apiClient.PullRequests,
		owner:      strings.TrimSpace(opts.Owner),
		repo:       strings.TrimSpace(opts.Repo),
		base:       base,
		pathPrefix: strings.Trim(strings.TrimSpace(opts.PathPrefix), "/"),
		logger:     opts.Logger,
	}, nil
}

// BaseBranch returns the branch pull requests are opened against.
func (c *Client) BaseBranch() string {
	return c.base
}
