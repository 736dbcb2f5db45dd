package docshost

import (
	"context"
	"path"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// PublishRequest describes one document to publish via pull request.
type PublishRequest struct {
	Branch        string
	FileName      string
	Content       []byte
	CommitMessage string
	Title         string
	Body          string
}

// Publisher opens a pull request that adds a rendered document to the docs repository.
type Publisher interface {
	OpenPullRequest(ctx context.Context, req PublishRequest) (string, error)
}

var _ Publisher = (*Client)(nil)

// OpenPullRequest creates a branch at the tip of the base branch, commits the document
// onto it and opens a pull request into base. A stale branch of the same name is
// deleted first; that delete is best effort and its failure is only logged. There is
// no retry and no rollback: a failure part-way leaves earlier remote state in place.
func (c *Client) OpenPullRequest(ctx context.Context, req PublishRequest) (string, error) {
	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		return "", eris.New("branch name is required")
	}
	if strings.TrimSpace(req.FileName) == "" {
		return "", eris.New("file name is required")
	}
	if len(req.Content) == 0 {
		return "", eris.New("document content is required")
	}

	baseRef, _, err := c.git.GetRef(ctx, c.owner, c.repo, "refs/heads/"+c.base)
	if err != nil {
		return "", eris.Wrapf(err, "fetching tip of %s", c.base)
	}

	branchRef := "refs/heads/" + branch
	if existing, _, refErr := c.git.GetRef(ctx, c.owner, c.repo, branchRef); refErr == nil && existing != nil {
		if _, delErr := c.git.DeleteRef(ctx, c.owner, c.repo, branchRef); delErr != nil {
			c.logWarn(logrus.Fields{"branch": branch}, delErr, "deleting stale branch failed")
		}
	}

	newRef := &gogithub.Reference{
		Ref:    gogithub.String(branchRef),
		Object: &gogithub.GitObject{SHA: baseRef.Object.SHA},
	}
	if _, _, err := c.git.CreateRef(ctx, c.owner, c.repo, newRef); err != nil {
		return "", eris.Wrapf(err, "creating branch %s", branch)
	}

	filePath := path.Join(c.pathPrefix, req.FileName)
	fileOpts := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.String(req.CommitMessage),
		Content: req.Content,
		Branch:  gogithub.String(branch),
	}
	if _, _, err := c.contents.CreateFile(ctx, c.owner, c.repo, filePath, fileOpts); err != nil {
		return "", eris.Wrapf(err, "committing %s to branch %s", filePath, branch)
	}

	pull, _, err := c.pulls.Create(ctx, c.owner, c.repo, &gogithub.NewPullRequest{
		Title: gogithub.String(req.Title),
		Head:  gogithub.String(branch),
		Base:  gogithub.String(c.base),
		Body:  gogithub.String(req.Body),
	})
	if err != nil {
		return "", eris.Wrapf(err, "opening pull request from %s into %s", branch, c.base)
	}

	return pull.GetHTMLURL(), nil
}

func (c *Client) logWarn(fields logrus.Fields, err error, message string) {
	if c.logger == nil {
		return
	}

	logEntry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		logEntry = logEntry.WithFields(fields)
	}
	logEntry.Warn(message)
}
