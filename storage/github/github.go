package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/sommelier/searchbench/storage/fs"
	"github.com/sommelier/searchbench/types"
)

// Type should match the package name
const Type = "github"

var errFileNotFound = errors.New("file not found on github")

// Storage is a way to store run results in a GitHub repository.
type Storage struct {
	// AccessToken is the API token used to authenticate with GitHub (required).
	AccessToken string `json:"access_token"`

	// RepositoryOwner is the account which owns the repository on GitHub (required).
	// For https://github.com/octocat/kit, the owner is "octocat".
	RepositoryOwner string `json:"repository_owner"`

	// RepositoryName is the name of the repository on GitHub (required).
	// For https://github.com/octocat/kit, the name is "kit".
	RepositoryName string `json:"repository_name"`

	// CommitterName and CommitterEmail identify the user
	// corresponding to the AccessToken (required).
	CommitterName  string `json:"committer_name"`
	CommitterEmail string `json:"committer_email"`

	// Branch is the git branch to store the files to (required).
	Branch string `json:"branch"`

	// Dir is the subdirectory in the Git tree in which to store the files.
	// For example, to write to the directory "runs" in the Git repo, this should be "runs".
	Dir string `json:"dir"`

	// Run files older than CheckExpiry will be
	// deleted on calls to Maintain(). If this is
	// the zero value, no old run files will be
	// deleted.
	CheckExpiry time.Duration `json:"check_expiry,omitempty"`

	client *github.Client
}

// New creates a new Storage instance based on json config
func New(config json.RawMessage) (*Storage, error) {
	storage := new(Storage)
	err := json.Unmarshal(config, storage)
	return storage, err
}

// Type returns the storage driver package name
func (Storage) Type() string {
	return Type
}

func (gh *Storage) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"storage": Type,
		"repo":    gh.RepositoryOwner + "/" + gh.RepositoryName,
		"branch":  gh.Branch,
	})
}

// ensureClient builds a GitHub API client if none exists and stores it on the struct.
func (gh *Storage) ensureClient() error {
	if gh.client != nil {
		return nil
	}

	if gh.AccessToken == "" {
		return errors.New("missing access_token in github storage configuration")
	}

	gh.client = github.NewClient(oauth2.NewClient(
		context.Background(),
		oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: gh.AccessToken},
		),
	))

	return nil
}

// fullPathName returns filename inside the configured Dir.
func (gh *Storage) fullPathName(filename string) string {
	if gh.Dir != "" && strings.HasPrefix(filename, gh.Dir) {
		return filename
	}
	return filepath.Join(gh.Dir, filename)
}

func (gh *Storage) committer() *github.CommitAuthor {
	return &github.CommitAuthor{
		Name:  &gh.CommitterName,
		Email: &gh.CommitterEmail,
	}
}

// readFile reads a file from the Git repository at its latest revision
// and returns its contents and blob SHA.
func (gh *Storage) readFile(filename string) ([]byte, string, error) {
	if err := gh.ensureClient(); err != nil {
		return nil, "", err
	}

	contents, _, resp, err := gh.client.Repositories.GetContents(
		context.Background(),
		gh.RepositoryOwner,
		gh.RepositoryName,
		gh.fullPathName(filename),
		&github.RepositoryContentGetOptions{Ref: "heads/" + gh.Branch},
	)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, "", errFileNotFound
		}
		return nil, "", err
	}
	if contents == nil {
		return nil, "", fmt.Errorf("%s is a directory", gh.fullPathName(filename))
	}

	decoded, err := contents.GetContent()
	return []byte(decoded), contents.GetSHA(), err
}

// writeFile commits contents to filename. An empty sha creates
// the file; otherwise the file at that revision is updated.
func (gh *Storage) writeFile(filename string, sha string, contents []byte) error {
	if err := gh.ensureClient(); err != nil {
		return err
	}

	path := gh.fullPathName(filename)
	opts := &github.RepositoryContentFileOptions{
		Message:   github.String(fmt.Sprintf("[searchbench] store %s [ci skip]", path)),
		Content:   contents,
		Committer: gh.committer(),
	}
	if gh.Branch != "" {
		opts.Branch = &gh.Branch
	}

	write := gh.client.Repositories.CreateFile
	if sha != "" {
		opts.SHA = github.String(sha)
		write = gh.client.Repositories.UpdateFile
		gh.log().WithField("path", path).Debug("updating file")
	} else {
		gh.log().WithField("path", path).Debug("creating file")
	}

	_, _, err := write(context.Background(), gh.RepositoryOwner, gh.RepositoryName, path, opts)
	return err
}

// deleteFile deletes filename at revision sha.
func (gh *Storage) deleteFile(filename string, sha string) error {
	if err := gh.ensureClient(); err != nil {
		return err
	}
	if sha == "" {
		return errFileNotFound
	}

	path := gh.fullPathName(filename)
	gh.log().WithField("path", path).Debug("deleting file")

	opts := &github.RepositoryContentFileOptions{
		Message:   github.String(fmt.Sprintf("[searchbench] delete %s [ci skip]", path)),
		SHA:       github.String(sha),
		Committer: gh.committer(),
	}
	if gh.Branch != "" {
		opts.Branch = &gh.Branch
	}
	_, _, err := gh.client.Repositories.DeleteFile(context.Background(), gh.RepositoryOwner, gh.RepositoryName, path, opts)
	return err
}

// readIndex reads the index and its blob SHA. A missing
// index is returned as an empty one.
func (gh *Storage) readIndex() (map[string]int64, string, error) {
	index := map[string]int64{}

	contents, sha, err := gh.readFile(fs.IndexName)
	if errors.Is(err, errFileNotFound) {
		return index, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	err = json.Unmarshal(contents, &index)
	return index, sha, err
}

func (gh *Storage) writeIndex(index map[string]int64, sha string) error {
	contents, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return gh.writeFile(fs.IndexName, sha, contents)
}

// Store commits results to a new run file and updates the index.
func (gh *Storage) Store(results []types.Result) error {
	name := *fs.GenerateFilename()
	contents, err := json.Marshal(results)
	if err != nil {
		return err
	}
	if err := gh.writeFile(name, "", contents); err != nil {
		return err
	}

	index, indexSHA, err := gh.readIndex()
	if err != nil {
		return err
	}
	index[name] = time.Now().UnixNano()
	return gh.writeIndex(index, indexSHA)
}

// Fetch returns the results of the run file with the given name.
func (gh *Storage) Fetch(name string) ([]types.Result, error) {
	contents, _, err := gh.readFile(name)
	if err != nil {
		return nil, err
	}
	var r []types.Result
	err = json.Unmarshal(contents, &r)
	return r, err
}

// GetIndex returns the run index.
func (gh *Storage) GetIndex() (map[string]int64, error) {
	m, _, err := gh.readIndex()
	return m, err
}

// Maintain deletes run files that are older than gh.CheckExpiry.
func (gh *Storage) Maintain() error {
	if gh.CheckExpiry == 0 {
		return nil
	}
	if err := gh.ensureClient(); err != nil {
		return err
	}

	index, indexSHA, err := gh.readIndex()
	if err != nil {
		return err
	}

	ctx := context.Background()
	ref, _, err := gh.client.Git.GetRef(ctx, gh.RepositoryOwner, gh.RepositoryName, "heads/"+gh.Branch)
	if err != nil {
		return err
	}
	tree, _, err := gh.client.Git.GetTree(ctx, gh.RepositoryOwner, gh.RepositoryName, *ref.Object.SHA, true)
	if err != nil {
		return err
	}

	var deleted int
	for _, entry := range tree.Entries {
		path := entry.GetPath()
		if path == gh.fullPathName(fs.IndexName) {
			continue
		}
		if gh.Dir != "" && !strings.HasPrefix(path, gh.Dir) {
			continue
		}

		name := filepath.Base(path)
		nsec, ok := index[name]
		if !ok {
			gh.log().WithField("path", path).Debug("maintain: skipping file missing from index")
			continue
		}
		if time.Since(time.Unix(0, nsec)) <= gh.CheckExpiry {
			continue
		}
		if err := gh.deleteFile(path, entry.GetSHA()); err != nil {
			return err
		}
		delete(index, name)
		deleted++
	}

	if deleted == 0 {
		return nil
	}
	return gh.writeIndex(index, indexSHA)
}
