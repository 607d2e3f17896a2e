package github

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/github"

	"github.com/sommelier/searchbench/storage/fs"
	"github.com/sommelier/searchbench/types"
)

var results = []types.Result{{Title: "Semantic (RAG)", Endpoint: "http://localhost:4000/api/search/semantic"}}

// fakeRepo is an in-memory GitHub repository serving the
// contents, refs and trees endpoints used by Storage.
type fakeRepo struct {
	t      *testing.T
	branch string

	mu       sync.Mutex
	files    map[string][]byte
	messages []string
}

func blobSHA(b []byte) string {
	return fmt.Sprintf("%x", sha1.Sum(b))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Cannot encode response: %v", err)
	}
}

func (repo *fakeRepo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/repos/o/r/contents/"):
		repo.contents(w, r, strings.TrimPrefix(r.URL.Path, "/repos/o/r/contents/"))
	case strings.HasPrefix(r.URL.Path, "/repos/o/r/git/refs/"):
		if got, want := strings.TrimPrefix(r.URL.Path, "/repos/o/r/git/refs/"), "heads/"+repo.branch; got != want {
			repo.t.Errorf("Expected ref %s, got %s", want, got)
		}
		writeJSON(repo.t, w, github.Reference{
			Ref:    github.String("refs/heads/" + repo.branch),
			Object: &github.GitObject{Type: github.String("commit"), SHA: github.String("tree-sha")},
		})
	case r.URL.Path == "/repos/o/r/git/trees/tree-sha":
		if got := r.FormValue("recursive"); got != "1" {
			repo.t.Errorf("Expected recursive flag to be 1, got %v", got)
		}
		var paths []string
		for path := range repo.files {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		tree := github.Tree{SHA: github.String("tree-sha")}
		for _, path := range paths {
			tree.Entries = append(tree.Entries, github.TreeEntry{
				Path: github.String(path),
				SHA:  github.String(blobSHA(repo.files[path])),
				Type: github.String("blob"),
			})
		}
		writeJSON(repo.t, w, tree)
	default:
		repo.t.Errorf("Cannot handle %s %s", r.Method, r.URL.Path)
		http.Error(w, "not handled", http.StatusForbidden)
	}
}

func (repo *fakeRepo) contents(w http.ResponseWriter, r *http.Request, path string) {
	existing, exists := repo.files[path]

	if r.Method == http.MethodGet {
		if got, want := r.FormValue("ref"), "heads/"+repo.branch; got != want {
			repo.t.Errorf("Expected ref %s, got %s", want, got)
		}
		if !exists {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		writeJSON(repo.t, w, github.RepositoryContent{
			Type:     github.String("file"),
			Encoding: github.String("base64"),
			Path:     github.String(path),
			Name:     github.String(filepath.Base(path)),
			Content:  github.String(base64.StdEncoding.EncodeToString(existing)),
			SHA:      github.String(blobSHA(existing)),
		})
		return
	}

	var body struct {
		Message   string              `json:"message"`
		Content   []byte              `json:"content"`
		SHA       string              `json:"sha"`
		Branch    string              `json:"branch"`
		Committer github.CommitAuthor `json:"committer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		repo.t.Errorf("Expected body to decode fine, but got %v", err)
	}
	if body.Branch != repo.branch {
		repo.t.Errorf("Expected branch %s, got %s", repo.branch, body.Branch)
	}
	if got, want := body.Committer.GetEmail(), "appleseed@example.org"; got != want {
		repo.t.Errorf("Expected committer email %s, got %s", want, got)
	}
	if exists && body.SHA != blobSHA(existing) {
		http.Error(w, "sha mismatch", http.StatusConflict)
		return
	}
	repo.messages = append(repo.messages, body.Message)

	switch r.Method {
	case http.MethodPut:
		if !exists && body.SHA != "" {
			http.Error(w, "no such file", http.StatusUnprocessableEntity)
			return
		}
		repo.files[path] = body.Content
		writeJSON(repo.t, w, github.RepositoryContentResponse{
			Content: &github.RepositoryContent{Path: github.String(path), SHA: github.String(blobSHA(body.Content))},
		})
	case http.MethodDelete:
		if !exists {
			http.Error(w, "no such file", http.StatusNotFound)
			return
		}
		delete(repo.files, path)
		writeJSON(repo.t, w, github.RepositoryContentResponse{})
	default:
		repo.t.Errorf("Unexpected method %s", r.Method)
	}
}

func withGitHubServer(t *testing.T, specimen *Storage) *fakeRepo {
	repo := &fakeRepo{t: t, branch: specimen.Branch, files: map[string][]byte{}}
	server := httptest.NewServer(repo)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	u, _ := url.Parse(server.URL + "/")
	client.BaseURL = u
	client.UploadURL = u
	specimen.client = client
	return repo
}

func newSpecimen(dir string) *Storage {
	return &Storage{
		RepositoryOwner: "o",
		RepositoryName:  "r",
		CommitterName:   "John Appleseed",
		CommitterEmail:  "appleseed@example.org",
		Branch:          "b",
		Dir:             dir,
	}
}

func testStorage(t *testing.T, dir string) {
	specimen := newSpecimen(dir)
	repo := withGitHubServer(t, specimen)

	if err := specimen.Store(results); err != nil {
		t.Fatalf("Expected no error from Store(), got: %v", err)
	}

	index, err := specimen.GetIndex()
	if err != nil {
		t.Fatalf("Cannot read index: %v", err)
	}
	if len(index) != 1 {
		t.Fatalf("Expected length of index to be 1, but got %v", len(index))
	}
	var name string
	for name = range index {
	}
	if !strings.HasSuffix(name, "-bench.json") {
		t.Errorf("Expected run file name to end in -bench.json, got %s", name)
	}
	if _, ok := repo.files[filepath.Join(dir, name)]; !ok {
		t.Errorf("Expected %s in the repo, have %v", filepath.Join(dir, name), repo.files)
	}
	if _, ok := repo.files[filepath.Join(dir, fs.IndexName)]; !ok {
		t.Errorf("Expected index in %q", dir)
	}
	if got, want := repo.messages[0], fmt.Sprintf("[searchbench] store %s [ci skip]", filepath.Join(dir, name)); got != want {
		t.Errorf("Expected commit message '%s', got '%s'", want, got)
	}

	fetched, err := specimen.Fetch(name)
	if err != nil {
		t.Fatalf("Cannot fetch %s: %v", name, err)
	}
	if len(fetched) != 1 || fetched[0].Title != results[0].Title {
		t.Errorf("Fetched wrong results: %+v", fetched)
	}

	// A second run updates the index in place.
	if err := specimen.Store(results); err != nil {
		t.Fatalf("Expected no error from second Store(), got: %v", err)
	}
	if index, _ := specimen.GetIndex(); len(index) != 2 {
		t.Fatalf("Expected length of index to be 2, but got %v", len(index))
	}

	// Nothing is deleted without CheckExpiry.
	if err := specimen.Maintain(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := specimen.readFile(name); err != nil {
		t.Fatalf("Expected run file to survive Maintain(), got: %v", err)
	}

	specimen.CheckExpiry = time.Nanosecond
	time.Sleep(time.Millisecond)
	if err := specimen.Maintain(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := specimen.readFile(name); err != errFileNotFound {
		t.Errorf("Expected run file to be deleted, got: %v", err)
	}
	index, err = specimen.GetIndex()
	if err != nil {
		t.Fatalf("Cannot read index: %v", err)
	}
	if len(index) != 0 {
		t.Errorf("Expected empty index after Maintain(), got %v", index)
	}
}

func TestGitHubWithoutSubdir(t *testing.T) {
	testStorage(t, "")
}

func TestGitHubWithSubdir(t *testing.T) {
	testStorage(t, "runs")
}

func TestGitHubMissingToken(t *testing.T) {
	if err := newSpecimen("").Store(results); err == nil {
		t.Error("Expected an error without an access token")
	}
}

func TestNew(t *testing.T) {
	s, err := New(json.RawMessage(`{"access_token":"x","repository_owner":"o","repository_name":"r","branch":"main","dir":"runs"}`))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if s.Branch != "main" || s.Dir != "runs" || s.Type() != Type {
		t.Errorf("Unexpected storage: %+v", s)
	}
}
