package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/eventcall-app/eventcall/internal/common"
)

// ContentStore provides CRUD over JSON files committed to the repository via
// the Contents, Git Trees, and Git Blobs APIs.
type ContentStore struct {
	client *Client
	branch string
}

func NewContentStore(client *Client) *ContentStore {
	return &ContentStore{client: client, branch: common.DefaultBranch}
}

// OnBranch returns a store addressing a different branch.
func (s *ContentStore) OnBranch(branch string) *ContentStore {
	return &ContentStore{client: s.client, branch: branch}
}

// FileContent is a decoded repository file plus the blob SHA used as the
// optimistic-concurrency precondition on updates.
type FileContent struct {
	Content []byte
	SHA     string
}

// TreeEntry identifies one blob found by ListFilesUnderPrefix. The tree API
// returns no content; fetch each blob individually (see GetBlobJSON).
type TreeEntry struct {
	Path string
	SHA  string
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// GetFile fetches a file by repository path. A 404 resolves to (nil, nil):
// absence is a legitimate answer, not an error.
func (s *ContentStore) GetFile(ctx context.Context, path string) (*FileContent, error) {
	var resp contentsResponse
	apiPath := s.client.RepoPath("contents", escapePath(path)) + "?ref=" + s.branch

	err := s.client.Do(ctx, http.MethodGet, apiPath, nil, &resp, "get "+path)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := decodeBase64Body(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &FileContent{Content: data, SHA: resp.SHA}, nil
}

// GetFileJSON fetches a file and unmarshals its JSON body into out.
// Returns (false, nil) when the file does not exist.
func (s *ContentStore) GetFileJSON(ctx context.Context, path string, out any) (bool, error) {
	file, err := s.GetFile(ctx, path)
	if err != nil {
		return false, err
	}
	if file == nil {
		return false, nil
	}
	if err := unmarshalJSON(file.Content, out); err != nil {
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	return true, nil
}

// PutFile writes value as indented JSON to path. knownSHA must carry the
// current blob SHA when updating an existing file; GitHub rejects the write
// with a conflict otherwise, which surfaces as common.ErrConflict rather
// than being retried as a create.
func (s *ContentStore) PutFile(ctx context.Context, path string, value any, message, knownSHA string) (string, error) {
	encoded, err := EncodeContent(value)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}

	body := map[string]any{
		"message": message,
		"content": encoded,
		"branch":  s.branch,
	}
	if knownSHA != "" {
		body["sha"] = knownSHA
	}

	var resp struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	apiPath := s.client.RepoPath("contents", escapePath(path))
	if err := s.client.Do(ctx, http.MethodPut, apiPath, body, &resp, "put "+path); err != nil {
		return "", err
	}
	return resp.Commit.SHA, nil
}

// DeleteFile removes a file, resolving the current SHA first. A missing
// file is a no-op success.
func (s *ContentStore) DeleteFile(ctx context.Context, path, message string) error {
	file, err := s.GetFile(ctx, path)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}

	body := map[string]any{
		"message": message,
		"sha":     file.SHA,
		"branch":  s.branch,
	}
	apiPath := s.client.RepoPath("contents", escapePath(path))
	return s.client.Do(ctx, http.MethodDelete, apiPath, body, nil, "delete "+path)
}

// ListFilesUnderPrefix walks the recursive git tree of the branch and
// returns every .json blob under the prefix directory. The prefix is
// matched on segment boundaries, so "rsvps/e1" lists "rsvps/e1/r1.json"
// but not the sibling file "rsvps/e1.json" or "rsvps/e10/r1.json".
func (s *ContentStore) ListFilesUnderPrefix(ctx context.Context, prefix string) ([]TreeEntry, error) {
	var resp struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			SHA  string `json:"sha"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}

	apiPath := s.client.RepoPath("git", "trees", s.branch) + "?recursive=1"
	if err := s.client.Do(ctx, http.MethodGet, apiPath, nil, &resp, "list "+prefix); err != nil {
		return nil, err
	}
	if resp.Truncated {
		s.client.logger.Warn(ctx, "git tree truncated, listing may be incomplete", "prefix", prefix)
	}

	dir := strings.TrimSuffix(prefix, "/") + "/"

	var entries []TreeEntry
	for _, item := range resp.Tree {
		if item.Type != "blob" {
			continue
		}
		if strings.HasPrefix(item.Path, dir) && strings.HasSuffix(item.Path, ".json") {
			entries = append(entries, TreeEntry{Path: item.Path, SHA: item.SHA})
		}
	}
	return entries, nil
}

// GetBlobJSON fetches a blob by SHA and unmarshals its JSON body into out.
func (s *ContentStore) GetBlobJSON(ctx context.Context, sha string, out any) error {
	var resp struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	apiPath := s.client.RepoPath("git", "blobs", sha)
	if err := s.client.Do(ctx, http.MethodGet, apiPath, nil, &resp, "blob "+sha); err != nil {
		return err
	}

	data, err := decodeBase64Body(resp.Content)
	if err != nil {
		return fmt.Errorf("blob %s: %w", sha, err)
	}
	return unmarshalJSON(data, out)
}

// batchWorkers bounds logically concurrent blob fetches during bulk reads.
const batchWorkers = 4

// FetchBlobsJSON fetches the blobs for the given entries with a bounded
// worker pool and unmarshals each into a value produced by newItem. Results
// keep the order of entries; per-entry failures are joined into one error
// while successful entries are still returned.
func (s *ContentStore) FetchBlobsJSON(ctx context.Context, entries []TreeEntry, newItem func() any, collect func(path string, item any)) error {
	type result struct {
		idx  int
		item any
		err  error
	}

	jobs := make(chan int)
	results := make([]result, len(entries))

	var wg sync.WaitGroup
	for w := 0; w < batchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				item := newItem()
				err := s.GetBlobJSON(ctx, entries[idx].SHA, item)
				results[idx] = result{idx: idx, item: item, err: err}
			}
		}()
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entries[i].Path, r.err))
			continue
		}
		collect(entries[i].Path, r.item)
	}
	return errors.Join(errs...)
}

// escapePath percent-encodes each path segment while keeping separators.
func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
