package mirror

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/toothbrush/confluence-mirror/confluence"
)

// fakeWiki serves a canned page tree over the same routes the real API uses,
// with switches to make individual pages fail in the ways the mirror has to
// tolerate.
type fakeWiki struct {
	titles   map[string]string
	bodies   map[string]string
	children map[string][]confluence.ChildPage

	failTitle   map[string]bool
	failContent map[string]bool
	// fail the child listing once the cursor reaches this offset (0 = never).
	failChildrenAt map[string]int

	pageSize int

	mu            sync.Mutex
	childrenCalls map[string]int
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		titles:         map[string]string{},
		bodies:         map[string]string{},
		children:       map[string][]confluence.ChildPage{},
		failTitle:      map[string]bool{},
		failContent:    map[string]bool{},
		failChildrenAt: map[string]int{},
		pageSize:       2,
		childrenCalls:  map[string]int{},
	}
}

// addPage registers a page with a title and a simple HTML body.
func (w *fakeWiki) addPage(id, title, html string) {
	w.titles[id] = title
	w.bodies[id] = html
}

// addChild links child under parent as a sub-page, in call order.
func (w *fakeWiki) addChild(parent, child string) {
	w.children[parent] = append(w.children[parent], confluence.ChildPage{
		ID:    child,
		Title: w.titles[child],
		Type:  "page",
	})
}

// addNonPageChild links a child of a different content type, which the mirror
// must skip.
func (w *fakeWiki) addNonPageChild(parent, child, contentType string) {
	w.children[parent] = append(w.children[parent], confluence.ChildPage{
		ID:    child,
		Title: child,
		Type:  contentType,
	})
}

func (w *fakeWiki) childrenCallCount(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.childrenCalls[id]
}

func (w *fakeWiki) handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		const prefix = "/wiki/api/v2/pages/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(rw, r)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, prefix)
		if id, found := strings.CutSuffix(rest, "/children"); found {
			w.serveChildren(rw, r, id)
			return
		}
		w.servePage(rw, r, rest)
	})
}

func (w *fakeWiki) serveChildren(rw http.ResponseWriter, r *http.Request, id string) {
	w.mu.Lock()
	w.childrenCalls[id]++
	w.mu.Unlock()

	offset := 0
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}

	if at := w.failChildrenAt[id]; at > 0 && offset >= at {
		http.Error(rw, "boom", http.StatusInternalServerError)
		return
	}

	kids := w.children[id]
	end := offset + w.pageSize
	if end > len(kids) {
		end = len(kids)
	}

	var response confluence.ChildPagesResponse
	response.Results = kids[offset:end]
	if end < len(kids) {
		response.Links.Next = fmt.Sprintf("/wiki/api/v2/pages/%s/children?cursor=%d", id, end)
	}

	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(response)
}

func (w *fakeWiki) servePage(rw http.ResponseWriter, r *http.Request, id string) {
	page := confluence.Page{
		ID:    id,
		Title: w.titles[id],
	}

	if r.URL.Query().Get("body-format") == "view" {
		if w.failContent[id] {
			http.Error(rw, "conversion exploded", http.StatusInternalServerError)
			return
		}
		page.Body.View = &confluence.Storage{
			Representation: "view",
			Value:          w.bodies[id],
		}
	} else {
		if w.failTitle[id] {
			http.NotFound(rw, r)
			return
		}
	}

	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(page)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient spins up the fake wiki and points a real API client at it.
func newTestClient(t *testing.T, wiki *fakeWiki) *TreeClient {
	t.Helper()

	srv := httptest.NewServer(wiki.handler())
	t.Cleanup(srv.Close)

	api, err := confluence.NewAPI("example", "someone@example.com", "s3cret", time.Millisecond)
	require.NoError(t, err)

	base, err := url.Parse(srv.URL + "/wiki")
	require.NoError(t, err)
	api.BaseURI = base
	api.Client = srv.Client()

	return NewTreeClient(api, testLogger())
}

// collectFiles returns every file under root in the given filesystem, keyed by
// slash-separated path relative to root.
func collectFiles(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()

	files := map[string]string{}

	exists, err := afero.DirExists(fs, root)
	require.NoError(t, err)
	if !exists {
		return files
	}

	err = afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		content, err := afero.ReadFile(fs, p)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), filepath.ToSlash(root))
		rel = strings.TrimPrefix(rel, "/")
		files[rel] = string(content)
		return nil
	})
	require.NoError(t, err)

	return files
}
