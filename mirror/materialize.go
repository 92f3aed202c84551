package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Node is one remote page as the walker sees it: an opaque id, plus the title
// if a parent's child listing already told us it.  An empty Title means it
// still has to be resolved.
type Node struct {
	ID    string
	Title string
}

// Location places a Node in the output tree: a directory path relative to the
// store root, and the nesting level (root = 0).
type Location struct {
	ParentPath string
	Level      int
}

// Materialized reports what a successful write produced, so the caller can
// derive the child directory from the same sanitized name.
type Materialized struct {
	Title    string
	Filename string
}

// MarkdownHeader is the frontmatter block prepended to every mirrored file.
type MarkdownHeader struct {
	Title  string `yaml:"title"`
	PageID string `yaml:"page_id"`
	Level  int    `yaml:"level"`
	Path   string `yaml:"path"`
}

// Materializer writes one Markdown file per page into the local store.  All
// filesystem access goes through afero so tests can run against an in-memory
// filesystem.
type Materializer struct {
	fs        afero.Fs
	storePath string
	client    *TreeClient
	logger    *slog.Logger
}

func NewMaterializer(storePath string, client *TreeClient, logger *slog.Logger) *Materializer {
	return NewMaterializerWithFS(afero.NewOsFs(), storePath, client, logger)
}

func NewMaterializerWithFS(fs afero.Fs, storePath string, client *TreeClient, logger *slog.Logger) *Materializer {
	return &Materializer{
		fs:        fs,
		storePath: storePath,
		client:    client,
		logger:    logger,
	}
}

// Materialize resolves the node's title and content and writes
// <parent>/<sanitized-title>.md under the store root.  The file is a YAML
// frontmatter block followed by the rendered Markdown body, written in a
// single whole-buffer call so a partially-written file is never the final
// state of a successful run.
//
// Content failures propagate; the caller decides containment.
func (m *Materializer) Materialize(ctx context.Context, node Node, loc Location) (Materialized, error) {
	title := node.Title
	if title == "" {
		title = m.client.FetchTitle(ctx, node.ID)
	}

	content, err := m.client.FetchContent(ctx, node.ID)
	if err != nil {
		return Materialized{}, fmt.Errorf("mirror: no content for page %s: %w", node.ID, err)
	}

	filename := SanitizeTitle(title, node.ID) + ".md"
	relative := path.Join(loc.ParentPath, filename)

	header := MarkdownHeader{
		Title:  title,
		PageID: node.ID,
		Level:  loc.Level,
		Path:   relative,
	}

	yamlHeader, err := yaml.Marshal(header)
	if err != nil {
		return Materialized{}, fmt.Errorf("mirror: couldn't marshal header YAML: %w", err)
	}

	body := fmt.Sprintf(`---
%s
---
%s
`,
		strings.TrimSpace(string(yamlHeader)),
		content)

	if err := m.EnsureDir(loc.ParentPath); err != nil {
		return Materialized{}, err
	}

	abs := filepath.Join(m.storePath, filepath.FromSlash(relative))
	if err := afero.WriteFile(m.fs, abs, []byte(body), 0644); err != nil {
		return Materialized{}, fmt.Errorf("mirror: couldn't write file %s: %w", abs, err)
	}

	return Materialized{
		Title:    title,
		Filename: filename,
	}, nil
}

// EnsureDir creates the given store-relative directory, parents included.
// Idempotent if it already exists.
func (m *Materializer) EnsureDir(relative string) error {
	abs := filepath.Join(m.storePath, filepath.FromSlash(relative))
	if err := m.fs.MkdirAll(abs, 0750); err != nil {
		return fmt.Errorf("mirror: couldn't create directory %s: %w", abs, err)
	}
	return nil
}
