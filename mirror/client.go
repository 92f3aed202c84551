package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/toothbrush/confluence-mirror/confluence"
)

// TreeClient is the traversal's view of the remote wiki.  It narrows the
// Confluence API down to the three operations the walker needs, and decides
// per operation whether a failure degrades to a safe default or propagates.
//
// Title and child-listing failures degrade: a placeholder title or a partial
// child list still yields a structurally valid mirror.  Content failures
// propagate, because with no body there is nothing worth writing.
type TreeClient struct {
	api    *confluence.API
	logger *slog.Logger
}

func NewTreeClient(api *confluence.API, logger *slog.Logger) *TreeClient {
	return &TreeClient{
		api:    api,
		logger: logger,
	}
}

// FetchTitle resolves a page's display title.  On any failure (not found,
// mangled response, transient network trouble) it logs and falls back to the
// deterministic "Untitled-<id[:8]>" placeholder; it never propagates.
func (c *TreeClient) FetchTitle(ctx context.Context, id string) string {
	page, err := c.api.GetPageByID(ctx, confluence.GetPageByIDQuery{ID: id})
	if err != nil {
		c.logger.Error("couldn't fetch page title, using placeholder",
			slog.String("id", id),
			slog.Any("error", err))
		return FallbackTitle(id)
	}

	if page.Title == "" {
		c.logger.Debug("page has no title, using placeholder", slog.String("id", id))
		return FallbackTitle(id)
	}

	return page.Title
}

// FetchChildren lists a page's direct sub-pages, in the order the API returns
// them.  Entries of other content types (folders, whiteboards, databases,
// embeds) are dropped.  On failure it logs and returns whatever was collected
// before the failure, possibly nothing; it never propagates.
func (c *TreeClient) FetchChildren(ctx context.Context, id string) []confluence.ChildPage {
	listing, err := c.api.ListAllChildPages(ctx, id)
	if err != nil {
		c.logger.Error("child listing failed, continuing with partial results",
			slog.String("id", id),
			slog.Int("collected", len(listing)),
			slog.Any("error", err))
	}

	pages := make([]confluence.ChildPage, 0, len(listing))
	for _, child := range listing {
		if child.Type != "page" {
			continue
		}
		pages = append(pages, child)
	}

	return pages
}

// FetchContent retrieves a page's rendered body and converts it to Markdown.
// This is the one remote operation whose failure is fatal for the page: the
// caller must treat an error here as "do not materialize this node".
func (c *TreeClient) FetchContent(ctx context.Context, id string) (string, error) {
	page, err := c.api.GetPageByID(ctx, confluence.GetPageByIDQuery{
		ID:         id,
		BodyFormat: "view",
	})
	if err != nil {
		return "", fmt.Errorf("mirror: failed getting page body: %w", err)
	}

	if page.Body.View == nil {
		return "", fmt.Errorf("mirror: found nil .Body.View field for page ID %s", id)
	}

	markdown, err := c.htmlToMarkdown(page.Body.View.Value)
	if err != nil {
		return "", fmt.Errorf("mirror: convert to Markdown failed: %w", err)
	}

	return markdown, nil
}
