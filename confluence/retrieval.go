package confluence

import (
	"context"
	"fmt"
	"net/url"
)

// ListAllChildPages walks every page of the direct-children listing for the
// given page, following the opaque cursor until the API stops returning one.
// Listing order is whatever the API gives us.
//
// On failure it returns the entries collected so far alongside the error, so
// a caller can degrade to a partial child list rather than abandoning the
// subtree outright.
func (api API) ListAllChildPages(ctx context.Context, id string) ([]ChildPage, error) {
	children := []ChildPage{}

	query := GetChildPagesQuery{
		ID:    id,
		Limit: 25,
	}

	for {
		listing, err := api.GetChildPages(ctx, query)
		if err != nil {
			return children, fmt.Errorf("confluence: couldn't list children of %s: %w", id, err)
		}

		children = append(children, listing.Results...)

		if listing.Links.Next == "" {
			break
		}

		q, err := url.Parse(listing.Links.Next)
		if err != nil {
			return children, fmt.Errorf("confluence: couldn't parse _links.next: %w", err)
		}
		query.Cursor = q.Query().Get("cursor")
		if query.Cursor == "" {
			return children, fmt.Errorf("confluence: expected parameter 'cursor' was empty")
		}
	}

	return children, nil
}
