package confluence

// GetPageByIDQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-page/#api-pages-id-get
type GetPageByIDQuery struct {
	ID string `url:"-"` // ID of the page; required

	// The content format types to be returned in the body field of the
	// response.  Valid values: storage, atlas_doc_format, view, export_view,
	// anonymous_export_view.  Leave empty to skip the body entirely.
	BodyFormat string `url:"body-format,omitempty"`
	GetDraft   bool   `url:"get-draft,omitempty"`
	Version    int    `url:"version,omitempty"` // Retrieve a previously published version.
}

// GetChildPagesQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-children/#api-pages-id-children-get
type GetChildPagesQuery struct {
	ID string `url:"-"` // ID of the parent page; required

	Sort string `url:"sort,omitempty"` // Sort order: id, -id, child-position, -child-position, ...

	// 'Cursor' is used for pagination; this opaque cursor will be returned in
	// the '_links.next' URL of the previous response.  Empty on the first call.
	Cursor string `url:"cursor,omitempty"`
	Limit  int    `url:"limit,omitempty"` // page limit; default 25, range 1-250
}
