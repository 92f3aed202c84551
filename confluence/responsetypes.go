package confluence

// ChildPagesResponse is one page of a direct-children listing.
type ChildPagesResponse struct {
	Results []ChildPage `json:"results"`

	Links struct {
		// Contains the relative URL for the next set of results, using a
		// cursor query parameter.  This property will not be present if there
		// is no additional data available.
		Next string `json:"next"`
	} `json:"_links"`
}
