package confluence

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	UserKey     string `json:"userKey"`
	AccountID   string `json:"accountId"`
	AccountType string `json:"accountType"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-page/#api-pages-id-get
type Page struct {
	ID         string `json:"id,omitempty"`
	Status     string `json:"status,omitempty"` // current, archived, deleted, trashed
	Title      string `json:"title,omitempty"`
	SpaceID    string `json:"spaceId,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
	ParentType string `json:"parentType,omitempty"`
	Position   int    `json:"position,omitempty"`
	AuthorID   string `json:"authorId,omitempty"`
	OwnerID    string `json:"ownerId,omitempty"`

	CreatedAt string   `json:"createdAt"`
	Version   *Version `json:"version,omitempty"`

	Body Body `json:"body"`

	Links struct {
		WebUI  string `json:"webui"`
		EditUI string `json:"editui"`
		TinyUI string `json:"tinyui"`
	} `json:"_links"`
}

// ChildPage is one entry of a page's direct-children listing.  The children
// endpoint returns all child content types (pages, folders, whiteboards,
// databases, embeds); we only descend into actual pages.
//
// See https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-children/#api-pages-id-children-get
type ChildPage struct {
	ID            string `json:"id,omitempty"`
	Status        string `json:"status,omitempty"`
	Title         string `json:"title,omitempty"`
	SpaceID       string `json:"spaceId,omitempty"`
	ChildPosition int    `json:"childPosition,omitempty"`
	Type          string `json:"type,omitempty"` // page, folder, whiteboard, database, embed
}

// Version defines the content version number
type Version struct {
	CreatedAt string `json:"createdAt"`
	Message   string `json:"message,omitempty"`
	Number    int    `json:"number"`
	MinorEdit bool   `json:"minorEdit"`
	AuthorID  string `json:"authorId,omitempty"`
}

// Body holds the storage information
type Body struct {
	Storage        Storage  `json:"storage"`
	AtlasDocFormat *Storage `json:"atlas_doc_format,omitempty"`
	View           *Storage `json:"view,omitempty"`
}

// Storage defines the storage information
type Storage struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}
