package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.Handler, minInterval time.Duration) *API {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewAPI("example", "someone@example.com", "s3cret", minInterval)
	require.NoError(t, err)

	base, err := url.Parse(srv.URL + "/wiki")
	require.NoError(t, err)
	api.BaseURI = base
	api.Client = srv.Client()

	return api
}

func TestNewAPIValidatesConfiguration(t *testing.T) {
	t.Parallel()

	_, err := NewAPI("", "user", "token", 0)
	assert.Error(t, err)

	_, err = NewAPI("org", "", "token", 0)
	assert.Error(t, err)

	_, err = NewAPI("org", "user", "", 0)
	assert.Error(t, err)

	api, err := NewAPI("org", "user", "token", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://org.atlassian.net/wiki", api.BaseURI.String())
}

func TestGetPageByID(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/api/v2/pages/123", r.URL.Path)
		assert.Equal(t, "view", r.URL.Query().Get("body-format"))

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "someone@example.com", user)

		_ = json.NewEncoder(w).Encode(Page{
			ID:    "123",
			Title: "A page",
			Body: Body{
				View: &Storage{Representation: "view", Value: "<p>hi</p>"},
			},
		})
	}), 0)

	page, err := api.GetPageByID(context.Background(), GetPageByIDQuery{ID: "123", BodyFormat: "view"})
	require.NoError(t, err)
	assert.Equal(t, "A page", page.Title)
	require.NotNil(t, page.Body.View)
	assert.Equal(t, "<p>hi</p>", page.Body.View.Value)
}

func TestGetPageByIDRequiresID(t *testing.T) {
	t.Parallel()

	api, err := NewAPI("org", "user", "token", 0)
	require.NoError(t, err)

	_, err = api.GetPageByID(context.Background(), GetPageByIDQuery{})
	assert.Error(t, err)
}

func TestRequestStatusHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: "authentication failed"},
		{name: "not found", status: http.StatusNotFound, wantErr: "content not found"},
		{name: "server error", status: http.StatusInternalServerError, wantErr: "internal server error"},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: "service is not available"},
		{name: "teapot", status: http.StatusTeapot, wantErr: "unknown HTTP response status"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}), 0)

			_, err := api.GetPageByID(context.Background(), GetPageByIDQuery{ID: "1"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListAllChildPagesFollowsCursor(t *testing.T) {
	t.Parallel()

	kids := []ChildPage{
		{ID: "a", Title: "A", Type: "page"},
		{ID: "b", Title: "B", Type: "folder"},
		{ID: "c", Title: "C", Type: "page"},
	}

	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/api/v2/pages/parent/children", r.URL.Path)

		offset := 0
		if cursor := r.URL.Query().Get("cursor"); cursor != "" {
			offset, _ = strconv.Atoi(cursor)
		}

		var response ChildPagesResponse
		response.Results = kids[offset : offset+1]
		if offset+1 < len(kids) {
			response.Links.Next = fmt.Sprintf("/wiki/api/v2/pages/parent/children?cursor=%d", offset+1)
		}
		_ = json.NewEncoder(w).Encode(response)
	}), 0)

	children, err := api.ListAllChildPages(context.Background(), "parent")
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "a", children[0].ID)
	assert.Equal(t, "b", children[1].ID)
	assert.Equal(t, "c", children[2].ID)
}

func TestListAllChildPagesReturnsPartialOnFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var response ChildPagesResponse
		response.Results = []ChildPage{{ID: "a", Type: "page"}}
		response.Links.Next = "/wiki/api/v2/pages/parent/children?cursor=1"
		_ = json.NewEncoder(w).Encode(response)
	}), 0)

	children, err := api.ListAllChildPages(context.Background(), "parent")
	require.Error(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "a", children[0].ID)
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/rest/api/user/current", r.URL.Path)
		_ = json.NewEncoder(w).Encode(User{DisplayName: "Jo Doe", AccountID: "acct-1"})
	}), 0)

	user, err := api.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jo Doe", user.DisplayName)
	assert.Equal(t, "acct-1", user.AccountID)
}

func TestRequestsObserveMinInterval(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Page{ID: "1"})
	}), 25*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := api.GetPageByID(context.Background(), GetPageByIDQuery{ID: "1"})
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// first call is immediate, the next two wait out the interval each.
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestRequestHonoursContextCancellation(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Page{ID: "1"})
	}), time.Hour)

	// burn the initial token.
	_, err := api.GetPageByID(context.Background(), GetPageByIDQuery{ID: "1"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = api.GetPageByID(ctx, GetPageByIDQuery{ID: "1"})
	assert.Error(t, err)
}
