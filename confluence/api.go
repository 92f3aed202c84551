package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

func NewAPI(instance string, username string, token string, minInterval time.Duration) (*API, error) {

	if instance == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence instance name --confluence-instance")
	}
	if username == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence username with --auth-username")
	}
	if token == "" {
		return &API{}, fmt.Errorf("confluence: auth token is empty, please check auth-token-cmd")
	}

	u, err := url.ParseRequestURI(
		fmt.Sprintf("https://%s.atlassian.net/wiki",
			instance,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse REST API URL: %w", err)
	}

	// One limiter shared by the whole API instance.  Every request, no matter
	// which traversal branch issues it, waits its turn here, so sustained
	// throughput is one call per minInterval process-wide.
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	a := &API{
		BaseURI: u,
		limiter: rate.NewLimiter(limit, 1),

		token:    token,
		username: username,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// The name of the Confluence instance, e.g. https://INSTANCE.atlassian.net
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Gates every outgoing request.
	limiter *rate.Limiter

	// Auth info
	username, token string
}
