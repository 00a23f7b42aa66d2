package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://graphql.anilist.co"

// libraryQuery pulls every category list with the entry and media fields the
// projector consumes. The service ignores unknown users with an error object
// rather than an HTTP status, so both paths are checked below.
const libraryQuery = `query ($userName: String) {
  MediaListCollection(userName: $userName, type: ANIME) {
    lists {
      name
      status
      entries {
        id
        status
        progress
        score(format: POINT_10_DECIMAL)
        media {
          id
          title { userPreferred english romaji native }
          coverImage { extraLarge large medium }
          episodes
          nextAiringEpisode { episode }
          format
          siteUrl
        }
      }
    }
  }
}`

// HTTPClient talks to the tracking service's GraphQL endpoint.
type HTTPClient struct {
	endpoint    string
	username    string
	token       string
	httpClient  *http.Client
	rateLimiter *rateLimiter
}

// HTTPClientConfig configures an HTTPClient. Username is required; Token is
// only needed for private lists.
type HTTPClientConfig struct {
	Endpoint string
	Username string
	Token    string
	Timeout  time.Duration
}

// NewHTTPClient builds a client with sane defaults applied.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		endpoint:    endpoint,
		username:    cfg.Username,
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: newRateLimiter(30, time.Minute),
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type libraryResponse struct {
	Data *struct {
		MediaListCollection *Library `json:"MediaListCollection"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// Library implements Client.
func (c *HTTPClient) Library(ctx context.Context) (*Library, error) {
	if c.username == "" {
		return nil, &ClientError{
			Code:    "INVALID_REQUEST",
			Message: "library fetch requires a username",
		}
	}

	if err := c.rateLimiter.wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(graphqlRequest{
		Query:     libraryQuery,
		Variables: map[string]any{"userName": c.username},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode library query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build library request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{Code: "NETWORK", Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Code: "NETWORK", Message: err.Error()}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ClientError{Code: "RATE_LIMITED", Message: "tracking service rate limit exceeded"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("tracking service returned status %d", resp.StatusCode),
		}
	}

	var parsed libraryResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &ClientError{Code: "MALFORMED", Message: "tracking service returned unparseable payload"}
	}
	if len(parsed.Errors) > 0 {
		return nil, &ClientError{Code: "API_ERROR", Message: parsed.Errors[0].Message}
	}
	if parsed.Data == nil || parsed.Data.MediaListCollection == nil {
		return nil, &ClientError{Code: "NOT_FOUND", Message: "no library returned for user"}
	}

	return parsed.Data.MediaListCollection, nil
}
