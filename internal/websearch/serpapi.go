package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/ragchat/internal/logging"
)

const (
	// DefaultSerpAPIBaseURL is the public SerpAPI endpoint.
	DefaultSerpAPIBaseURL = "https://serpapi.com"
	serpAPITimeout        = 10 * time.Second
	maxResponseBytes      = 4 << 20
)

// serpResponseSchema describes the part of a SerpAPI response the client reads.
var serpResponseSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"properties": {
		"error": { "type": "string" },
		"organic_results": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title":   { "type": "string" },
					"snippet": { "type": "string" },
					"link":    { "type": "string" }
				}
			}
		}
	}
}`)

type serpResponse struct {
	Error          string   `json:"error"`
	OrganicResults []Result `json:"organic_results"`
}

// SerpAPI queries Google results through serpapi.com.
type SerpAPI struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewSerpAPI returns a client for baseURL, defaulting to serpapi.com.
func NewSerpAPI(apiKey, baseURL string) (*SerpAPI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultSerpAPIBaseURL
	}
	return &SerpAPI{
		client:  &http.Client{Timeout: serpAPITimeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// Search returns the first n organic results for query.
func (s *SerpAPI) Search(ctx context.Context, query string, n int) ([]Result, error) {
	if n <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(n))
	params.Set("hl", "en")
	endpoint := s.baseURL + "/search.json?" + params.Encode()

	logging.LogRequest("RAGCHAT->SEARCH", s.baseURL, "serpapi", map[string]string{"q": query, "num": strconv.Itoa(n), "api_key": s.apiKey})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("serpapi read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := validateSerpResponse(body); err != nil {
		return nil, err
	}
	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("serpapi decode: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", parsed.Error)
	}

	results := parsed.OrganicResults
	if len(results) > n {
		results = results[:n]
	}
	logging.LogRequest("SEARCH->RAGCHAT", s.baseURL, "serpapi", map[string]any{"results": len(results)})
	return results, nil
}

func validateSerpResponse(body []byte) error {
	result, err := gojsonschema.Validate(serpResponseSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("serpapi response is not JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("serpapi response failed validation: %s", strings.Join(errs, ", "))
}
