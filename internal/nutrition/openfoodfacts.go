// internal/nutrition/openfoodfacts.go
package nutrition

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"mcp-calorie-ledger/internal/models"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

// Lookup resolves a food name to per-100g nutrition facts. The boolean is
// false when no usable product exists; lookups never fail with an error,
// a miss is a miss regardless of cause.
type Lookup interface {
	Search(ctx context.Context, name string) (models.Facts, bool)
}

// OpenFoodFactsClient queries the Open Food Facts search API for the best
// matching product and its per-100g nutriment values.
type OpenFoodFactsClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewOpenFoodFactsClient() *OpenFoodFactsClient {
	baseURL := os.Getenv("OFF_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenFoodFactsClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   baseURL,
		userAgent: "mcp-calorie-ledger/1.0 (CalorieTrackerBot)",
	}
}

type searchResponse struct {
	Products []struct {
		Nutriments map[string]any `json:"nutriments"`
	} `json:"products"`
}

// Search issues one time-bounded request for name. Network failures,
// non-2xx statuses, malformed bodies and empty result sets all collapse to
// a "not found" result; no retries are attempted.
func (c *OpenFoodFactsClient) Search(ctx context.Context, name string) (models.Facts, bool) {
	params := url.Values{}
	params.Set("search_terms", name)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", "1")

	reqURL := c.baseURL + "/cgi/search.pl?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Printf("[WARN] openfoodfacts: failed to build request for %q: %v", name, err)
		return models.Facts{}, false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[WARN] openfoodfacts: request for %q failed: %v", name, err)
		return models.Facts{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[WARN] openfoodfacts: search for %q returned status %d", name, resp.StatusCode)
		return models.Facts{}, false
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("[WARN] openfoodfacts: failed to decode response for %q: %v", name, err)
		return models.Facts{}, false
	}

	if len(parsed.Products) == 0 {
		return models.Facts{}, false
	}

	nutr := parsed.Products[0].Nutriments
	return models.Facts{
		Kcal100g:    nutr["energy-kcal_100g"],
		Protein100g: nutr["proteins_100g"],
		Fat100g:     nutr["fat_100g"],
		Carbs100g:   nutr["carbohydrates_100g"],
	}, true
}
