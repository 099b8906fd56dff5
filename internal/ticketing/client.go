package ticketing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/metrics"
)

const defaultBaseURL = "https://app.ticketmaster.com/discovery/v2"

// Sale status codes reported by the Discovery API.
const (
	StatusOnSale    = "onsale"
	StatusOffSale   = "offsale"
	StatusCancelled = "cancelled"
	StatusPostponed = "postponed"
)

var eventIDPattern = regexp.MustCompile(`/event/([A-Za-z0-9]+)`)

// ExtractEventID pulls the Discovery event id out of a ticket URL. Non
// Ticketmaster URLs yield an empty id.
func ExtractEventID(ticketURL string) string {
	if !strings.Contains(ticketURL, "ticketmaster.com") {
		return ""
	}
	m := eventIDPattern.FindStringSubmatch(ticketURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// Details is the subset of a Discovery event payload the site uses.
type Details struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Info  string `json:"info"`
	Note  string `json:"pleaseNote"`
	Dates struct {
		Status struct {
			Code string `json:"code"`
		} `json:"status"`
	} `json:"dates"`
	PriceRanges []PriceRange `json:"priceRanges"`
	Seatmap     struct {
		StaticURL string `json:"staticUrl"`
	} `json:"seatmap"`
}

// PriceRange is one pricing tier.
type PriceRange struct {
	Type     string  `json:"type"`
	Currency string  `json:"currency"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Status returns the sale status code, empty when the API omitted it.
func (d *Details) Status() string {
	return d.Dates.Status.Code
}

// PriceFrom returns the lowest minimum across price ranges, with its
// currency. ok is false when the payload carries no pricing.
func (d *Details) PriceFrom() (amount float64, currency string, ok bool) {
	for i, pr := range d.PriceRanges {
		if i == 0 || pr.Min < amount {
			amount = pr.Min
			currency = pr.Currency
			ok = true
		}
	}
	return amount, currency, ok
}

// Notes joins the info and pleaseNote fields, either of which may be empty.
func (d *Details) Notes() string {
	if d.Info != "" {
		return d.Info
	}
	return d.Note
}

// Client calls the Discovery API through the cache.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      Cache
	log        zerolog.Logger
}

// NewClient builds a client. The cache is required; use NewMemoryCache when
// no shared backend is configured.
func NewClient(apiKey string, cache Cache, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
		log:   log,
	}
}

// WithBaseURL points the client at a different host, used in tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// EventDetails fetches one event, serving from cache when fresh. Cache
// backend failures are logged and treated as misses.
func (c *Client) EventDetails(ctx context.Context, eventID string) (*Details, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	key := CacheKey(eventID)
	if cached, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("ticketing cache read failed")
	} else if ok {
		var details Details
		if err := json.Unmarshal(cached, &details); err == nil {
			metrics.TicketingLookups.WithLabelValues("hit").Inc()
			return &details, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding corrupt ticketing cache entry")
	}

	url := fmt.Sprintf("%s/events/%s.json?apikey=%s", c.baseURL, eventID, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TicketingLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ticketing lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.TicketingLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ticketing lookup: api key rejected")
	}
	if resp.StatusCode != http.StatusOK {
		metrics.TicketingLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ticketing lookup: unexpected status %d", resp.StatusCode)
	}

	var details Details
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("ticketing lookup: decode: %w", err)
	}

	metrics.TicketingLookups.WithLabelValues("miss").Inc()
	if buf, err := json.Marshal(&details); err == nil {
		if err := c.cache.Set(ctx, key, buf, CacheTTL); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("ticketing cache write failed")
		}
	}
	return &details, nil
}
