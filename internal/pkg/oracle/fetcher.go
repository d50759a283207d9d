package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPFetcher queries a CoinGecko-compatible simple-price endpoint, e.g.
// https://api.coingecko.com/api/v3/simple/price. The response shape is
// {"<id>":{"usd":0.05}}; prices are decoded as json.Number and converted to
// big.Rat without ever passing through a float.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client

	// IDs maps token symbols to API identifiers ("LCX" -> "lcx"). Symbols
	// without a mapping use their lower-cased form.
	IDs map[string]string
}

// NewHTTPFetcher creates a fetcher for the given endpoint.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPFetcher) apiID(symbol string) string {
	if id, ok := f.IDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// FetchUSDPrice fetches a fresh USD price for the given symbol.
func (f *HTTPFetcher) FetchUSDPrice(ctx context.Context, symbol string) (*big.Rat, error) {
	id := f.apiID(symbol)

	reqURL := fmt.Sprintf("%s?ids=%s&vs_currencies=usd", f.BaseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]json.Number
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	quote, ok := payload[id]
	if !ok {
		return nil, fmt.Errorf("price response missing token %s", id)
	}
	usd, ok := quote["usd"]
	if !ok {
		return nil, fmt.Errorf("price response missing usd quote for %s", id)
	}

	price, ok := new(big.Rat).SetString(usd.String())
	if !ok {
		return nil, fmt.Errorf("invalid usd quote %q for %s", usd.String(), id)
	}
	return price, nil
}
