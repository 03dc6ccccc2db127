// Package cep resolves Brazilian postal codes to addresses via a
// ViaCEP-compatible HTTP API. Lookups only pre-fill delivery-address fields;
// failures are non-fatal to callers.
package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/salesdesk/order-engine/internal/domain/order"
)

// ErrNotFound is returned when the postal code does not resolve.
var ErrNotFound = errors.New("postal code not found")

// ErrInvalidCode is returned for a malformed postal code.
var ErrInvalidCode = errors.New("invalid postal code")

var codePattern = regexp.MustCompile(`^[0-9]{5}-?[0-9]{3}$`)

// Client is a ViaCEP-style postal code resolver.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL (e.g. https://viacep.com.br).
// Outbound requests are traced via otelhttp.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

type lookupResponse struct {
	CEP          string          `json:"cep"`
	Street       string          `json:"logradouro"`
	Neighborhood string          `json:"bairro"`
	City         string          `json:"localidade"`
	State        string          `json:"uf"`
	Erro         json.RawMessage `json:"erro"`
}

// Lookup resolves a postal code to an address. Returns ErrNotFound when the
// resolver does not know the code and ErrInvalidCode for malformed input.
func (c *Client) Lookup(ctx context.Context, code string) (*order.Address, error) {
	if !codePattern.MatchString(code) {
		return nil, ErrInvalidCode
	}

	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "lookup postal code")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidCode
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("postal code resolver returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	// ViaCEP reports unknown codes with an "erro" field on a 200 response.
	if len(out.Erro) > 0 {
		return nil, ErrNotFound
	}

	return &order.Address{
		PostalCode:   out.CEP,
		Street:       out.Street,
		Neighborhood: out.Neighborhood,
		City:         out.City,
		State:        out.State,
	}, nil
}
