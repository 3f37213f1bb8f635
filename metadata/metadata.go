// Package metadata fetches and checks the off-chain JSON a token URI points
// at. It is a preflight tool; the minting workflow never calls it and passes
// token URIs through untouched.
package metadata

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

//go:embed erc721_metadata.schema.json
var erc721SchemaJSON []byte

const (
	maxMetadataSize    = 1 << 20
	defaultTimeout     = 15 * time.Second
	DefaultConcurrency = 4
)

// Attribute is one trait entry of the metadata.
type Attribute struct {
	TraitType   string `json:"trait_type,omitempty"`
	DisplayType string `json:"display_type,omitempty"`
	Value       any    `json:"value"`
}

// Metadata is the ERC-721 metadata JSON.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// ValidationError lists the schema violations of a metadata document.
type ValidationError struct {
	URI      string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("metadata at %s is invalid: %s", e.URI, strings.Join(e.Problems, "; "))
}

// Fetcher retrieves and validates token metadata.
type Fetcher struct {
	client  *http.Client
	gateway string
	schema  *gojsonschema.Schema
}

// NewFetcher creates a Fetcher. gateway is the HTTP prefix ipfs:// URIs are
// rewritten to. client may be nil.
func NewFetcher(gateway string, client *http.Client) (*Fetcher, error) {
	if gateway == "" {
		return nil, errors.New("IPFS gateway is required")
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}

	if client == nil {
		client = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(erc721SchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata schema: %w", err)
	}

	return &Fetcher{client: client, gateway: gateway, schema: schema}, nil
}

// Resolve maps a token URI to the HTTP URL it is fetched from.
func (f *Fetcher) Resolve(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		path := strings.TrimPrefix(uri, "ipfs://")
		path = strings.TrimPrefix(path, "ipfs/")
		if path == "" {
			return "", fmt.Errorf("empty IPFS path in %q", uri)
		}
		return f.gateway + path, nil
	case strings.HasPrefix(uri, "https://"), strings.HasPrefix(uri, "http://"):
		return uri, nil
	case uri == "":
		return "", errors.New("token URI is empty")
	default:
		return "", fmt.Errorf("unsupported token URI scheme: %q", uri)
	}
}

// Fetch downloads the metadata behind uri and validates it.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Metadata, error) {
	target, err := f.Resolve(uri)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata request returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata body: %w", err)
	}
	if len(body) > maxMetadataSize {
		return nil, fmt.Errorf("metadata exceeds %d bytes", maxMetadataSize)
	}

	return f.Validate(uri, body)
}

// Validate checks raw metadata JSON against the ERC-721 metadata schema.
func (f *Fetcher) Validate(uri string, body []byte) (*Metadata, error) {
	result, err := f.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}

	if !result.Valid() {
		verr := &ValidationError{URI: uri}
		for _, desc := range result.Errors() {
			verr.Problems = append(verr.Problems, desc.String())
		}
		return nil, verr
	}

	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &md, nil
}

// Report is the outcome of checking one URI.
type Report struct {
	URI      string
	Metadata *Metadata
	Err      error
}

// VerifyAll checks uris concurrently, at most concurrency at a time.
// Per-URI failures are reported in the result; the returned error is only
// set when ctx ends first.
func (f *Fetcher) VerifyAll(ctx context.Context, uris []string, concurrency int) ([]Report, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	reports := make([]Report, len(uris))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, uri := range uris {
		g.Go(func() error {
			md, err := f.Fetch(ctx, uri)
			reports[i] = Report{URI: uri, Metadata: md, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return reports, ctx.Err()
}
