package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const remoteSignerTimeout = 10 * time.Second

// RemoteProvider signs hashes through a remote signing API. The key material
// stays with the remote service; only the account address is known locally.
type RemoteProvider struct {
	endpoint string
	apiKey   string
	address  string
	client   *http.Client
}

// NewRemoteProvider creates a RemoteProvider for the given endpoint. address is
// the account the remote key controls.
func NewRemoteProvider(endpoint, apiKey, address string) (*RemoteProvider, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint required")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid signer address %q", address)
	}

	return &RemoteProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		address:  strings.ToLower(common.HexToAddress(address).Hex()),
		client: &http.Client{
			Timeout:   remoteSignerTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Sign signs a payload using the remote API. It is bounded only by the
// client timeout; use SignContext to make it cancellable.
func (s *RemoteProvider) Sign(payload []byte) ([]byte, error) {
	return s.SignContext(context.Background(), payload)
}

// SignContext is Sign with a caller supplied context.
func (s *RemoteProvider) SignContext(ctx context.Context, payload []byte) ([]byte, error) {
	if len(payload) != 32 {
		return nil, fmt.Errorf("payload must be 32 bytes, got %d", len(payload))
	}

	reqBody, err := json.Marshal(map[string]any{
		"payload_hex": hex.EncodeToString(payload),
		"address":     s.address,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote signer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote signer http %d", resp.StatusCode)
	}

	var out struct {
		SignatureHex string `json:"signature_hex"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode remote signer response: %w", err)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(out.SignatureHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}

	// go-ethereum expects a 0/1 recovery id.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	return sig, nil
}

// GetAddress returns the lower-cased hex address controlled by the remote key.
func (s *RemoteProvider) GetAddress() string {
	return s.address
}
