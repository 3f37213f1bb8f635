// Package blockchain wraps the JSON-RPC connection and the transaction wire
// format shared by the contract and minting packages.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNoRPCURL is returned by Dial when no endpoint is configured.
var ErrNoRPCURL = errors.New("RPC URL is required")

// Dial connects to a JSON-RPC endpoint. HTTP endpoints go through an
// otelhttp-instrumented transport; websocket and IPC endpoints are dialed
// as-is by the rpc package.
//
// No request timeout is set: a hung provider blocks until ctx is done.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	if rawURL == "" {
		return nil, ErrNoRPCURL
	}

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	c, err := rpc.DialOptions(ctx, rawURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC %s: %w", rawURL, err)
	}

	return ethclient.NewClient(c), nil
}
