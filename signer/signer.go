// Package signer holds the credentials used to authorise mint transactions.
//
// A SignerProvider signs 32-byte hashes and reports the account address it
// signs for. The private key never leaves the provider.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pilacorp/go-nft-sdk/blockchain"
)

// SignerProvider is the interface for the signer provider.
type SignerProvider interface {
	Sign(payload []byte) ([]byte, error)
	GetAddress() string
}

// ContextSigner is implemented by providers whose signing does I/O and can
// be cancelled.
type ContextSigner interface {
	SignContext(ctx context.Context, payload []byte) ([]byte, error)
}

// DefaultProvider is the default signer provider.
type DefaultProvider struct {
	priv *ecdsa.PrivateKey
}

// NewDefaultProvider creates a new default signer provider.
//
// privHex is the private key in hex format, with or without the 0x prefix.
// Returns the signer provider or an error if the private key is invalid.
func NewDefaultProvider(privHex string) (*DefaultProvider, error) {
	priv, err := blockchain.ParsePrivateKey(privHex)
	if err != nil {
		return nil, err
	}
	return &DefaultProvider{priv: priv}, nil
}

// Sign signs the payload.
//
// hashPayload is the hash of the payload to sign.
// Returns the signature or an error if the signature is invalid.
func (s *DefaultProvider) Sign(hashPayload []byte) ([]byte, error) {
	signature, err := crypto.Sign(hashPayload, s.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	if len(signature) != 65 {
		return nil, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(signature))
	}

	return signature, nil
}

// GetAddress returns the lower-cased hex address of the signer.
func (s *DefaultProvider) GetAddress() string {
	return strings.ToLower(blockchain.AddressFromKey(s.priv).Hex())
}

// PublicKey returns the 33-byte compressed secp256k1 public key.
func (s *DefaultProvider) PublicKey() []byte {
	priv := secp256k1.PrivKeyFromBytes(crypto.FromECDSA(s.priv))
	defer priv.Zero()

	return priv.PubKey().SerializeCompressed()
}
