package signer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxSignerFn creates a bind.SignerFn using a generic SignerProvider.
// It hashes the transaction with EIP-155 and signs it via the provider. The
// signed transaction must recover to the requested sender. Providers that
// implement ContextSigner are called with ctx.
func TxSignerFn(ctx context.Context, chainID *big.Int, s SignerProvider) bind.SignerFn {
	return func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
		eip155Signer := types.NewEIP155Signer(chainID)
		h := eip155Signer.Hash(tx)

		var (
			sig []byte
			err error
		)
		if cs, ok := s.(ContextSigner); ok {
			sig, err = cs.SignContext(ctx, h.Bytes())
		} else {
			sig, err = s.Sign(h.Bytes())
		}
		if err != nil {
			return nil, err
		}

		signed, err := tx.WithSignature(eip155Signer, sig)
		if err != nil {
			return nil, err
		}

		sender, err := types.Sender(eip155Signer, signed)
		if err != nil {
			return nil, fmt.Errorf("failed to recover sender: %w", err)
		}
		if sender != address {
			return nil, fmt.Errorf("signer address mismatch: signed by %s, expected %s", sender.Hex(), address.Hex())
		}

		return signed, nil
	}
}
