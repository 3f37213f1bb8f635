// Package nftcontract provides functionality for interacting with the
// OctopusFun ERC-721 contract.
//
// This package handles:
//   - Loading the contract interface from a compiled Hardhat artifact
//   - Encoding mintNFT calls
//   - Building and signing mint transactions
//   - Reading token URIs back from the contract
//
// Transactions are returned signed but are never broadcast here.
package nftcontract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pilacorp/go-nft-sdk/blockchain"
	"github.com/pilacorp/go-nft-sdk/signer"
)

const (
	methodMintNFT  = "mintNFT"
	methodTokenURI = "tokenURI"
)

// Contract is a client for the NFT contract.
//
// The caller is optional. Without one, TokenURI fails but transaction
// creation still works.
type Contract struct {
	contract *bind.BoundContract
	abi      abi.ABI
	address  common.Address
	caller   bind.ContractCaller
	cfg      *Config
}

// NewContract creates a new Contract client.
//
// The config must contain a valid contract address and chain ID. caller is
// used for read operations and may be nil.
func NewContract(cfg *Config, caller bind.ContractCaller) (*Contract, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Standardize()

	artifact := cfg.Artifact
	if artifact == nil {
		var err error
		if artifact, err = DefaultArtifact(); err != nil {
			return nil, err
		}
	}
	if _, ok := artifact.ABI.Methods[methodMintNFT]; !ok {
		return nil, fmt.Errorf("artifact %q has no %s method", artifact.ContractName, methodMintNFT)
	}

	addr := common.HexToAddress(cfg.ContractAddress)

	return &Contract{
		contract: bind.NewBoundContract(addr, artifact.ABI, caller, nil, nil),
		abi:      artifact.ABI,
		address:  addr,
		caller:   caller,
		cfg:      cfg,
	}, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// GasLimit returns the fixed gas ceiling applied to every mint transaction.
func (c *Contract) GasLimit() uint64 {
	return c.cfg.GasLimit
}

// Value returns the wei attached to every mint transaction.
func (c *Contract) Value() *big.Int {
	return new(big.Int).Set(c.cfg.Value)
}

// MintNFTData returns the ABI-encoded call data of mintNFT(recipient, tokenURI).
func (c *Contract) MintNFTData(recipient common.Address, tokenURI string) ([]byte, error) {
	data, err := c.abi.Pack(methodMintNFT, recipient, tokenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", methodMintNFT, err)
	}
	return data, nil
}

// MintNFTTx creates a signed raw transaction calling mintNFT.
//
// The token URI is passed through unmodified. Signing failures wrap ErrSignTx.
func (c *Contract) MintNFTTx(ctx context.Context, req *MintRequest, txSigner signer.SignerProvider) (*Transaction, error) {
	if req == nil {
		return nil, errors.New("mint request is required")
	}
	if txSigner == nil {
		return nil, fmt.Errorf("%w: tx signer is required", ErrSignTx)
	}

	auth := c.getTransactOpts(ctx, txSigner, req.Nonce)

	tx, err := c.contract.Transact(auth, methodMintNFT, req.Recipient, req.TokenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s Tx: %w", methodMintNFT, err)
	}

	raw, err := blockchain.SerializeTx(tx)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Tx:     tx,
		TxHex:  raw.TxHex,
		TxHash: raw.TxHash,
	}, nil
}

// TokenURI reads the metadata URI of a minted token.
func (c *Contract) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return "", errors.New("token ID must be a non-negative integer")
	}

	if c.caller == nil {
		return "", fmt.Errorf("RPC client is not initialized, please check RPC URL and try again")
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodTokenURI, tokenID)
	if err != nil {
		return "", fmt.Errorf("contract call failed: %w", err)
	}

	if len(out) == 0 {
		return "", errors.New("contract returned no data")
	}

	uri, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected output type: %T", out[0])
	}

	return uri, nil
}

// getTransactOpts creates transaction authorization options for signing.
// The options never hit the network: nonce, gas price and gas limit are all
// fixed and NoSend is set.
func (c *Contract) getTransactOpts(ctx context.Context, provider signer.SignerProvider, nonce uint64) *bind.TransactOpts {
	sign := signer.TxSignerFn(ctx, big.NewInt(c.cfg.ChainID), provider)
	signerFn := func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		signed, err := sign(addr, tx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSignTx, err)
		}
		return signed, nil
	}

	return &bind.TransactOpts{
		From:     common.HexToAddress(provider.GetAddress()),
		Nonce:    new(big.Int).SetUint64(nonce),
		Value:    new(big.Int).Set(c.cfg.Value),
		GasLimit: c.cfg.GasLimit,
		GasPrice: new(big.Int).Set(c.cfg.GasPrice),
		Context:  ctx,
		Signer:   signerFn,
		NoSend:   true,
	}
}
