// Package minter runs the one-shot NFT minting workflow: fetch the nonce,
// encode mintNFT, sign, broadcast, report.
package minter

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pilacorp/go-nft-sdk/logger"
	"github.com/pilacorp/go-nft-sdk/nftcontract"
	"github.com/pilacorp/go-nft-sdk/signer"
	"go.uber.org/zap"
)

// Failure classes of a mint attempt. None of them is retried.
var (
	ErrNonce  = errors.New("failed to fetch nonce")
	ErrSign   = errors.New("failed to sign transaction")
	ErrSubmit = errors.New("failed to submit transaction")
)

// Backend is the part of the JSON-RPC client the workflow uses.
// *ethclient.Client satisfies it.
type Backend interface {
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	ChainID(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Options configures a Minter.
type Options struct {
	Backend Backend
	Signer  signer.SignerProvider
	// Recipient receives minted tokens. Defaults to the signer's address.
	Recipient string
	// Contract settings. ChainID and GasPrice are asked from the backend
	// when zero/nil.
	ContractAddress string
	ChainID         int64
	GasLimit        uint64
	GasPrice        *big.Int
	Value           *big.Int
	Artifact        *nftcontract.Artifact
	Logger          *zap.Logger
}

// Descriptor is the transaction as assembled before signing.
type Descriptor struct {
	From     common.Address
	To       common.Address
	Nonce    uint64
	GasLimit uint64
	Data     []byte
	Value    *big.Int
}

// Result reports a broadcast transaction.
type Result struct {
	TxHash     string
	RawTx      string
	Descriptor Descriptor
}

// Minter submits mintNFT transactions. It holds no state between calls.
type Minter struct {
	backend   Backend
	signer    signer.SignerProvider
	contract  *nftcontract.Contract
	from      common.Address
	recipient common.Address
	log       *zap.Logger
}

// New builds a Minter. Missing chain ID and gas price are fetched from the
// backend here, once, so that Mint itself does a single read and a single
// write.
func New(ctx context.Context, opts Options) (*Minter, error) {
	if opts.Backend == nil {
		return nil, errors.New("backend is required")
	}
	if opts.Signer == nil {
		return nil, fmt.Errorf("%w: signer is required", ErrSign)
	}

	log := logger.OrNop(opts.Logger)

	chainID := opts.ChainID
	if chainID == 0 {
		id, err := opts.Backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain ID: %w", err)
		}
		chainID = id.Int64()
		log.Debug("chain ID fetched from node", zap.Int64("chain_id", chainID))
	}

	gasPrice := opts.GasPrice
	if gasPrice == nil {
		p, err := opts.Backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch gas price: %w", err)
		}
		gasPrice = p
		log.Debug("gas price suggested by node", zap.Stringer("gas_price", gasPrice))
	}

	contract, err := nftcontract.NewContract(&nftcontract.Config{
		ContractAddress: opts.ContractAddress,
		ChainID:         chainID,
		GasPrice:        gasPrice,
		GasLimit:        opts.GasLimit,
		Value:           opts.Value,
		Artifact:        opts.Artifact,
	}, nil)
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(opts.Signer.GetAddress())
	recipient := from
	if opts.Recipient != "" {
		if !common.IsHexAddress(opts.Recipient) {
			return nil, fmt.Errorf("invalid recipient address %q", opts.Recipient)
		}
		recipient = common.HexToAddress(opts.Recipient)
	}

	return &Minter{
		backend:   opts.Backend,
		signer:    opts.Signer,
		contract:  contract,
		from:      from,
		recipient: recipient,
		log:       log.With(zap.String("contract", contract.Address().Hex())),
	}, nil
}

// Mint makes exactly one submission attempt for tokenURI.
//
// The nonce is read fresh on every call. On success the transaction hash is
// logged; on failure the error is logged and returned wrapped in ErrNonce,
// ErrSign or ErrSubmit. Inclusion is not awaited.
func (m *Minter) Mint(ctx context.Context, tokenURI string) (*Result, error) {
	res, err := m.mint(ctx, tokenURI)
	if err != nil {
		m.log.Error("mint transaction failed", zap.String("token_uri", tokenURI), zap.Error(err))
		return nil, err
	}

	m.log.Info("mint transaction submitted",
		zap.String("tx_hash", res.TxHash),
		zap.Uint64("nonce", res.Descriptor.Nonce),
		zap.String("token_uri", tokenURI),
	)
	return res, nil
}

func (m *Minter) mint(ctx context.Context, tokenURI string) (*Result, error) {
	nonce, err := m.backend.NonceAt(ctx, m.from, nil)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrNonce, m.from.Hex(), err)
	}

	data, err := m.contract.MintNFTData(m.recipient, tokenURI)
	if err != nil {
		return nil, err
	}

	desc := Descriptor{
		From:     m.from,
		To:       m.contract.Address(),
		Nonce:    nonce,
		GasLimit: m.contract.GasLimit(),
		Data:     data,
		Value:    m.contract.Value(),
	}

	tx, err := m.contract.MintNFTTx(ctx, &nftcontract.MintRequest{
		Recipient: m.recipient,
		TokenURI:  tokenURI,
		Nonce:     nonce,
	}, m.signer)
	if err != nil {
		if errors.Is(err, nftcontract.ErrSignTx) {
			return nil, fmt.Errorf("%w: %w", ErrSign, err)
		}
		return nil, err
	}

	if err := m.backend.SendTransaction(ctx, tx.Tx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmit, err)
	}

	return &Result{
		TxHash:     tx.TxHash,
		RawTx:      tx.TxHex,
		Descriptor: desc,
	}, nil
}
