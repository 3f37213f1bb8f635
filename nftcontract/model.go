package nftcontract

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultGasLimit is the fixed gas ceiling for mint transactions.
const DefaultGasLimit = 500000

// defaultGasPrice is 0 for gas-free chains.
var defaultGasPrice = big.NewInt(0)

// ErrSignTx marks failures raised while signing a transaction.
var ErrSignTx = errors.New("failed to sign transaction")

// Config holds configuration for the NFT contract client.
type Config struct {
	// ContractAddress is the address of the deployed NFT contract.
	// Required and must be a valid hex address.
	ContractAddress string
	// ChainID is the chain the transactions are signed for.
	// Required and must be greater than 0.
	ChainID int64
	// GasPrice is the legacy gas price in wei. Defaults to 0.
	GasPrice *big.Int
	// GasLimit is the gas ceiling for transactions.
	// Defaults to DefaultGasLimit if not set.
	GasLimit uint64
	// Value is the amount of wei attached to mint calls. Defaults to 0.
	Value *big.Int
	// Artifact supplies the contract interface. Defaults to the embedded
	// OctopusFun artifact.
	Artifact *Artifact
}

// MintRequest contains the inputs of a single mintNFT call.
type MintRequest struct {
	// Recipient receives the token.
	Recipient common.Address
	// TokenURI points at the off-chain metadata. Passed through unmodified.
	TokenURI string
	// Nonce is the sender's transaction count.
	Nonce uint64
}

// Transaction is a signed raw transaction ready for broadcast.
type Transaction struct {
	// Tx is the signed transaction.
	Tx *types.Transaction
	// TxHex is the RLP-encoded transaction in hex, as sent by eth_sendRawTransaction.
	TxHex string
	// TxHash is the transaction identifier.
	TxHash string
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.ContractAddress) {
		return errors.New("contract address is required")
	}

	if c.ChainID <= 0 {
		return errors.New("chain ID must be greater than 0, it's required")
	}

	return nil
}

// Standardize sets default values for optional Config fields.
func (c *Config) Standardize() {
	if c.GasLimit == 0 {
		c.GasLimit = DefaultGasLimit
	}

	if c.GasPrice == nil {
		c.GasPrice = defaultGasPrice
	}

	if c.Value == nil {
		c.Value = big.NewInt(0)
	}
}
