package nftcontract

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pilacorp/go-nft-sdk/blockchain"
	"github.com/pilacorp/go-nft-sdk/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract   = "0x55B0b498B2B0d001635ABD51dF428374c5D59d61"
	testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testTokenURI   = "https://gateway.pinata.cloud/ipfs/QmQxTqyrgpbLom65XWtXaCbRMZoCxwiiT3EByT2jWy5UQt"
)

func newTestContract(t *testing.T, caller *fakeCaller) *Contract {
	t.Helper()

	cfg := &Config{
		ContractAddress: testContract,
		ChainID:         3,
		GasPrice:        big.NewInt(2_000_000_000),
		Value:           big.NewInt(1),
	}

	var (
		c   *Contract
		err error
	)
	if caller == nil {
		c, err = NewContract(cfg, nil)
	} else {
		c, err = NewContract(cfg, caller)
	}
	require.NoError(t, err)
	return c
}

func TestDefaultArtifact(t *testing.T) {
	artifact, err := DefaultArtifact()
	require.NoError(t, err)

	assert.Equal(t, "OctopusFun", artifact.ContractName)
	assert.Equal(t, "contracts/OctopusFun.sol", artifact.SourceName)

	mint, ok := artifact.ABI.Methods["mintNFT"]
	require.True(t, ok)
	assert.Equal(t, "mintNFT(address,string)", mint.Sig)
	assert.Contains(t, artifact.ABI.Methods, "tokenURI")
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "OctopusFun.json")
	require.NoError(t, os.WriteFile(valid, defaultArtifactJSON, 0o600))

	noABI := filepath.Join(dir, "NoABI.json")
	require.NoError(t, os.WriteFile(noABI, []byte(`{"contractName":"NoABI"}`), 0o600))

	broken := filepath.Join(dir, "Broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"abi":`), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "embedded default", path: ""},
		{name: "from disk", path: valid},
		{name: "missing file", path: filepath.Join(dir, "missing.json"), wantErr: "error reading artifact file"},
		{name: "no abi", path: noABI, wantErr: "has no abi"},
		{name: "broken json", path: broken, wantErr: "failed to unmarshal artifact JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := LoadArtifact(tt.path)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, artifact.ABI.Methods, "mintNFT")
		})
	}
}

func TestNewContractValidation(t *testing.T) {
	noMint, err := ParseArtifact([]byte(`{"contractName":"Empty","abi":[]}`))
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "config is required"},
		{name: "bad address", cfg: &Config{ContractAddress: "0x1234", ChainID: 1}, wantErr: "contract address"},
		{name: "no chain id", cfg: &Config{ContractAddress: testContract}, wantErr: "chain ID"},
		{name: "artifact without mintNFT", cfg: &Config{ContractAddress: testContract, ChainID: 1, Artifact: noMint}, wantErr: "has no mintNFT method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContract(tt.cfg, nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStandardizeDefaults(t *testing.T) {
	cfg := &Config{ContractAddress: testContract, ChainID: 1}
	c, err := NewContract(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(DefaultGasLimit), c.GasLimit())
	assert.Equal(t, int64(0), c.Value().Int64())
	assert.Equal(t, int64(0), cfg.GasPrice.Int64())
}

func TestMintNFTData(t *testing.T) {
	c := newTestContract(t, nil)
	recipient := common.HexToAddress(testAddress)

	data, err := c.MintNFTData(recipient, testTokenURI)
	require.NoError(t, err)

	selector := crypto.Keccak256([]byte("mintNFT(address,string)"))[:4]
	assert.Equal(t, selector, data[:4])

	args, err := c.abi.Methods["mintNFT"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, recipient, args[0])
	assert.Equal(t, testTokenURI, args[1])

	again, err := c.MintNFTData(recipient, testTokenURI)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestMintNFTTx(t *testing.T) {
	c := newTestContract(t, nil)
	provider, err := signer.NewDefaultProvider(testPrivateKey)
	require.NoError(t, err)

	recipient := common.HexToAddress(testAddress)
	tx, err := c.MintNFTTx(context.Background(), &MintRequest{
		Recipient: recipient,
		TokenURI:  testTokenURI,
		Nonce:     42,
	}, provider)
	require.NoError(t, err)

	wantData, err := c.MintNFTData(recipient, testTokenURI)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), tx.Tx.Nonce())
	assert.Equal(t, uint64(DefaultGasLimit), tx.Tx.Gas())
	assert.Equal(t, int64(1), tx.Tx.Value().Int64())
	assert.Equal(t, int64(2_000_000_000), tx.Tx.GasPrice().Int64())
	assert.Equal(t, common.HexToAddress(testContract), *tx.Tx.To())
	assert.Equal(t, wantData, tx.Tx.Data())
	assert.Equal(t, uint8(types.LegacyTxType), tx.Tx.Type())

	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(3)), tx.Tx)
	require.NoError(t, err)
	assert.Equal(t, recipient, sender)

	decoded, err := blockchain.TxFromHex(tx.TxHex)
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash, decoded.Hash().Hex())
}

func TestMintNFTTxSignFailure(t *testing.T) {
	c := newTestContract(t, nil)
	boom := errors.New("key locked")

	_, err := c.MintNFTTx(context.Background(), &MintRequest{TokenURI: testTokenURI}, brokenSigner{err: boom})
	assert.ErrorIs(t, err, ErrSignTx)
	assert.ErrorIs(t, err, boom)

	_, err = c.MintNFTTx(context.Background(), &MintRequest{TokenURI: testTokenURI}, nil)
	assert.ErrorIs(t, err, ErrSignTx)

	_, err = c.MintNFTTx(context.Background(), nil, brokenSigner{err: boom})
	assert.Error(t, err)
}

func TestTokenURI(t *testing.T) {
	artifact, err := DefaultArtifact()
	require.NoError(t, err)

	out, err := artifact.ABI.Methods["tokenURI"].Outputs.Pack("ipfs://QmToken")
	require.NoError(t, err)

	caller := &fakeCaller{output: out}
	c := newTestContract(t, caller)

	uri, err := c.TokenURI(context.Background(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmToken", uri)

	require.NotNil(t, caller.lastCall.To)
	assert.Equal(t, common.HexToAddress(testContract), *caller.lastCall.To)
	wantInput, err := artifact.ABI.Pack("tokenURI", big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, wantInput, caller.lastCall.Data)

	_, err = c.TokenURI(context.Background(), big.NewInt(-1))
	assert.Error(t, err)

	caller.err = errors.New("execution reverted")
	_, err = c.TokenURI(context.Background(), big.NewInt(7))
	assert.ErrorContains(t, err, "execution reverted")
}

func TestTokenURIWithoutCaller(t *testing.T) {
	c := newTestContract(t, nil)
	_, err := c.TokenURI(context.Background(), big.NewInt(1))
	assert.ErrorContains(t, err, "RPC client is not initialized")
}

type brokenSigner struct {
	err error
}

func (b brokenSigner) Sign([]byte) ([]byte, error) { return nil, b.err }
func (b brokenSigner) GetAddress() string          { return strings.ToLower(testAddress) }

type fakeCaller struct {
	output   []byte
	err      error
	lastCall ethereum.CallMsg
}

func (f *fakeCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = call
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}
