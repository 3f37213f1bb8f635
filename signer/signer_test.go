package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pilacorp/go-nft-sdk/blockchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestNewDefaultProvider(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
		errIs   error
	}{
		{name: "with 0x prefix", key: testPrivateKey},
		{name: "without prefix", key: strings.TrimPrefix(testPrivateKey, "0x")},
		{name: "surrounding whitespace", key: " " + testPrivateKey + "\n"},
		{name: "empty", key: "", wantErr: true, errIs: blockchain.ErrEmptyPrivateKey},
		{name: "blank", key: "  ", wantErr: true, errIs: blockchain.ErrEmptyPrivateKey},
		{name: "not hex", key: "0x" + strings.Repeat("z", 64), wantErr: true},
		{name: "short", key: "0x1234", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewDefaultProvider(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(testAddress), p.GetAddress())
		})
	}
}

func TestDefaultProviderSign(t *testing.T) {
	p, err := NewDefaultProvider(testPrivateKey)
	require.NoError(t, err)

	hash := crypto.Keccak256([]byte("mintNFT"))
	sig, err := p.Sign(hash)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), crypto.PubkeyToAddress(*pub))

	_, err = p.Sign([]byte("short"))
	assert.Error(t, err)
}

func TestDefaultProviderPublicKey(t *testing.T) {
	p, err := NewDefaultProvider(testPrivateKey)
	require.NoError(t, err)

	priv, err := crypto.HexToECDSA(strings.TrimPrefix(testPrivateKey, "0x"))
	require.NoError(t, err)

	pub := p.PublicKey()
	assert.Len(t, pub, 33)
	assert.Equal(t, crypto.CompressPubkey(&priv.PublicKey), pub)
}

func TestTxSignerFn(t *testing.T) {
	p, err := NewDefaultProvider(testPrivateKey)
	require.NoError(t, err)

	chainID := big.NewInt(3)
	to := common.HexToAddress("0x55B0b498B2B0d001635ABD51dF428374c5D59d61")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    7,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      500000,
		GasPrice: big.NewInt(1),
	})

	t.Run("signs for the provider address", func(t *testing.T) {
		signed, err := TxSignerFn(context.Background(), chainID, p)(common.HexToAddress(testAddress), tx)
		require.NoError(t, err)

		sender, err := types.Sender(types.NewEIP155Signer(chainID), signed)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testAddress), sender)
		assert.Equal(t, chainID.Int64(), signed.ChainId().Int64())
	})

	t.Run("rejects a different sender", func(t *testing.T) {
		other := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
		_, err := TxSignerFn(context.Background(), chainID, p)(other, tx)
		assert.ErrorContains(t, err, "signer address mismatch")
	})

	t.Run("propagates provider errors", func(t *testing.T) {
		boom := errors.New("hsm offline")
		_, err := TxSignerFn(context.Background(), chainID, failingProvider{err: boom})(common.HexToAddress(testAddress), tx)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRemoteProvider(t *testing.T) {
	local, err := NewDefaultProvider(testPrivateKey)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		var req struct {
			PayloadHex string `json:"payload_hex"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		payload, err := hex.DecodeString(req.PayloadHex)
		require.NoError(t, err)

		sig, err := local.Sign(payload)
		require.NoError(t, err)
		sig[64] += 27

		_ = json.NewEncoder(w).Encode(map[string]string{"signature_hex": "0x" + hex.EncodeToString(sig)})
	}))
	defer srv.Close()

	remote, err := NewRemoteProvider(srv.URL, "secret", testAddress)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(testAddress), remote.GetAddress())

	hash := crypto.Keccak256([]byte("payload"))
	sig, err := remote.Sign(hash)
	require.NoError(t, err)
	assert.Less(t, sig[64], byte(27))

	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), crypto.PubkeyToAddress(*pub))

	_, err = remote.Sign([]byte("not a hash"))
	assert.Error(t, err)
}

func TestRemoteProviderErrors(t *testing.T) {
	_, err := NewRemoteProvider("", "", testAddress)
	assert.Error(t, err)

	_, err = NewRemoteProvider("http://localhost", "", "nope")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	remote, err := NewRemoteProvider(srv.URL, "", testAddress)
	require.NoError(t, err)

	_, err = remote.Sign(crypto.Keccak256([]byte("x")))
	assert.ErrorContains(t, err, "http 403")
}

func TestTxSignerFnCancelsRemoteSigning(t *testing.T) {
	reached := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(reached)
		<-r.Context().Done()
	}))
	defer srv.Close()

	remote, err := NewRemoteProvider(srv.URL, "", testAddress)
	require.NoError(t, err)

	to := common.HexToAddress("0x55B0b498B2B0d001635ABD51dF428374c5D59d61")
	tx := types.NewTx(&types.LegacyTx{Nonce: 1, To: &to, Gas: 500000, GasPrice: big.NewInt(1)})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-reached
		cancel()
	}()

	start := time.Now()
	_, err = TxSignerFn(ctx, big.NewInt(3), remote)(common.HexToAddress(testAddress), tx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), remoteSignerTimeout)
}

type failingProvider struct {
	err error
}

func (f failingProvider) Sign([]byte) ([]byte, error) { return nil, f.err }
func (f failingProvider) GetAddress() string          { return strings.ToLower(testAddress) }
