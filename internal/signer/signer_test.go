package signer_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
)

func TestNewWallet(t *testing.T) {
	w, err := signer.NewWallet()
	require.NoError(t, err)

	assert.True(t, common.IsHexAddress(w.Address))
	assert.Len(t, w.PrivateKeyHex, 2+64)

	// The key must deterministically reproduce the same address.
	s, err := signer.FromHex(w.PrivateKeyHex)
	require.NoError(t, err)
	assert.Equal(t, w.Address, s.Address().Hex())
}

func TestFromHex_AcceptsUnprefixedKeys(t *testing.T) {
	w, err := signer.NewWallet()
	require.NoError(t, err)

	s, err := signer.FromHex(w.PrivateKeyHex[2:])
	require.NoError(t, err)
	assert.Equal(t, w.Address, s.Address().Hex())
}

func TestFromHex_RejectsGarbage(t *testing.T) {
	_, err := signer.FromHex("not-a-key")
	assert.Error(t, err)
}

func TestSignTx(t *testing.T) {
	w, err := signer.NewWallet()
	require.NoError(t, err)
	s, err := signer.FromHex(w.PrivateKeyHex)
	require.NoError(t, err)

	chainID := big.NewInt(1337)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTransaction(0, to, big.NewInt(0), 60000, big.NewInt(1), nil)

	signed, err := s.SignTx(tx, chainID)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), from)
}
