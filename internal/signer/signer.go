// Package signer isolates key custody from the rest of the system. The store
// persists custodial key material as an opaque hex blob; only this package
// turns it into a signing capability, so storage and signing can be replaced
// independently (e.g. with a hardware-backed signer) without touching the
// coordinator or ledger client.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs ledger transactions on behalf of one wallet.
type Signer interface {
	// Address returns the wallet address this signer controls
	Address() common.Address

	// SignTx signs a transaction for the given chain
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// keySigner is an in-process signer backed by a raw secp256k1 key.
type keySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromHex builds a signer from a hex-encoded private key, with or without the
// 0x prefix.
func FromHex(privHex string) (Signer, error) {
	privHex = strings.TrimPrefix(privHex, "0x")
	key, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &keySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *keySigner) Address() common.Address {
	return s.address
}

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// Wallet is a freshly generated custodial wallet. PrivateKeyHex is handed to
// the store exactly once, at account creation.
type Wallet struct {
	Address       string
	PrivateKeyHex string
}

// NewWallet generates a random wallet.
func NewWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	return &Wallet{
		Address:       crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKeyHex: "0x" + common.Bytes2Hex(crypto.FromECDSA(key)),
	}, nil
}
