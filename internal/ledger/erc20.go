// Package ledger wraps the externally deployed ReliefCoin ERC-20 contract.
// The chain is the single source of truth for balances; this client only
// submits operations and replays the contract's Transfer log. It never writes
// anything off-chain.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
)

// transferEventSignature is keccak256("Transfer(address,address,uint256)"),
// shared by every ERC-20 contract.
var transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// Client is the ledger capability the coordinator and reconciler depend on.
// Mint and Transfer block until the submitted transaction is confirmed or the
// bounded confirmation wait elapses.
type Client interface {
	// Mint creates amount units at toAddress, authorized by the owner key.
	// Returns the confirmed transaction hash.
	Mint(ctx context.Context, toAddress string, amt amount.Amount) (string, error)

	// Transfer moves amount units from the signer's wallet to toAddress.
	// Returns the confirmed transaction hash.
	Transfer(ctx context.Context, from signer.Signer, toAddress string, amt amount.Amount) (string, error)

	// BalanceOf returns the point-in-time balance of an address
	BalanceOf(ctx context.Context, address string) (amount.Amount, error)

	// TransferEvents replays the contract's Transfer log for a block range,
	// ordered by block number then log index
	TransferEvents(ctx context.Context, fromBlock, toBlock uint64) ([]domain.TransferEvent, error)

	// HeadBlock returns the latest block number
	HeadBlock(ctx context.Context) (uint64, error)

	// Close closes the node connection
	Close()
}

// Config holds the contract binding and confirmation policy.
type Config struct {
	ContractAddress string
	GasLimit        uint64
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
}

type erc20Client struct {
	client   adapter.EthClient
	clock    adapter.Clock
	owner    signer.Signer
	contract common.Address
	abi      abi.ABI
	cfg      Config
}

// NewERC20Client creates a ledger client bound to the deployed contract. The
// owner signer holds mint authority.
func NewERC20Client(client adapter.EthClient, owner signer.Signer, clock adapter.Clock, cfg Config) (Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	if cfg.GasLimit == 0 {
		cfg.GasLimit = 120000
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 90 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}

	return &erc20Client{
		client:   client,
		clock:    clock,
		owner:    owner,
		contract: common.HexToAddress(cfg.ContractAddress),
		abi:      parsed,
		cfg:      cfg,
	}, nil
}

// Mint creates amount units at toAddress, authorized by the owner key
func (c *erc20Client) Mint(ctx context.Context, toAddress string, amt amount.Amount) (string, error) {
	if !common.IsHexAddress(toAddress) {
		return "", fmt.Errorf("%w: invalid address %q", domain.ErrInvalidRequest, toAddress)
	}

	data, err := c.abi.Pack("mint", common.HexToAddress(toAddress), amt.Base())
	if err != nil {
		return "", fmt.Errorf("failed to pack mint call: %w", err)
	}

	return c.submit(ctx, c.owner, data)
}

// Transfer moves amount units from the signer's wallet to toAddress
func (c *erc20Client) Transfer(ctx context.Context, from signer.Signer, toAddress string, amt amount.Amount) (string, error) {
	if !common.IsHexAddress(toAddress) {
		return "", fmt.Errorf("%w: invalid address %q", domain.ErrInvalidRequest, toAddress)
	}

	// Pre-check the sender balance so an obviously doomed transfer fails
	// before consuming a nonce. The contract still enforces this; races lose
	// at submission and map to the same error.
	balance, err := c.BalanceOf(ctx, from.Address().Hex())
	if err != nil {
		return "", err
	}
	if balance.Cmp(amt) < 0 {
		return "", fmt.Errorf("%w: balance %s, need %s", domain.ErrInsufficientBalance, balance, amt)
	}

	data, err := c.abi.Pack("transfer", common.HexToAddress(toAddress), amt.Base())
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer call: %w", err)
	}

	return c.submit(ctx, from, data)
}

// submit signs, sends and waits for inclusion of one contract call
func (c *erc20Client) submit(ctx context.Context, s signer.Signer, data []byte) (string, error) {
	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	nonce, err := c.client.PendingNonceAt(ctx, s.Address())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), c.cfg.GasLimit, gasPrice, data)
	signed, err := s.SignTx(tx, chainID)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	txHash := signed.Hash().Hex()
	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return "", classifySubmitError(err)
	}

	logger.Debug("ledger transaction submitted",
		zap.String("tx_hash", txHash),
		zap.String("from", s.Address().Hex()))

	if err := c.waitMined(ctx, signed.Hash()); err != nil {
		// The hash travels with the timeout so callers can reconcile the
		// unknown outcome against the transfer log.
		return txHash, err
	}

	return txHash, nil
}

// waitMined polls for the receipt until inclusion or the bounded wait elapses
func (c *erc20Client) waitMined(ctx context.Context, txHash common.Hash) error {
	deadline := c.clock.Now().Add(c.cfg.ConfirmTimeout)

	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("%w: tx %s reverted", domain.ErrLedgerRejected, txHash.Hex())
			}
			return nil
		case errors.Is(err, ethereum.NotFound):
			// still pending
		default:
			return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
		}

		if c.clock.Now().After(deadline) {
			return fmt.Errorf("%w: tx %s unconfirmed after %s", domain.ErrLedgerTimeout, txHash.Hex(), c.cfg.ConfirmTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrLedgerTimeout, ctx.Err())
		case <-c.clock.After(c.cfg.PollInterval):
		}
	}
}

// BalanceOf returns the point-in-time balance of an address
func (c *erc20Client) BalanceOf(ctx context.Context, address string) (amount.Amount, error) {
	if !common.IsHexAddress(address) {
		return amount.Amount{}, fmt.Errorf("%w: invalid address %q", domain.ErrInvalidRequest, address)
	}

	data, err := c.abi.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return amount.Amount{}, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	var balance *big.Int
	if err := c.abi.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return amount.Amount{}, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}

	return amount.FromBase(balance), nil
}

// TransferEvents replays the contract's Transfer log for a block range
func (c *erc20Client) TransferEvents(ctx context.Context, fromBlock, toBlock uint64) ([]domain.TransferEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{transferEventSignature}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}

	events := make([]domain.TransferEvent, 0, len(logs))
	for _, vLog := range logs {
		// ERC-20 Transfer(address indexed from, address indexed to, uint256 value):
		// 3 topics with the value in data. Anything else under the same
		// signature (ERC-721 has 4 topics) is not ours.
		if len(vLog.Topics) != 3 {
			logger.Warn("skipping non-ERC20 transfer log",
				zap.Int("topics", len(vLog.Topics)),
				zap.String("tx_hash", vLog.TxHash.Hex()))
			continue
		}
		if len(vLog.Data) < 32 {
			logger.Warn("skipping transfer log with short data",
				zap.String("tx_hash", vLog.TxHash.Hex()))
			continue
		}

		events = append(events, domain.TransferEvent{
			TxHash:      vLog.TxHash.Hex(),
			From:        common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
			To:          common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
			Amount:      new(big.Int).SetBytes(vLog.Data[0:32]),
			BlockNumber: vLog.BlockNumber,
			LogIndex:    vLog.Index,
		})
	}

	return events, nil
}

// HeadBlock returns the latest block number
func (c *erc20Client) HeadBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the node connection
func (c *erc20Client) Close() {
	c.client.Close()
}

// classifySubmitError maps node submission errors onto the domain taxonomy
func classifySubmitError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", domain.ErrInsufficientBalance, err)
	case strings.Contains(msg, "revert") || strings.Contains(msg, "always failing"):
		return fmt.Errorf("%w: %v", domain.ErrLedgerRejected, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
	}
}
