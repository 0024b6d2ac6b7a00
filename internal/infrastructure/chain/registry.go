package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"workpassport/internal/errs"
	"workpassport/internal/ports"
)

// ABI of the on-chain credential registry, read-only surface.
const registryABI = `[
  {
    "type": "function",
    "name": "getCredentialCount",
    "stateMutability": "view",
    "inputs": [{"name": "_worker", "type": "address"}],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "getCredential",
    "stateMutability": "view",
    "inputs": [
      {"name": "_worker", "type": "address"},
      {"name": "_index", "type": "uint256"}
    ],
    "outputs": [
      {"name": "hash", "type": "bytes32"},
      {"name": "issuer", "type": "address"},
      {"name": "timestamp", "type": "uint256"},
      {"name": "claimed", "type": "bool"}
    ]
  }
]`

type Config struct {
	RPCURL          string
	RegistryAddress string
}

// Registry reads the credential registry contract over JSON-RPC. All
// calls are eth_call against latest state; nothing here signs or sends
// transactions.
type Registry struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
}

var _ ports.CredentialRegistry = (*Registry)(nil)

func NewRegistry(ctx context.Context, cfg Config) (*Registry, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, errors.New("chain rpc url is required")
	}
	if !common.IsHexAddress(cfg.RegistryAddress) {
		return nil, fmt.Errorf("invalid registry address %q", cfg.RegistryAddress)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, errs.Wrap(err, "dial chain rpc")
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, errs.Wrap(err, "parse registry abi")
	}

	return &Registry{
		client:   client,
		abi:      parsed,
		contract: common.HexToAddress(cfg.RegistryAddress),
	}, nil
}

func (r *Registry) Close() {
	r.client.Close()
}

func (r *Registry) CredentialCount(ctx context.Context, workerAddress string) (uint64, error) {
	out, err := r.call(ctx, "getCredentialCount", common.HexToAddress(workerAddress))
	if err != nil {
		return 0, err
	}

	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", out[0])
	}
	return count.Uint64(), nil
}

func (r *Registry) CredentialAt(ctx context.Context, workerAddress string, index uint64) (ports.RegistryCredential, error) {
	out, err := r.call(ctx, "getCredential", common.HexToAddress(workerAddress), new(big.Int).SetUint64(index))
	if err != nil {
		return ports.RegistryCredential{}, err
	}
	if len(out) != 4 {
		return ports.RegistryCredential{}, fmt.Errorf("getCredential returned %d values", len(out))
	}

	hash, ok := out[0].([32]byte)
	if !ok {
		return ports.RegistryCredential{}, fmt.Errorf("unexpected hash type %T", out[0])
	}
	issuer, ok := out[1].(common.Address)
	if !ok {
		return ports.RegistryCredential{}, fmt.Errorf("unexpected issuer type %T", out[1])
	}
	timestamp, ok := out[2].(*big.Int)
	if !ok {
		return ports.RegistryCredential{}, fmt.Errorf("unexpected timestamp type %T", out[2])
	}
	revoked, ok := out[3].(bool)
	if !ok {
		return ports.RegistryCredential{}, fmt.Errorf("unexpected claimed flag type %T", out[3])
	}

	return ports.RegistryCredential{
		Hash:     hash,
		Issuer:   issuer.Hex(),
		IssuedAt: time.Unix(timestamp.Int64(), 0).UTC(),
		Revoked:  revoked,
	}, nil
}

func (r *Registry) call(ctx context.Context, method string, args ...any) ([]any, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, errs.Wrapf(err, "pack %s", method)
	}

	raw, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &r.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errs.Wrapf(err, "call %s", method)
	}

	out, err := r.abi.Unpack(method, raw)
	if err != nil {
		return nil, errs.Wrapf(err, "unpack %s", method)
	}
	return out, nil
}
