package feeds

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"tc.com/rate-oracle/pkg/oracle"
)

// ERC-4626 ABI (only convertToAssets).
const vaultABIJSON = `[
	{
		"inputs": [{"internalType": "uint256", "name": "shares", "type": "uint256"}],
		"name": "convertToAssets",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// ERC4626Vault converts vault shares to underlying asset units via the
// vault's convertToAssets view.
type ERC4626Vault struct {
	caller  ethereum.ContractCaller
	address common.Address
	abi     abi.ABI
}

var _ oracle.ShareConverter = (*ERC4626Vault)(nil)

// NewERC4626Vault creates a converter bound to the vault at addrHex.
func NewERC4626Vault(caller ethereum.ContractCaller, addrHex string) (*ERC4626Vault, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w", ErrCallerRequired)
	}
	if addrHex == "" {
		return nil, fmt.Errorf("%w", ErrAddressRequired)
	}
	if !common.IsHexAddress(addrHex) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addrHex)
	}

	parsed, err := abi.JSON(strings.NewReader(vaultABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault ABI: %w", err)
	}

	return &ERC4626Vault{
		caller:  caller,
		address: common.HexToAddress(addrHex),
		abi:     parsed,
	}, nil
}

// Address returns the vault contract address.
func (v *ERC4626Vault) Address() common.Address {
	return v.address
}

// ConvertToAssets returns how many underlying asset units correspond to the
// given number of shares at the vault's current exchange rate.
func (v *ERC4626Vault) ConvertToAssets(ctx context.Context, shares *big.Int) (*big.Int, error) {
	result, err := callContract(ctx, v.caller, v.address, v.abi, "convertToAssets", shares)
	if err != nil {
		return nil, err
	}

	values, err := v.abi.Unpack("convertToAssets", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack convertToAssets: %w", err)
	}
	assets, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: assets is %T", ErrEmptyResult, values[0])
	}

	return assets, nil
}
