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

// Chainlink AggregatorV3 ABI (only the functions the oracle reads).
const aggregatorABIJSON = `[
	{
		"inputs": [],
		"name": "latestRoundData",
		"outputs": [
			{"internalType": "uint80", "name": "roundId", "type": "uint80"},
			{"internalType": "int256", "name": "answer", "type": "int256"},
			{"internalType": "uint256", "name": "startedAt", "type": "uint256"},
			{"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
			{"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// ChainlinkFeed reads prices from a Chainlink AggregatorV3 contract.
type ChainlinkFeed struct {
	caller  ethereum.ContractCaller
	address common.Address
	abi     abi.ABI
}

var _ oracle.PriceFeed = (*ChainlinkFeed)(nil)

// NewChainlinkFeed creates a feed bound to the aggregator at addrHex.
func NewChainlinkFeed(caller ethereum.ContractCaller, addrHex string) (*ChainlinkFeed, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w", ErrCallerRequired)
	}
	if addrHex == "" {
		return nil, fmt.Errorf("%w", ErrAddressRequired)
	}
	if !common.IsHexAddress(addrHex) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addrHex)
	}

	parsed, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aggregator ABI: %w", err)
	}

	return &ChainlinkFeed{
		caller:  caller,
		address: common.HexToAddress(addrHex),
		abi:     parsed,
	}, nil
}

// Address returns the aggregator contract address.
func (f *ChainlinkFeed) Address() common.Address {
	return f.address
}

// LatestPrice returns the answer of the latest round. Sign validation is
// left to the oracle core.
func (f *ChainlinkFeed) LatestPrice(ctx context.Context) (*big.Int, error) {
	result, err := callContract(ctx, f.caller, f.address, f.abi, "latestRoundData")
	if err != nil {
		return nil, err
	}

	var round struct {
		RoundId         *big.Int
		Answer          *big.Int
		StartedAt       *big.Int
		UpdatedAt       *big.Int
		AnsweredInRound *big.Int
	}
	if err := f.abi.UnpackIntoInterface(&round, "latestRoundData", result); err != nil {
		return nil, fmt.Errorf("failed to unpack latestRoundData: %w", err)
	}

	return round.Answer, nil
}

// Decimals returns the fractional digit count declared by the aggregator.
func (f *ChainlinkFeed) Decimals(ctx context.Context) (uint8, error) {
	result, err := callContract(ctx, f.caller, f.address, f.abi, "decimals")
	if err != nil {
		return 0, err
	}

	values, err := f.abi.Unpack("decimals", result)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack decimals: %w", err)
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: decimals is %T", ErrEmptyResult, values[0])
	}

	return decimals, nil
}

// callContract packs a zero-argument view call, executes it against the
// latest block and returns the raw result.
func callContract(ctx context.Context, caller ethereum.ContractCaller, addr common.Address, parsed abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := caller.CallContract(ctx, ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}, nil) // nil = latest block
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}

	return result, nil
}
