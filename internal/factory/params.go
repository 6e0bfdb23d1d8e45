package factory

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DeployParams is the pool creation tuple. Its ABI encoding is fixed by the
// external factory collaborator and must round-trip bit-for-bit:
// (token0, token1, [rewardToken,] fee uint24, initialSqrtPrice uint160,
// tickSpacing uint24).
type DeployParams struct {
	Token0      common.Address
	Token1      common.Address
	RewardToken common.Address // only encoded when WithReward
	Fee         uint32
	SqrtPrice   *big.Int
	TickSpacing int32
	WithReward  bool
}

var (
	argsOnce       sync.Once
	argsErr        error
	plainArgs      abi.Arguments
	withRewardArgs abi.Arguments
)

func deployArgs(withReward bool) (abi.Arguments, error) {
	argsOnce.Do(func() {
		addressT, err := abi.NewType("address", "", nil)
		if err != nil {
			argsErr = err
			return
		}
		uint24T, err := abi.NewType("uint24", "", nil)
		if err != nil {
			argsErr = err
			return
		}
		uint160T, err := abi.NewType("uint160", "", nil)
		if err != nil {
			argsErr = err
			return
		}

		plainArgs = abi.Arguments{
			{Name: "token0", Type: addressT},
			{Name: "token1", Type: addressT},
			{Name: "fee", Type: uint24T},
			{Name: "initialSqrtPrice", Type: uint160T},
			{Name: "tickSpacing", Type: uint24T},
		}
		withRewardArgs = abi.Arguments{
			{Name: "token0", Type: addressT},
			{Name: "token1", Type: addressT},
			{Name: "rewardToken", Type: addressT},
			{Name: "fee", Type: uint24T},
			{Name: "initialSqrtPrice", Type: uint160T},
			{Name: "tickSpacing", Type: uint24T},
		}
	})
	if argsErr != nil {
		return nil, argsErr
	}
	if withReward {
		return withRewardArgs, nil
	}
	return plainArgs, nil
}

// EncodeDeployParams packs the tuple into its canonical ABI form.
func EncodeDeployParams(p DeployParams) ([]byte, error) {
	args, err := deployArgs(p.WithReward)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).SetUint64(uint64(p.Fee))
	spacing := new(big.Int).SetInt64(int64(p.TickSpacing))
	if p.WithReward {
		return args.Pack(p.Token0, p.Token1, p.RewardToken, fee, p.SqrtPrice, spacing)
	}
	return args.Pack(p.Token0, p.Token1, fee, p.SqrtPrice, spacing)
}

// DecodeDeployParams unpacks a deploy tuple. withReward selects the layout;
// the two differ in length so a mismatch fails to unpack.
func DecodeDeployParams(data []byte, withReward bool) (DeployParams, error) {
	args, err := deployArgs(withReward)
	if err != nil {
		return DeployParams{}, err
	}
	values, err := args.Unpack(data)
	if err != nil {
		return DeployParams{}, fmt.Errorf("unpack deploy params: %w", err)
	}

	p := DeployParams{WithReward: withReward}
	i := 0
	p.Token0 = values[i].(common.Address)
	i++
	p.Token1 = values[i].(common.Address)
	i++
	if withReward {
		p.RewardToken = values[i].(common.Address)
		i++
	}
	p.Fee = uint32(values[i].(*big.Int).Uint64())
	i++
	p.SqrtPrice = values[i].(*big.Int)
	i++
	p.TickSpacing = int32(values[i].(*big.Int).Int64())

	if bytes.Compare(p.Token0.Bytes(), p.Token1.Bytes()) >= 0 {
		return DeployParams{}, fmt.Errorf("tokens must be distinct and sorted: %s >= %s", p.Token0.Hex(), p.Token1.Hex())
	}
	return p, nil
}
