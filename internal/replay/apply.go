package replay

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"rangepool/internal/model"
	"rangepool/internal/pool"
)

// apply dispatches one journal operation to the engine and builds its event
// record. The engine guarantees rejected operations mutate nothing.
func (r *Runner) apply(op model.OpRecord) (*model.EventRecord, error) {
	caller, err := parseAddress(op.Caller)
	if err != nil {
		return nil, fmt.Errorf("caller: %w", err)
	}

	switch op.Kind {
	case model.OpCreatePool:
		return r.applyCreatePool(op)
	case model.OpMint:
		return r.applyMint(op, caller)
	case model.OpBurn:
		return r.applyBurn(op, caller)
	case model.OpCollect:
		return r.applyCollect(op, caller)
	case model.OpCollectReward:
		return r.applyCollectReward(op, caller)
	case model.OpSwap:
		return r.applySwap(op, caller)
	case model.OpDepositStream:
		return r.applyDepositStream(op, caller)
	default:
		return nil, fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

// fund tops the caller up to a floor balance in each of the pool's tokens.
// Top-up instead of a flat mint keeps repeated ops from growing balances
// without bound.
func (r *Runner) fund(p *pool.Pool, caller common.Address) {
	if r.bank == nil {
		return
	}
	imm := p.Immutables()
	tokens := []common.Address{imm.Token0, imm.Token1}
	if imm.RewardToken != (common.Address{}) {
		tokens = append(tokens, imm.RewardToken)
	}
	for _, tok := range tokens {
		bal := r.bank.BalanceOf(tok, caller)
		if bal.Cmp(fundFloor) < 0 {
			r.bank.Mint(tok, caller, new(big.Int).Sub(fundFloor, bal))
		}
	}
}

var fundFloor = new(big.Int).Lsh(big.NewInt(1), 160)

func (r *Runner) poolFor(op model.OpRecord) (*pool.Pool, error) {
	addr, err := parseAddress(op.Pool)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return r.factory.Pool(addr)
}

func (r *Runner) applyCreatePool(op model.OpRecord) (*model.EventRecord, error) {
	var params model.CreatePoolOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode create_pool params: %w", err)
	}
	data, err := hexutil.Decode(params.ParamsHex)
	if err != nil {
		return nil, fmt.Errorf("decode deploy tuple: %w", err)
	}

	p, err := r.factory.CreatePool(data, params.WithReward)
	if err != nil {
		return nil, err
	}

	imm := p.Immutables()
	eventData := model.PoolCreatedEventData{
		Token0:      imm.Token0.Hex(),
		Token1:      imm.Token1.Hex(),
		Fee:         imm.Fee,
		TickSpacing: imm.TickSpacing,
	}
	if imm.RewardToken != (common.Address{}) {
		eventData.RewardToken = imm.RewardToken.Hex()
	}
	return buildEvent(op, p.Address().Hex(), eventData)
}

func (r *Runner) applyMint(op model.OpRecord, caller common.Address) (*model.EventRecord, error) {
	var params model.MintOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode mint params: %w", err)
	}
	p, err := r.poolFor(op)
	if err != nil {
		return nil, err
	}
	r.fund(p, caller)

	amount0, err := parseBigInt(params.Amount0Desired)
	if err != nil {
		return nil, err
	}
	amount1, err := parseBigInt(params.Amount1Desired)
	if err != nil {
		return nil, err
	}
	var minLiquidity *big.Int
	if params.MinLiquidity != "" {
		if minLiquidity, err = parseBigInt(params.MinLiquidity); err != nil {
			return nil, err
		}
	}

	res, err := p.Mint(pool.MintParams{
		Caller:         caller,
		LowerHint:      params.LowerHint,
		Lower:          params.Lower,
		UpperHint:      params.UpperHint,
		Upper:          params.Upper,
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		MinLiquidity:   minLiquidity,
		PositionID:     params.PositionID,
	})
	if err != nil {
		return nil, err
	}

	return buildEvent(op, op.Pool, model.MintEventData{
		Owner:      caller.Hex(),
		Lower:      params.Lower,
		Upper:      params.Upper,
		Liquidity:  res.Liquidity.String(),
		Amount0:    res.Amount0.String(),
		Amount1:    res.Amount1.String(),
		PositionID: res.PositionID,
	})
}

func (r *Runner) applyBurn(op model.OpRecord, caller common.Address) (*model.EventRecord, error) {
	var params model.BurnOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode burn params: %w", err)
	}
	p, err := r.poolFor(op)
	if err != nil {
		return nil, err
	}

	liquidity, err := parseBigInt(params.Liquidity)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	min0, err := parseOptionalBigInt(params.MinAmount0)
	if err != nil {
		return nil, err
	}
	min1, err := parseOptionalBigInt(params.MinAmount1)
	if err != nil {
		return nil, err
	}

	amount0, amount1, err := p.Burn(caller, params.PositionID, liquidity, recipient, min0, min1, params.Unwrap)
	if err != nil {
		return nil, err
	}

	return buildEvent(op, op.Pool, model.BurnEventData{
		Owner:      caller.Hex(),
		Recipient:  recipient.Hex(),
		Liquidity:  liquidity.String(),
		Amount0:    amount0.String(),
		Amount1:    amount1.String(),
		PositionID: params.PositionID,
	})
}

func (r *Runner) applyCollect(op model.OpRecord, caller common.Address) (*model.EventRecord, error) {
	var params model.CollectOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode collect params: %w", err)
	}
	p, err := r.poolFor(op)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	amount0, amount1, err := p.Collect(caller, params.PositionID, recipient, params.Unwrap)
	if err != nil {
		return nil, err
	}

	return buildEvent(op, op.Pool, model.CollectEventData{
		Owner:      caller.Hex(),
		Recipient:  recipient.Hex(),
		Amount0:    amount0.String(),
		Amount1:    amount1.String(),
		PositionID: params.PositionID,
	})
}

func (r *Runner) applyCollectReward(op model.OpRecord, caller common.Address) (*model.EventRecord, error) {
	var params model.CollectOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode collect_reward params: %w", err)
	}
	p, err := r.poolFor(op)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	amount, err := p.CollectReward(caller, params.PositionID, recipient, params.Unwrap)
	if err != nil {
		return nil, err
	}

	return buildEvent(op, op.Pool, model.CollectEventData{
		Owner:      caller.Hex(),
		Recipient:  recipient.Hex(),
		Reward:     amount.String(),
		PositionID: params.PositionID,
	})
}

func (r *Runner) applySwap(op model.OpRecord, caller common.Address) (*model.EventRecord, error) {
	var params model.SwapOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode swap params: %w", err)
	}
	p, err := r.poolFor(op)
	if err != nil {
		return nil, err
	}
	r.fund(p, caller)

	tokenIn, err := parseAddress(params.TokenIn)
	if err != nil {
		return nil, fmt.Errorf("token_in: %w", err)
	}
	imm := p.Immutables()
	var zeroForOne bool
	switch tokenIn {
	case imm.Token0:
		zeroForOne = true
	case imm.Token1:
		zeroForOne = false
	default:
		return nil, fmt.Errorf("token %s not part of pool %s", tokenIn.Hex(), op.Pool)
	}

	amountSpecified, err := parseBigInt(params.AmountSpecified)
	if err != nil {
		return nil, err
	}
	limit, err := parseOptionalBigInt(params.SqrtPriceLimit)
	if err != nil {
		return nil, err
	}
	amountLimit, err := parseOptionalBigInt(params.AmountLimit)
	if err != nil {
		return nil, err
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	res, err := p.Swap(pool.SwapParams{
		Caller:          caller,
		Recipient:       recipient,
		ZeroForOne:      zeroForOne,
		AmountSpecified: amountSpecified,
		SqrtPriceLimit:  limit,
		AmountLimit:     amountLimit,
		Unwrap:          params.Unwrap,
	})
	if err != nil {
		return nil, err
	}

	return buildEvent(op, op.Pool, model.SwapEventData{
		Caller:       caller.Hex(),
		Recipient:    recipient.Hex(),
		ZeroForOne:   zeroForOne,
		AmountIn:     res.AmountIn.String(),
		AmountOut:    res.AmountOut.String(),
		SqrtPriceX96: res.SqrtPrice.String(),
		Tick:         res.Tick,
	})
}

func (r *Runner) applyDepositStream(op model.OpRecord, caller common.Address) (*model.EventRecord, error) {
	var params model.DepositStreamOp
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return nil, fmt.Errorf("decode deposit_stream params: %w", err)
	}
	p, err := r.poolFor(op)
	if err != nil {
		return nil, err
	}
	r.fund(p, caller)

	amount0, err := parseBigInt(params.Amount0)
	if err != nil {
		return nil, err
	}
	amount1, err := parseBigInt(params.Amount1)
	if err != nil {
		return nil, err
	}
	reward, err := parseBigInt(params.RewardAmount)
	if err != nil {
		return nil, err
	}

	if err := p.DepositAirdropAndReward(caller, amount0, amount1, reward, params.StartTime, params.Period); err != nil {
		return nil, err
	}

	return buildEvent(op, op.Pool, model.StreamEventData{
		Amount0:      params.Amount0,
		Amount1:      params.Amount1,
		RewardAmount: params.RewardAmount,
		StartTime:    params.StartTime,
		Period:       params.Period,
	})
}

func buildEvent(op model.OpRecord, poolAddr string, data interface{}) (*model.EventRecord, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return &model.EventRecord{
		Seq:       op.Seq,
		Timestamp: op.Timestamp,
		Pool:      poolAddr,
		Kind:      op.Kind,
		Data:      payload,
	}, nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address: %s", value)
	}
	return common.HexToAddress(value), nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func parseOptionalBigInt(value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	return parseBigInt(value)
}
