package factory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"rangepool/internal/pool"
	"rangepool/internal/token"
)

var (
	ErrPoolExists   = errors.New("pool already exists for parameters")
	ErrPoolNotFound = errors.New("pool not found")
)

// Factory creates and indexes pools, one per deploy-parameter tuple. Pool
// account addresses are derived from the encoded tuple so re-creation is
// deterministic.
type Factory struct {
	address  common.Address
	streamer common.Address
	bank     token.Ledger
	clock    pool.Clock
	logger   *zap.Logger

	pools map[common.Address]*pool.Pool
	byKey map[common.Hash]common.Address
}

// New builds a factory. streamer is the privileged stream depositor wired
// into every created pool.
func New(address, streamer common.Address, bank token.Ledger, clock pool.Clock, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		address:  address,
		streamer: streamer,
		bank:     bank,
		clock:    clock,
		logger:   logger,
		pools:    make(map[common.Address]*pool.Pool),
		byKey:    make(map[common.Hash]common.Address),
	}
}

// CreatePool decodes an ABI-encoded deploy tuple and instantiates the pool.
func (f *Factory) CreatePool(data []byte, withReward bool) (*pool.Pool, error) {
	params, err := DecodeDeployParams(data, withReward)
	if err != nil {
		return nil, err
	}

	key := crypto.Keccak256Hash(data)
	if addr, ok := f.byKey[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, addr.Hex())
	}
	addr := common.BytesToAddress(key[12:])

	p, err := pool.New(pool.Config{
		Token0:      params.Token0,
		Token1:      params.Token1,
		RewardToken: params.RewardToken,
		Fee:         params.Fee,
		TickSpacing: params.TickSpacing,
		SqrtPrice:   params.SqrtPrice,
	}, pool.Deps{
		Address:  addr,
		Factory:  f.address,
		Streamer: f.streamer,
		Bank:     f.bank,
		Clock:    f.clock,
		Logger:   f.logger,
	})
	if err != nil {
		return nil, err
	}

	f.pools[addr] = p
	f.byKey[key] = addr

	f.logger.Info("pool created",
		zap.String("pool", addr.Hex()),
		zap.String("token0", params.Token0.Hex()),
		zap.String("token1", params.Token1.Hex()),
		zap.Uint32("fee", params.Fee),
		zap.Int32("tick_spacing", params.TickSpacing),
		zap.Bool("with_reward", withReward),
	)
	return p, nil
}

// Create is a convenience wrapper that encodes params before creating.
func (f *Factory) Create(params DeployParams) (*pool.Pool, error) {
	data, err := EncodeDeployParams(params)
	if err != nil {
		return nil, err
	}
	return f.CreatePool(data, params.WithReward)
}

// Pool returns the pool registered at addr.
func (f *Factory) Pool(addr common.Address) (*pool.Pool, error) {
	p, ok := f.pools[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, addr.Hex())
	}
	return p, nil
}

// Pools lists every registered pool in address order.
func (f *Factory) Pools() []*pool.Pool {
	addrs := make([]common.Address, 0, len(f.pools))
	for addr := range f.pools {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Hex() < addrs[j].Hex()
	})
	out := make([]*pool.Pool, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, f.pools[addr])
	}
	return out
}
