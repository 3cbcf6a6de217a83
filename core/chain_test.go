package core_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"nftbridge/core"
	"nftbridge/core/events"
	"nftbridge/observability"
	"nftbridge/storage"
)

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) { r.events = append(r.events, evt) }

func (r *recordingEmitter) types() []string {
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.EventType())
	}
	return out
}

func newChain(t *testing.T, db storage.Database) (*core.Chain, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	chain, err := core.NewChain(db, core.ChainOptions{
		ChainID: big.NewInt(31337),
		Emitter: emitter,
		Metrics: observability.Ledger(),
	})
	require.NoError(t, err)
	return chain, emitter
}

func uriEvent(uri string) events.NFTBaseURISet {
	return events.NFTBaseURISet{Ledger: common.HexToAddress("0x01"), URI: uri}
}

func TestNewChainValidatesOptions(t *testing.T) {
	_, err := core.NewChain(nil, core.ChainOptions{ChainID: big.NewInt(1)})
	require.Error(t, err)
	_, err = core.NewChain(storage.NewMemDB(), core.ChainOptions{})
	require.ErrorIs(t, err, core.ErrInvalidChainID)
	_, err = core.NewChain(storage.NewMemDB(), core.ChainOptions{ChainID: big.NewInt(0)})
	require.ErrorIs(t, err, core.ErrInvalidChainID)

	chain, _ := newChain(t, storage.NewMemDB())
	id := chain.ChainID()
	id.SetInt64(5)
	require.Equal(t, big.NewInt(31337), chain.ChainID())
}

func TestAtomicEmitsOnlyCommittedEvents(t *testing.T) {
	chain, emitter := newChain(t, storage.NewMemDB())
	boom := errors.New("boom")

	err := chain.Atomic(func() error {
		chain.State().AddLog(uriEvent("outer"))
		inner := chain.Atomic(func() error {
			chain.State().AddLog(uriEvent("inner"))
			require.NoError(t, chain.State().KVPut([]byte("inner"), uint64(1)))
			return boom
		})
		require.ErrorIs(t, inner, boom)
		// Nothing is emitted before the outermost call commits.
		require.Empty(t, emitter.events)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []events.Event{uriEvent("outer")}, emitter.events)

	var value uint64
	ok, err := chain.State().KVGet([]byte("inner"), &value)
	require.NoError(t, err)
	require.False(t, ok)

	err = chain.Atomic(func() error {
		chain.State().AddLog(uriEvent("reverted"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Len(t, emitter.events, 1)
}

func TestExecuteRevertsFailedCalls(t *testing.T) {
	chain, emitter := newChain(t, storage.NewMemDB())
	boom := errors.New("boom")

	err := chain.Execute(context.Background(), "test.write", func() error {
		require.NoError(t, chain.State().KVPut([]byte("key"), uint64(7)))
		chain.State().AddLog(uriEvent("x"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, emitter.events)

	var value uint64
	ok, err := chain.State().KVGet([]byte("key"), &value)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, chain.Execute(context.Background(), "test.write", func() error {
		chain.State().AddLog(uriEvent("y"))
		return chain.State().KVPut([]byte("key"), uint64(7))
	}))
	ok, err = chain.State().KVGet([]byte("key"), &value)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), value)
	require.Equal(t, []string{"nft.base_uri.set"}, emitter.types())
}

func TestAtomicRecoversFromPanics(t *testing.T) {
	db := storage.NewMemDB()
	chain, emitter := newChain(t, db)

	require.PanicsWithValue(t, "hook exploded", func() {
		_ = chain.Atomic(func() error {
			require.NoError(t, chain.State().KVPut([]byte("outer"), uint64(1)))
			return chain.Atomic(func() error {
				require.NoError(t, chain.State().KVPut([]byte("half"), uint64(2)))
				chain.State().AddLog(uriEvent("lost"))
				panic("hook exploded")
			})
		})
	})

	require.NoError(t, chain.Atomic(func() error {
		chain.State().AddLog(uriEvent("kept"))
		return chain.State().KVPut([]byte("later"), uint64(3))
	}))
	require.Equal(t, []string{"nft.base_uri.set"}, emitter.types())

	reopened, _ := newChain(t, db)
	var value uint64
	ok, err := reopened.State().KVGet([]byte("later"), &value)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), value)
	for _, key := range []string{"outer", "half"} {
		ok, err = reopened.State().KVGet([]byte(key), &value)
		require.NoError(t, err)
		require.False(t, ok, key)
	}
}

func TestBlockHeightPersists(t *testing.T) {
	db := storage.NewMemDB()
	chain, _ := newChain(t, db)
	require.Equal(t, uint64(0), chain.BlockNumber())

	require.NoError(t, chain.Mine(3))
	require.Equal(t, uint64(3), chain.BlockNumber())
	require.Error(t, chain.SetBlockNumber(2))
	require.NoError(t, chain.SetBlockNumber(10))

	reopened, _ := newChain(t, db)
	require.Equal(t, uint64(10), reopened.BlockNumber())
}

func TestDeployDerivesCreateAddresses(t *testing.T) {
	chain, _ := newChain(t, storage.NewMemDB())
	deployer := common.HexToAddress("0xd1")

	first, err := chain.Deploy(deployer)
	require.NoError(t, err)
	second, err := chain.Deploy(deployer)
	require.NoError(t, err)
	require.Equal(t, crypto.CreateAddress(deployer, 0), first)
	require.Equal(t, crypto.CreateAddress(deployer, 1), second)

	require.NoError(t, chain.Register(first, struct{}{}))
	require.ErrorIs(t, chain.Register(first, struct{}{}), core.ErrAddressInUse)
	require.Error(t, chain.Register(second, nil))

	_, ok := chain.Resolve(first)
	require.True(t, ok)
	_, ok = chain.Resolve(second)
	require.False(t, ok)
}
