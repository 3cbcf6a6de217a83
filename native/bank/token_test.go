package bank_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftbridge/core"
	"nftbridge/core/state"
	"nftbridge/native/bank"
	nativecommon "nftbridge/native/common"
	"nftbridge/storage"
)

var (
	admin = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func deployToken(t *testing.T) (*core.Chain, *bank.Token) {
	t.Helper()
	chain, err := core.NewChain(storage.NewMemDB(), core.ChainOptions{ChainID: big.NewInt(31337)})
	require.NoError(t, err)
	addr, err := chain.Deploy(admin)
	require.NoError(t, err)
	token, err := bank.Deploy(chain, chain.State(), addr, state.TokenMetadata{Name: "Reward", Symbol: "RWD", Decimals: 18}, admin)
	require.NoError(t, err)
	require.NoError(t, chain.Register(addr, token))
	return chain, token
}

func TestMintRequiresAdmin(t *testing.T) {
	_, token := deployToken(t)

	err := token.Mint(alice, alice, big.NewInt(10))
	require.ErrorIs(t, err, nativecommon.ErrAccessDenied)

	require.NoError(t, token.Mint(admin, alice, big.NewInt(10)))
	bal, err := token.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Int64())
	supply, err := token.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, int64(10), supply.Int64())
}

func TestTransferInsufficientBalanceReverts(t *testing.T) {
	_, token := deployToken(t)
	require.NoError(t, token.Mint(admin, alice, big.NewInt(5)))

	err := token.Transfer(alice, bob, big.NewInt(6))
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)

	bal, err := token.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, int64(5), bal.Int64())

	require.NoError(t, token.Transfer(alice, bob, big.NewInt(5)))
	bal, err = token.BalanceOf(bob)
	require.NoError(t, err)
	require.Equal(t, int64(5), bal.Int64())
}

func TestTransferFromAllowance(t *testing.T) {
	_, token := deployToken(t)
	require.NoError(t, token.Mint(admin, alice, big.NewInt(100)))
	require.NoError(t, token.Approve(alice, bob, big.NewInt(30)))

	require.NoError(t, token.TransferFrom(bob, alice, bob, big.NewInt(20)))
	allowance, err := token.Allowance(alice, bob)
	require.NoError(t, err)
	require.Equal(t, int64(10), allowance.Int64())

	err = token.TransferFrom(bob, alice, bob, big.NewInt(11))
	require.True(t, errors.Is(err, bank.ErrInsufficientAllowance))
}

func TestUnlimitedAllowanceIsNotDecremented(t *testing.T) {
	_, token := deployToken(t)
	require.NoError(t, token.Mint(admin, alice, big.NewInt(100)))
	require.NoError(t, token.Approve(alice, bob, nativecommon.MaxUint256()))

	require.NoError(t, token.TransferFrom(bob, alice, bob, big.NewInt(60)))
	allowance, err := token.Allowance(alice, bob)
	require.NoError(t, err)
	require.Zero(t, allowance.Cmp(nativecommon.MaxUint256()))
}

func TestLoadRestoresMetadata(t *testing.T) {
	chain, token := deployToken(t)

	loaded, err := bank.Load(chain, chain.State(), token.Address())
	require.NoError(t, err)
	require.Equal(t, "RWD", loaded.Symbol())
	require.Equal(t, uint8(18), loaded.Decimals())

	_, err = bank.Load(chain, chain.State(), bob)
	require.ErrorIs(t, err, nativecommon.ErrNotFound)
}
