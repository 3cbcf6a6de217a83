package nft_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	nativecommon "nftbridge/native/common"
	"nftbridge/native/nft"
)

func TestMintChargesExactFee(t *testing.T) {
	f := newFixture(t)
	sig := f.sign(t, f.alice, 1337, 0)
	before := f.nativeBalance(t, f.alice)

	for _, paid := range []*big.Int{
		nil,
		new(big.Int).Sub(mintFee, big.NewInt(1)),
		new(big.Int).Add(mintFee, big.NewInt(1)),
	} {
		err := f.ledger.Mint(nativecommon.Call{Sender: f.alice, Value: paid}, big.NewInt(1337), big.NewInt(0), sig)
		require.ErrorIs(t, err, nft.ErrFeeMismatch)
		require.ErrorIs(t, err, nativecommon.ErrFeeMismatch)
	}
	require.Equal(t, before, f.nativeBalance(t, f.alice))

	require.NoError(t, f.ledger.Mint(nativecommon.Call{Sender: f.alice, Value: mintFee}, big.NewInt(1337), big.NewInt(0), sig))
	owner, err := f.ledger.OwnerOf(big.NewInt(1337))
	require.NoError(t, err)
	require.Equal(t, f.alice, owner)
	require.Equal(t, new(big.Int).Sub(before, mintFee), f.nativeBalance(t, f.alice))
	require.Equal(t, mintFee, f.nativeBalance(t, f.ledger.Address()))

	uri, err := f.ledger.TokenURI(big.NewInt(1337))
	require.NoError(t, err)
	require.Equal(t, baseTokenURI+"1337", uri)
}

func TestMinterAccountMintsWithoutFee(t *testing.T) {
	f := newFixture(t)
	sig := f.sign(t, f.minterAccount, 5, 0)
	require.NoError(t, f.ledger.Mint(nativecommon.Call{Sender: f.minterAccount}, big.NewInt(5), big.NewInt(0), sig))

	// Any attached value is accepted and kept.
	sig = f.sign(t, f.minterAccount, 6, 0)
	require.NoError(t, f.ledger.Mint(nativecommon.Call{Sender: f.minterAccount, Value: big.NewInt(3)}, big.NewInt(6), big.NewInt(0), sig))
	require.Equal(t, big.NewInt(3), f.nativeBalance(t, f.ledger.Address()))
}

func TestMintRequiresAuthorizationForCaller(t *testing.T) {
	f := newFixture(t)
	sig := f.sign(t, f.alice, 9, 0)

	// bob replays alice's authorization: the recovered signer is not a minter.
	err := f.ledger.Mint(nativecommon.Call{Sender: f.bob, Value: mintFee}, big.NewInt(9), big.NewInt(0), sig)
	require.ErrorIs(t, err, nativecommon.ErrAccessDenied)
	require.EqualError(t, err, "nft: must have minter role")

	// Relaying the same authorization to its named recipient is accepted.
	require.NoError(t, f.ledger.MintTo(nativecommon.Call{Sender: f.bob, Value: mintFee}, f.alice, big.NewInt(9), big.NewInt(0), sig))
	owner, err := f.ledger.OwnerOf(big.NewInt(9))
	require.NoError(t, err)
	require.Equal(t, f.alice, owner)

	// Extra is part of the signed message.
	sig = f.sign(t, f.alice, 10, 1)
	err = f.ledger.Mint(nativecommon.Call{Sender: f.alice, Value: mintFee}, big.NewInt(10), big.NewInt(2), sig)
	require.ErrorIs(t, err, nativecommon.ErrAccessDenied)
}

func TestMintRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1)

	sig := f.sign(t, f.alice, 1, 0)
	err := f.ledger.Mint(nativecommon.Call{Sender: f.alice, Value: mintFee}, big.NewInt(1), big.NewInt(0), sig)
	require.ErrorIs(t, err, nft.ErrTokenExists)
	require.ErrorIs(t, err, nativecommon.ErrAlreadyExists)

	balance, err := f.ledger.BalanceOf(f.alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1), balance)
	require.Equal(t, mintFee, f.nativeBalance(t, f.ledger.Address()))
}

func TestBurnAllowsRemint(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 4)

	require.ErrorIs(t, f.ledger.Burn(f.bob, big.NewInt(4)), nativecommon.ErrAccessDenied)
	require.NoError(t, f.ledger.Burn(f.alice, big.NewInt(4)))

	exists, err := f.ledger.Exists(big.NewInt(4))
	require.NoError(t, err)
	require.False(t, exists)
	_, err = f.ledger.TokenURI(big.NewInt(4))
	require.ErrorIs(t, err, nft.ErrTokenNotFound)

	balance, err := f.ledger.BalanceOf(f.alice)
	require.NoError(t, err)
	require.Zero(t, balance)

	f.mint(t, f.bob, 4)
	owner, err := f.ledger.OwnerOf(big.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, f.bob, owner)

	balance, err = f.ledger.BalanceOf(f.bob)
	require.NoError(t, err)
	require.Equal(t, uint64(1), balance)
	balance, err = f.ledger.BalanceOf(f.alice)
	require.NoError(t, err)
	require.Zero(t, balance)

	uri, err := f.ledger.TokenURI(big.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, "https://lmgtfy.app/?q=4", uri)
}

func TestTokenURIWithoutBase(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 12)

	require.ErrorIs(t, f.ledger.SetBaseTokenURI(f.alice, ""), nativecommon.ErrAccessDenied)
	require.NoError(t, f.ledger.SetBaseTokenURI(f.deployer, ""))
	uri, err := f.ledger.TokenURI(big.NewInt(12))
	require.NoError(t, err)
	require.Empty(t, uri)

	_, err = f.ledger.TokenURI(big.NewInt(13))
	require.ErrorIs(t, err, nativecommon.ErrNotFound)
}

func TestSetMintFee(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.ledger.SetMintFee(f.alice, big.NewInt(1)), nativecommon.ErrAccessDenied)
	require.ErrorIs(t, f.ledger.SetMintFee(f.deployer, big.NewInt(-1)), nativecommon.ErrInvalidParameters)
	require.NoError(t, f.ledger.SetMintFee(f.deployer, big.NewInt(0)))

	sig := f.sign(t, f.alice, 2, 0)
	require.NoError(t, f.ledger.Mint(nativecommon.Call{Sender: f.alice}, big.NewInt(2), big.NewInt(0), sig))
}

func TestApprovalsAndTransfers(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1)
	f.mint(t, f.alice, 2)
	id := big.NewInt(1)

	require.ErrorIs(t, f.ledger.TransferFrom(f.bob, f.alice, f.bob, id), nativecommon.ErrAccessDenied)
	require.ErrorIs(t, f.ledger.Approve(f.alice, f.alice, id), nft.ErrApproveToOwner)
	require.ErrorIs(t, f.ledger.Approve(f.bob, f.bob, id), nativecommon.ErrAccessDenied)

	require.NoError(t, f.ledger.Approve(f.alice, f.bob, id))
	approved, err := f.ledger.GetApproved(id)
	require.NoError(t, err)
	require.Equal(t, f.bob, approved)

	require.ErrorIs(t, f.ledger.TransferFrom(f.bob, f.bob, f.bob, id), nft.ErrTransferFromWrong)
	require.ErrorIs(t, f.ledger.TransferFrom(f.bob, f.alice, common.Address{}, id), nft.ErrZeroAddress)
	require.NoError(t, f.ledger.TransferFrom(f.bob, f.alice, f.bob, id))

	approved, err = f.ledger.GetApproved(id)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, approved)

	require.NoError(t, f.ledger.SetApprovalForAll(f.alice, f.bob, true))
	operator, err := f.ledger.IsApprovedForAll(f.alice, f.bob)
	require.NoError(t, err)
	require.True(t, operator)
	require.NoError(t, f.ledger.TransferFrom(f.bob, f.alice, f.bob, big.NewInt(2)))

	aliceBalance, err := f.ledger.BalanceOf(f.alice)
	require.NoError(t, err)
	bobBalance, err := f.ledger.BalanceOf(f.bob)
	require.NoError(t, err)
	require.Equal(t, uint64(0), aliceBalance)
	require.Equal(t, uint64(2), bobBalance)

	_, err = f.ledger.BalanceOf(common.Address{})
	require.ErrorIs(t, err, nft.ErrZeroAddress)
}

func TestSafeTransferChecksReceiver(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1)

	rejecting := account(0xe0)
	accepting := account(0xe1)
	plain := account(0xe2)
	require.NoError(t, f.chain.Register(rejecting, receiverContract{accept: false}))
	require.NoError(t, f.chain.Register(accepting, receiverContract{accept: true}))
	require.NoError(t, f.chain.Register(plain, struct{}{}))

	id := big.NewInt(1)
	require.ErrorIs(t, f.ledger.SafeTransferFrom(f.alice, f.alice, rejecting, id, nil), nft.ErrReceiverRejected)
	require.ErrorIs(t, f.ledger.SafeTransferFrom(f.alice, f.alice, plain, id, nil), nft.ErrReceiverRejected)

	owner, err := f.ledger.OwnerOf(id)
	require.NoError(t, err)
	require.Equal(t, f.alice, owner)

	require.NoError(t, f.ledger.SafeTransferFrom(f.alice, f.alice, accepting, id, []byte("hello")))
	owner, err = f.ledger.OwnerOf(id)
	require.NoError(t, err)
	require.Equal(t, accepting, owner)

	// Externally owned accounts need no acknowledgement.
	f.mint(t, f.alice, 2)
	require.NoError(t, f.ledger.SafeTransferFrom(f.alice, f.alice, f.bob, big.NewInt(2), nil))
}

func TestWithdrawFees(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1)
	f.mint(t, f.bob, 2)

	_, err := f.ledger.WithdrawFees(f.alice)
	require.ErrorIs(t, err, nativecommon.ErrAccessDenied)
	require.EqualError(t, err, "nft: must have withdraw role")

	amount, err := f.ledger.WithdrawFees(f.withdrawer)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(mintFee, big.NewInt(2)), amount)
	require.Equal(t, amount, f.nativeBalance(t, f.withdrawer))
	require.Zero(t, f.nativeBalance(t, f.ledger.Address()).Sign())

	amount, err = f.ledger.WithdrawFees(f.withdrawer)
	require.NoError(t, err)
	require.Zero(t, amount.Sign())
}

func TestMintHookObservesMintedToken(t *testing.T) {
	f := newFixture(t)
	hookAddr := account(0xf0)
	hook := &recordingHook{ledger: f.ledger.Ledger}
	require.NoError(t, f.chain.Register(hookAddr, hook))

	require.ErrorIs(t, f.ledger.SetOnMint(f.alice, hookAddr), nativecommon.ErrAccessDenied)
	require.NoError(t, f.ledger.SetOnMint(f.deployer, hookAddr))

	sig := f.sign(t, f.alice, 21, 8)
	require.NoError(t, f.ledger.MintTo(nativecommon.Call{Sender: f.bob, Value: mintFee}, f.alice, big.NewInt(21), big.NewInt(8), sig))

	require.Len(t, hook.mints, 1)
	got := hook.mints[0]
	require.Equal(t, f.ledger.Address(), got.caller)
	require.Equal(t, f.bob, got.operator)
	require.Equal(t, f.alice, got.to)
	require.Equal(t, big.NewInt(21), got.tokenID)
	require.Equal(t, big.NewInt(8), got.extra)
	require.Equal(t, f.alice, got.ownerSeen)

	extra, err := f.ledger.ExtraOf(big.NewInt(21))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(8), extra)
}

func TestFailingMintHookRevertsMint(t *testing.T) {
	f := newFixture(t)
	hookAddr := account(0xf0)
	boom := errors.New("hook exploded")
	hook := &recordingHook{ledger: f.ledger.Ledger, fail: boom}
	require.NoError(t, f.chain.Register(hookAddr, hook))
	require.NoError(t, f.ledger.SetOnMint(f.deployer, hookAddr))
	before := f.nativeBalance(t, f.alice)

	sig := f.sign(t, f.alice, 3, 0)
	err := f.ledger.Mint(nativecommon.Call{Sender: f.alice, Value: mintFee}, big.NewInt(3), big.NewInt(0), sig)
	require.ErrorIs(t, err, boom)

	exists, err := f.ledger.Exists(big.NewInt(3))
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, before, f.nativeBalance(t, f.alice))
	require.Zero(t, f.nativeBalance(t, f.ledger.Address()).Sign())
}

func TestHookReceiverMustImplementHook(t *testing.T) {
	f := newFixture(t)
	missing := account(0xf1)
	wrongKind := account(0xf2)
	require.NoError(t, f.chain.Register(wrongKind, receiverContract{accept: true}))

	for _, receiver := range []common.Address{missing, wrongKind} {
		require.NoError(t, f.ledger.SetOnMint(f.deployer, receiver))
		sig := f.sign(t, f.alice, 1, 0)
		err := f.ledger.Mint(nativecommon.Call{Sender: f.alice, Value: mintFee}, big.NewInt(1), big.NewInt(0), sig)
		require.ErrorIs(t, err, nft.ErrHookUnavailable)
	}
}

func TestBurnAndTransferHooks(t *testing.T) {
	f := newFixture(t)
	hookAddr := account(0xf0)
	hook := &recordingHook{ledger: f.ledger.Ledger}
	require.NoError(t, f.chain.Register(hookAddr, hook))
	require.NoError(t, f.ledger.SetOnBurn(f.deployer, hookAddr))
	require.NoError(t, f.ledger.SetOnTransfer(f.deployer, hookAddr))

	f.mint(t, f.alice, 1)
	require.NoError(t, f.ledger.TransferFrom(f.alice, f.alice, f.bob, big.NewInt(1)))
	require.Equal(t, []transferNotice{{from: f.alice, to: f.bob, tokenID: big.NewInt(1)}}, hook.transfers)

	require.NoError(t, f.ledger.Burn(f.bob, big.NewInt(1)))
	require.Equal(t, []*big.Int{big.NewInt(1)}, hook.burns)

	// Withdrawals never notify hooks.
	f.mint(t, f.alice, 2)
	require.NoError(t, f.ledger.Withdraw(f.alice, big.NewInt(2)))
	require.Len(t, hook.burns, 1)

	hook.fail = errors.New("refused")
	f.mint(t, f.alice, 3)
	require.Error(t, f.ledger.TransferFrom(f.alice, f.alice, f.bob, big.NewInt(3)))
	owner, err := f.ledger.OwnerOf(big.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, f.alice, owner)
}
