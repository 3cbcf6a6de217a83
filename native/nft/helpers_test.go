package nft_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftbridge/core"
	nbcrypto "nftbridge/crypto"
	nativecommon "nftbridge/native/common"
	"nftbridge/native/nft"
	"nftbridge/storage"
)

const baseTokenURI = "https://lmgtfy.app/?q="

var (
	testChainID = big.NewInt(31337)
	mintFee     = big.NewInt(1_000_000)
)

type fixture struct {
	chain      *core.Chain
	deployment *core.Deployment
	ledger     *nft.ChildLedger

	minterKey     *nbcrypto.PrivateKey
	deployer      common.Address
	minterAccount common.Address
	withdrawer    common.Address
	depositor     common.Address
	alice         common.Address
	bob           common.Address
}

func account(b byte) common.Address {
	return common.BytesToAddress([]byte{0xac, b})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := nbcrypto.GeneratePrivateKey()
	require.NoError(t, err)

	f := &fixture{
		minterKey:     key,
		deployer:      account(0x01),
		minterAccount: account(0x02),
		withdrawer:    account(0x03),
		depositor:     account(0x04),
		alice:         account(0x05),
		bob:           account(0x06),
	}
	f.chain, err = core.NewChain(storage.NewMemDB(), core.ChainOptions{ChainID: testChainID})
	require.NoError(t, err)
	f.deployment, err = core.Deploy(f.chain, f.deployer, core.DeployConfig{
		Variant:     nft.VariantChild,
		NFT:         nft.Config{BaseTokenURI: baseTokenURI, MintFee: mintFee},
		Minters:     []common.Address{key.Address(), f.minterAccount},
		Withdrawers: []common.Address{f.withdrawer},
		Depositors:  []common.Address{f.depositor},
	})
	require.NoError(t, err)
	f.ledger = f.deployment.Child

	// The vesting engine is installed as mint hook by Deploy; ledger tests
	// exercise hooks explicitly.
	require.NoError(t, f.ledger.SetOnMint(f.deployer, common.Address{}))

	for _, addr := range []common.Address{f.deployer, f.minterAccount, f.alice, f.bob} {
		require.NoError(t, f.deployment.NativeCoin.Credit(addr, big.NewInt(1_000_000_000)))
	}
	return f
}

func (f *fixture) authorization(to common.Address, tokenID, extra int64) nft.MintAuthorization {
	return nft.MintAuthorization{To: to, TokenID: big.NewInt(tokenID), Extra: big.NewInt(extra)}
}

func (f *fixture) sign(t *testing.T, to common.Address, tokenID, extra int64) []byte {
	t.Helper()
	sig, err := nft.Sign(f.minterKey.PrivateKey, f.ledger.Domain(), f.authorization(to, tokenID, extra))
	require.NoError(t, err)
	return sig
}

func (f *fixture) mint(t *testing.T, to common.Address, tokenID int64) {
	t.Helper()
	sig := f.sign(t, to, tokenID, 0)
	require.NoError(t, f.ledger.Mint(nativecommon.Call{Sender: to, Value: mintFee}, big.NewInt(tokenID), big.NewInt(0), sig))
}

func (f *fixture) nativeBalance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	bal, err := f.deployment.NativeCoin.BalanceOf(addr)
	require.NoError(t, err)
	return bal
}

type mintNotice struct {
	caller, operator, to common.Address
	tokenID, extra       *big.Int
	ownerSeen            common.Address
}

type transferNotice struct {
	from, to common.Address
	tokenID  *big.Int
}

// recordingHook implements every hook and records what it observed.
type recordingHook struct {
	ledger    *nft.Ledger
	fail      error
	mints     []mintNotice
	burns     []*big.Int
	transfers []transferNotice
}

func (h *recordingHook) OnMint(caller, operator, to common.Address, tokenID, extra *big.Int) error {
	if h.fail != nil {
		return h.fail
	}
	owner, _ := h.ledger.OwnerOf(tokenID)
	h.mints = append(h.mints, mintNotice{caller: caller, operator: operator, to: to, tokenID: tokenID, extra: extra, ownerSeen: owner})
	return nil
}

func (h *recordingHook) OnBurn(caller common.Address, tokenID *big.Int) error {
	if h.fail != nil {
		return h.fail
	}
	h.burns = append(h.burns, tokenID)
	return nil
}

func (h *recordingHook) OnTransfer(caller, from, to common.Address, tokenID *big.Int) error {
	if h.fail != nil {
		return h.fail
	}
	h.transfers = append(h.transfers, transferNotice{from: from, to: to, tokenID: tokenID})
	return nil
}

type receiverContract struct {
	accept bool
}

func (r receiverContract) OnERC721Received(operator, from common.Address, tokenID *big.Int, data []byte) (bool, error) {
	return r.accept, nil
}
