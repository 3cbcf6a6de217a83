package core_test

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"nftbridge/core"
	nbcrypto "nftbridge/crypto"
	"nftbridge/native/access"
	"nftbridge/native/bank"
	nativecommon "nftbridge/native/common"
	"nftbridge/native/nft"
	"nftbridge/native/vesting"
	"nftbridge/storage"
)

var (
	deployer  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	depositor = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	predicate = common.HexToAddress("0x00000000000000000000000000000000000000d3")
	alice     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob       = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func childConfig(minter common.Address) core.DeployConfig {
	return core.DeployConfig{
		Variant:       nft.VariantChild,
		NFT:           nft.Config{BaseTokenURI: "ipfs://tokens/", MintFee: big.NewInt(10)},
		Minters:       []common.Address{minter},
		Depositors:    []common.Address{depositor},
		RewardSupply:  big.NewInt(1000),
		RewardFunding: big.NewInt(400),
		RewardParams: &vesting.Params{
			EarnStartBlock:      0,
			EarnEndBlock:        100,
			EligibleExtraStart:  big.NewInt(0),
			EligibleExtraEnd:    big.NewInt(10),
			VestingDurationDays: 1,
			RewardAmount:        big.NewInt(100),
		},
		BlocksPerDay: 20,
	}
}

func selfMint(t *testing.T, child *nft.ChildLedger, key *nbcrypto.PrivateKey, to common.Address, tokenID int64) {
	t.Helper()
	msg := nft.MintAuthorization{To: to, TokenID: big.NewInt(tokenID), Extra: big.NewInt(1)}
	sig, err := nft.Sign(key.PrivateKey, child.Domain(), msg)
	require.NoError(t, err)
	fee, err := child.MintFee()
	require.NoError(t, err)
	require.NoError(t, child.Mint(nativecommon.Call{Sender: to, Value: fee}, msg.TokenID, msg.Extra, sig))
}

func TestDeployChildWiresContracts(t *testing.T) {
	key, err := nbcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	chain, emitter := newChain(t, storage.NewMemDB())

	d, err := core.Deploy(chain, deployer, childConfig(key.Address()))
	require.NoError(t, err)
	require.NotNil(t, d.Child)
	require.Nil(t, d.Root)
	require.Equal(t, d.Child.Ledger, d.Ledger())
	require.Equal(t, bank.NativeCoinAddress, d.NativeCoin.Address())

	roles := d.Child.Roles()
	require.True(t, roles.Has(access.RoleAdmin, deployer))
	require.True(t, roles.Has(access.RoleMinter, key.Address()))
	require.True(t, roles.Has(access.RoleDepositor, depositor))

	hook, err := d.Child.OnMint()
	require.NoError(t, err)
	require.Equal(t, d.Vesting.Address(), hook)
	require.Equal(t, d.Child.Address(), d.Vesting.Caller())

	engineBalance, err := d.RewardToken.BalanceOf(d.Vesting.Address())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(400), engineBalance)
	deployerBalance, err := d.RewardToken.BalanceOf(deployer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), deployerBalance)

	require.Contains(t, emitter.types(), "nft.hook.set")
	require.Contains(t, emitter.types(), "vesting.parameters.set")

	_, err = core.Deploy(chain, deployer, childConfig(key.Address()))
	require.Error(t, err)
}

func TestFailedDeployLeavesNothingBehind(t *testing.T) {
	chain, emitter := newChain(t, storage.NewMemDB())
	cfg := childConfig(alice)
	cfg.RewardParams.VestingDurationDays = 0

	_, err := core.Deploy(chain, deployer, cfg)
	require.ErrorIs(t, err, vesting.ErrDurationZero)
	require.Empty(t, emitter.events)
	_, ok := chain.Resolve(bank.NativeCoinAddress)
	require.False(t, ok)
	_, err = core.Open(chain)
	require.Error(t, err)

	d, err := core.Deploy(chain, deployer, childConfig(alice))
	require.NoError(t, err)
	// Addresses derive from the deployer nonce, which the failed attempt
	// did not consume.
	require.Equal(t, crypto.CreateAddress(deployer, 0), d.Child.Address())
}

func TestOpenRestoresPersistedDeployment(t *testing.T) {
	key, err := nbcrypto.GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "chain")

	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	chain, _ := newChain(t, db)
	d, err := core.Deploy(chain, deployer, childConfig(key.Address()))
	require.NoError(t, err)
	require.NoError(t, d.NativeCoin.Credit(alice, big.NewInt(100)))
	require.NoError(t, chain.Mine(1))
	selfMint(t, d.Child, key, alice, 7)
	require.NoError(t, chain.Mine(5))
	db.Close()

	db, err = storage.NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()
	chain, _ = newChain(t, db)
	require.Equal(t, uint64(6), chain.BlockNumber())

	reopened, err := core.Open(chain)
	require.NoError(t, err)
	require.Equal(t, d.Child.Address(), reopened.Child.Address())
	owner, err := reopened.Child.OwnerOf(big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, alice, owner)
	require.True(t, reopened.Child.Roles().Has(access.RoleMinter, key.Address()))

	grant, err := reopened.Vesting.TokenGrant(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), grant.Amount)
	require.Equal(t, uint64(1), grant.StartBlock)

	// 5 of 20 blocks elapsed.
	amount, err := reopened.Vesting.ClaimVestedTokens(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(25), amount)

	// Signatures stay valid because the domain is persisted with the ledger.
	msg := nft.MintAuthorization{To: bob, TokenID: big.NewInt(8), Extra: big.NewInt(0)}
	sig, err := nft.Sign(key.PrivateKey, reopened.Child.Domain(), msg)
	require.NoError(t, err)
	_, err = reopened.Child.Verifier().Verify(msg, sig)
	require.NoError(t, err)
}

// TestBridgeRoundTrip moves a token child -> root -> child, playing the
// external relay between the two chains.
func TestBridgeRoundTrip(t *testing.T) {
	key, err := nbcrypto.GeneratePrivateKey()
	require.NoError(t, err)

	childChain, _ := newChain(t, storage.NewMemDB())
	child, err := core.Deploy(childChain, deployer, childConfig(key.Address()))
	require.NoError(t, err)

	rootChain, err := core.NewChain(storage.NewMemDB(), core.ChainOptions{ChainID: big.NewInt(1)})
	require.NoError(t, err)
	root, err := core.Deploy(rootChain, deployer, core.DeployConfig{
		Variant:    nft.VariantRoot,
		Predicates: []common.Address{predicate},
	})
	require.NoError(t, err)

	id := big.NewInt(42)
	require.NoError(t, child.NativeCoin.Credit(alice, big.NewInt(100)))
	selfMint(t, child.Child, key, alice, 42)

	// Exit: burn on the child, predicate mints on the root.
	require.NoError(t, child.Child.Withdraw(alice, id))
	require.NoError(t, root.Root.LowLevelMint(predicate, alice, id))
	owner, err := root.Root.OwnerOf(id)
	require.NoError(t, err)
	require.Equal(t, alice, owner)

	// At most one live copy across both ledgers.
	exists, err := child.Child.Exists(id)
	require.NoError(t, err)
	require.False(t, exists)

	// Entry: the root holder locks the token with the predicate and the
	// depositor finalises on the child.
	require.NoError(t, root.Root.TransferFrom(alice, alice, bob, id))
	require.NoError(t, root.Root.TransferFrom(bob, bob, predicate, id))
	payload, err := nft.EncodeDepositPayload(id)
	require.NoError(t, err)
	require.NoError(t, child.Child.Deposit(depositor, bob, payload))

	owner, err = child.Child.OwnerOf(id)
	require.NoError(t, err)
	require.Equal(t, bob, owner)
	withdrawn, err := child.Child.IsWithdrawn(id)
	require.NoError(t, err)
	require.False(t, withdrawn)

	// The root ledger refuses to mint an id it already holds.
	require.ErrorIs(t, root.Root.LowLevelMint(predicate, bob, id), nativecommon.ErrAlreadyExists)
}
