package state

import (
	"math/big"
	"testing"

	"nftbridge/core/events"
	"nftbridge/storage"
)

type testEvent string

func (e testEvent) EventType() string { return string(e) }

func newTestManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db), db
}

func TestSnapshotRevertsWritesAndLogs(t *testing.T) {
	mgr, _ := newTestManager(t)
	ledger := [20]byte{0x01}
	owner := [20]byte{0x02}

	if err := mgr.NFTBalancePut(ledger, owner, 1); err != nil {
		t.Fatalf("put balance: %v", err)
	}
	mgr.AddLog(testEvent("kept"))

	snap := mgr.Snapshot()
	if err := mgr.NFTBalancePut(ledger, owner, 7); err != nil {
		t.Fatalf("put balance: %v", err)
	}
	if err := mgr.NFTTokenPut(ledger, big.NewInt(9), &NFTToken{Owner: owner}); err != nil {
		t.Fatalf("put token: %v", err)
	}
	mgr.AddLog(testEvent("dropped"))
	mgr.RevertToSnapshot(snap)

	balance, err := mgr.NFTBalance(ledger, owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1 {
		t.Fatalf("expected balance 1 after revert, got %d", balance)
	}
	if _, ok, err := mgr.NFTToken(ledger, big.NewInt(9)); err != nil || ok {
		t.Fatalf("expected token to be reverted, ok=%v err=%v", ok, err)
	}

	logs, err := mgr.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(logs) != 1 || logs[0].EventType() != "kept" {
		t.Fatalf("unexpected logs after revert: %v", logs)
	}
}

func TestNestedSnapshots(t *testing.T) {
	mgr, _ := newTestManager(t)
	token := [20]byte{0xaa}
	acct := [20]byte{0xbb}

	outer := mgr.Snapshot()
	if err := mgr.SetBalance(token, acct, big.NewInt(10)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	inner := mgr.Snapshot()
	if err := mgr.SetBalance(token, acct, big.NewInt(20)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	mgr.RevertToSnapshot(inner)

	bal, _ := mgr.Balance(token, acct)
	if bal.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected inner revert to restore 10, got %s", bal)
	}
	mgr.RevertToSnapshot(outer)
	bal, _ = mgr.Balance(token, acct)
	if bal.Sign() != 0 {
		t.Fatalf("expected outer revert to clear balance, got %s", bal)
	}
	if mgr.Pending() != 0 {
		t.Fatalf("expected no pending keys, got %d", mgr.Pending())
	}
}

func TestCommitPersists(t *testing.T) {
	mgr, db := newTestManager(t)
	ledger := [20]byte{0x03}

	if err := mgr.NFTSettingsPut(ledger, &NFTSettings{BaseTokenURI: "ipfs://base/", MintFee: big.NewInt(5)}); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	if db.Len() != 0 {
		t.Fatalf("expected writes to stay buffered before commit")
	}
	if _, err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if db.Len() == 0 {
		t.Fatalf("expected commit to flush to the database")
	}

	reopened := NewManager(db)
	settings, err := reopened.NFTSettings(ledger)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.BaseTokenURI != "ipfs://base/" || settings.MintFee.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected settings after reopen: %+v", settings)
	}
}

func TestDeleteAfterCommit(t *testing.T) {
	mgr, db := newTestManager(t)
	ledger := [20]byte{0x04}
	id := big.NewInt(42)

	if err := mgr.NFTWithdrawnPut(ledger, id, true); err != nil {
		t.Fatalf("put withdrawn: %v", err)
	}
	if _, err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mgr.NFTWithdrawnPut(ledger, id, false); err != nil {
		t.Fatalf("clear withdrawn: %v", err)
	}
	if _, err := mgr.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	withdrawn, err := NewManager(db).NFTWithdrawn(ledger, id)
	if err != nil {
		t.Fatalf("withdrawn: %v", err)
	}
	if withdrawn {
		t.Fatalf("expected withdrawn flag to be cleared")
	}
}

func TestDiscardDropsPendingState(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.AddLog(testEvent("pending"))
	if err := mgr.SetBlockHeight(12); err != nil {
		t.Fatalf("set height: %v", err)
	}
	mgr.Discard()

	height, err := mgr.BlockHeight()
	if err != nil {
		t.Fatalf("height: %v", err)
	}
	if height != 0 {
		t.Fatalf("expected discarded height, got %d", height)
	}
	logs, _ := mgr.Commit()
	if len(logs) != 0 {
		t.Fatalf("expected no logs after discard, got %d", len(logs))
	}
}

func TestRolesAreScoped(t *testing.T) {
	mgr, _ := newTestManager(t)
	ledgerA := [20]byte{0x0a}
	ledgerB := [20]byte{0x0b}
	role := [32]byte{0x01}
	alice := [20]byte{0xa1}
	bob := [20]byte{0xb0}

	for _, addr := range [][20]byte{bob, alice, alice} {
		if err := mgr.SetRole(ledgerA, role, addr); err != nil {
			t.Fatalf("set role: %v", err)
		}
	}
	members, err := mgr.RoleMembers(ledgerA, role)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 || members[0] != alice || members[1] != bob {
		t.Fatalf("expected sorted unique members, got %x", members)
	}
	if mgr.HasRole(ledgerB, role, alice) {
		t.Fatalf("role must not leak across scopes")
	}

	if err := mgr.RemoveRole(ledgerA, role, alice); err != nil {
		t.Fatalf("remove role: %v", err)
	}
	if mgr.HasRole(ledgerA, role, alice) || !mgr.HasRole(ledgerA, role, bob) {
		t.Fatalf("unexpected membership after removal")
	}
}

func TestVestingBeneficiaryIndex(t *testing.T) {
	mgr, _ := newTestManager(t)
	engine := [20]byte{0xee}
	first := [20]byte{0x01}
	second := [20]byte{0x02}

	grant := &VestingGrant{Amount: big.NewInt(100), StartBlock: 5, DurationBlocks: 10}
	for _, addr := range [][20]byte{second, first, second} {
		if err := mgr.VestingGrantPut(engine, addr, grant); err != nil {
			t.Fatalf("put grant: %v", err)
		}
	}
	list, err := mgr.VestingBeneficiaries(engine)
	if err != nil {
		t.Fatalf("beneficiaries: %v", err)
	}
	if len(list) != 2 || list[0] != second || list[1] != first {
		t.Fatalf("expected creation order without duplicates, got %x", list)
	}

	loaded, ok, err := mgr.VestingGrant(engine, first)
	if err != nil || !ok {
		t.Fatalf("load grant: ok=%v err=%v", ok, err)
	}
	if loaded.Claimed.Sign() != 0 || loaded.Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected grant: %+v", loaded)
	}
}

func TestNegativeAmountRejected(t *testing.T) {
	mgr, _ := newTestManager(t)
	if err := mgr.SetBalance([20]byte{1}, [20]byte{2}, big.NewInt(-1)); err == nil {
		t.Fatalf("expected negative balance to be rejected")
	}
}

var _ events.Event = testEvent("")
