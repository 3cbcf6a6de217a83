package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NFTToken is the persisted record of a live token.
type NFTToken struct {
	Owner    [20]byte
	Extra    *big.Int
	Approved [20]byte
	Metadata []byte
}

// NFTSettings holds the admin-controlled configuration of a token ledger.
type NFTSettings struct {
	Variant       string
	DomainName    string
	DomainVersion string
	BaseTokenURI  string
	MintFee       *big.Int
	OnMint        [20]byte
	OnBurn        [20]byte
	OnTransfer    [20]byte
}

func nftTokenKey(ledger [20]byte, id *big.Int) []byte {
	return scopedKey("nft/token/", ledger, common.BigToHash(id).Bytes())
}

func nftWithdrawnKey(ledger [20]byte, id *big.Int) []byte {
	return scopedKey("nft/withdrawn/", ledger, common.BigToHash(id).Bytes())
}

func nftBalanceKey(ledger [20]byte, owner [20]byte) []byte {
	return scopedKey("nft/balance/", ledger, owner[:])
}

func nftOperatorKey(ledger [20]byte, owner [20]byte, operator [20]byte) []byte {
	return scopedKey("nft/operator/", ledger, append(append([]byte{}, owner[:]...), operator[:]...))
}

func nftSettingsKey(ledger [20]byte) []byte {
	return scopedKey("nft/settings", ledger, nil)
}

func scopedKey(prefix string, scope [20]byte, suffix []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(scope)+1+len(suffix))
	buf = append(buf, prefix...)
	buf = append(buf, scope[:]...)
	buf = append(buf, '/')
	buf = append(buf, suffix...)
	return buf
}

// NFTToken loads the live token record. The boolean reports whether the token
// exists.
func (m *Manager) NFTToken(ledger [20]byte, id *big.Int) (*NFTToken, bool, error) {
	token := new(NFTToken)
	ok, err := m.KVGet(nftTokenKey(ledger, id), token)
	if err != nil || !ok {
		return nil, false, err
	}
	if token.Extra == nil {
		token.Extra = big.NewInt(0)
	}
	return token, true, nil
}

// NFTTokenPut stores the token record.
func (m *Manager) NFTTokenPut(ledger [20]byte, id *big.Int, token *NFTToken) error {
	stored := *token
	if stored.Extra == nil {
		stored.Extra = big.NewInt(0)
	}
	return m.KVPut(nftTokenKey(ledger, id), &stored)
}

// NFTTokenDelete removes the token record.
func (m *Manager) NFTTokenDelete(ledger [20]byte, id *big.Int) error {
	return m.KVDelete(nftTokenKey(ledger, id))
}

// NFTBalance returns the number of tokens held by owner.
func (m *Manager) NFTBalance(ledger [20]byte, owner [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.KVGet(nftBalanceKey(ledger, owner), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// NFTBalancePut stores the number of tokens held by owner.
func (m *Manager) NFTBalancePut(ledger [20]byte, owner [20]byte, balance uint64) error {
	if balance == 0 {
		return m.KVDelete(nftBalanceKey(ledger, owner))
	}
	return m.KVPut(nftBalanceKey(ledger, owner), balance)
}

// NFTOperatorApproved reports whether operator may manage every token of owner.
func (m *Manager) NFTOperatorApproved(ledger [20]byte, owner [20]byte, operator [20]byte) (bool, error) {
	var approved bool
	if _, err := m.KVGet(nftOperatorKey(ledger, owner, operator), &approved); err != nil {
		return false, err
	}
	return approved, nil
}

// NFTOperatorPut records an operator approval.
func (m *Manager) NFTOperatorPut(ledger [20]byte, owner [20]byte, operator [20]byte, approved bool) error {
	if !approved {
		return m.KVDelete(nftOperatorKey(ledger, owner, operator))
	}
	return m.KVPut(nftOperatorKey(ledger, owner, operator), true)
}

// NFTWithdrawn reports whether the token currently lives on the other ledger.
func (m *Manager) NFTWithdrawn(ledger [20]byte, id *big.Int) (bool, error) {
	var withdrawn bool
	if _, err := m.KVGet(nftWithdrawnKey(ledger, id), &withdrawn); err != nil {
		return false, err
	}
	return withdrawn, nil
}

// NFTWithdrawnPut records whether the token currently lives on the other ledger.
func (m *Manager) NFTWithdrawnPut(ledger [20]byte, id *big.Int, withdrawn bool) error {
	if !withdrawn {
		return m.KVDelete(nftWithdrawnKey(ledger, id))
	}
	return m.KVPut(nftWithdrawnKey(ledger, id), true)
}

// NFTSettings loads the ledger configuration, returning zero values when the
// ledger has never been configured.
func (m *Manager) NFTSettings(ledger [20]byte) (*NFTSettings, error) {
	settings := new(NFTSettings)
	if _, err := m.KVGet(nftSettingsKey(ledger), settings); err != nil {
		return nil, err
	}
	if settings.MintFee == nil {
		settings.MintFee = big.NewInt(0)
	}
	return settings, nil
}

// NFTSettingsPut stores the ledger configuration.
func (m *Manager) NFTSettingsPut(ledger [20]byte, settings *NFTSettings) error {
	stored := *settings
	if stored.MintFee == nil {
		stored.MintFee = big.NewInt(0)
	}
	return m.KVPut(nftSettingsKey(ledger), &stored)
}
