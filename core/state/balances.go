package state

import (
	"fmt"
	"math/big"
)

// TokenMetadata describes a fungible token hosted by the bank module.
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

func balanceKey(token [20]byte, account [20]byte) []byte {
	return scopedKey("bank/balance/", token, account[:])
}

func allowanceKey(token [20]byte, owner [20]byte, spender [20]byte) []byte {
	return scopedKey("bank/allowance/", token, append(append([]byte{}, owner[:]...), spender[:]...))
}

func supplyKey(token [20]byte) []byte {
	return scopedKey("bank/supply", token, nil)
}

func tokenMetadataKey(token [20]byte) []byte {
	return scopedKey("bank/token", token, nil)
}

func (m *Manager) loadAmount(key []byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.KVGet(key, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func (m *Manager) storeAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(key)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount not allowed")
	}
	return m.KVPut(key, amount)
}

// Balance retrieves the balance of account for the provided token.
func (m *Manager) Balance(token [20]byte, account [20]byte) (*big.Int, error) {
	return m.loadAmount(balanceKey(token, account))
}

// SetBalance stores the balance of account for the provided token.
func (m *Manager) SetBalance(token [20]byte, account [20]byte, amount *big.Int) error {
	return m.storeAmount(balanceKey(token, account), amount)
}

// Allowance retrieves the amount spender may move on behalf of owner.
func (m *Manager) Allowance(token [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error) {
	return m.loadAmount(allowanceKey(token, owner, spender))
}

// SetAllowance stores the amount spender may move on behalf of owner.
func (m *Manager) SetAllowance(token [20]byte, owner [20]byte, spender [20]byte, amount *big.Int) error {
	return m.storeAmount(allowanceKey(token, owner, spender), amount)
}

// TotalSupply retrieves the circulating supply of the token.
func (m *Manager) TotalSupply(token [20]byte) (*big.Int, error) {
	return m.loadAmount(supplyKey(token))
}

// SetTotalSupply stores the circulating supply of the token.
func (m *Manager) SetTotalSupply(token [20]byte, amount *big.Int) error {
	return m.storeAmount(supplyKey(token), amount)
}

// TokenMetadata loads the descriptive metadata of a token.
func (m *Manager) TokenMetadata(token [20]byte) (*TokenMetadata, bool, error) {
	meta := new(TokenMetadata)
	ok, err := m.KVGet(tokenMetadataKey(token), meta)
	if err != nil || !ok {
		return nil, false, err
	}
	return meta, true, nil
}

// SetTokenMetadata stores the descriptive metadata of a token.
func (m *Manager) SetTokenMetadata(token [20]byte, meta *TokenMetadata) error {
	if meta == nil {
		return fmt.Errorf("token metadata required")
	}
	return m.KVPut(tokenMetadataKey(token), meta)
}
