package state

var (
	chainHeightKey     = []byte("chain/height")
	chainDeploymentKey = []byte("chain/deployment")
	accountNoncePrefix = []byte("chain/nonce/")
)

// Deployment records where the ledger contracts of a chain live.
type Deployment struct {
	Variant     string
	Deployer    [20]byte
	Ledger      [20]byte
	RewardToken [20]byte
	Vesting     [20]byte
	NativeCoin  [20]byte
}

// BlockHeight returns the last persisted block height.
func (m *Manager) BlockHeight() (uint64, error) {
	var height uint64
	if _, err := m.KVGet(chainHeightKey, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// SetBlockHeight persists the block height.
func (m *Manager) SetBlockHeight(height uint64) error {
	return m.KVPut(chainHeightKey, height)
}

// AccountNonce returns the number of contracts deployed by addr.
func (m *Manager) AccountNonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	key := append(append([]byte{}, accountNoncePrefix...), addr[:]...)
	if _, err := m.KVGet(key, &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// SetAccountNonce stores the number of contracts deployed by addr.
func (m *Manager) SetAccountNonce(addr [20]byte, nonce uint64) error {
	key := append(append([]byte{}, accountNoncePrefix...), addr[:]...)
	return m.KVPut(key, nonce)
}

// Deployment loads the recorded contract deployment.
func (m *Manager) Deployment() (*Deployment, bool, error) {
	d := new(Deployment)
	ok, err := m.KVGet(chainDeploymentKey, d)
	if err != nil || !ok {
		return nil, false, err
	}
	return d, true, nil
}

// SetDeployment records the contract deployment.
func (m *Manager) SetDeployment(d *Deployment) error {
	return m.KVPut(chainDeploymentKey, d)
}
