package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"nftbridge/core/events"
	"nftbridge/storage"
)

// Manager provides journaled access to ledger state. Writes are buffered in
// memory until Commit flushes them to the backing database in a single batch;
// Snapshot/RevertToSnapshot roll back both writes and queued events so a failed
// call leaves no trace.
//
// Manager is not safe for concurrent use.
type Manager struct {
	db      storage.Database
	dirty   map[string]dirtyValue
	journal []journalEntry
	logs    []events.Event
}

type dirtyValue struct {
	value   []byte
	deleted bool
}

type journalEntry struct {
	key     string
	prev    dirtyValue
	hadPrev bool
}

// Snapshot identifies a revision of the pending state.
type Snapshot struct {
	journal int
	logs    int
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		dirty: make(map[string]dirtyValue),
	}
}

var rolePrefix = []byte("role:")

func roleKey(scope [20]byte, role [32]byte) []byte {
	buf := make([]byte, 0, len(rolePrefix)+len(scope)+1+len(role))
	buf = append(buf, rolePrefix...)
	buf = append(buf, scope[:]...)
	buf = append(buf, ':')
	buf = append(buf, role[:]...)
	return ethcrypto.Keccak256(buf)
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// Snapshot returns a revision marker that can later be passed to
// RevertToSnapshot.
func (m *Manager) Snapshot() Snapshot {
	return Snapshot{journal: len(m.journal), logs: len(m.logs)}
}

// RevertToSnapshot undoes every write and event recorded after the snapshot
// was taken.
func (m *Manager) RevertToSnapshot(s Snapshot) {
	if s.journal > len(m.journal) || s.logs > len(m.logs) {
		return
	}
	for i := len(m.journal) - 1; i >= s.journal; i-- {
		entry := m.journal[i]
		if entry.hadPrev {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	m.journal = m.journal[:s.journal]
	for i := s.logs; i < len(m.logs); i++ {
		m.logs[i] = nil
	}
	m.logs = m.logs[:s.logs]
}

// Pending reports the number of buffered, uncommitted keys.
func (m *Manager) Pending() int {
	return len(m.dirty)
}

// Commit flushes every buffered write to the backing database and returns the
// events queued since the previous commit.
func (m *Manager) Commit() ([]events.Event, error) {
	if len(m.dirty) > 0 {
		keys := make([]string, 0, len(m.dirty))
		for key := range m.dirty {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		batch := m.db.NewBatch()
		for _, key := range keys {
			val := m.dirty[key]
			if val.deleted {
				batch.Delete([]byte(key))
				continue
			}
			batch.Put([]byte(key), val.value)
		}
		if err := batch.Write(); err != nil {
			return nil, fmt.Errorf("state: commit: %w", err)
		}
	}
	logs := m.logs
	m.dirty = make(map[string]dirtyValue)
	m.journal = nil
	m.logs = nil
	return logs, nil
}

// Discard drops every buffered write and queued event.
func (m *Manager) Discard() {
	m.dirty = make(map[string]dirtyValue)
	m.journal = nil
	m.logs = nil
}

// AddLog queues an event for emission once the enclosing call commits.
func (m *Manager) AddLog(evt events.Event) {
	if evt == nil {
		return
	}
	m.logs = append(m.logs, evt)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if val, ok := m.dirty[string(key)]; ok {
		if val.deleted {
			return nil, nil
		}
		return val.value, nil
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (m *Manager) set(key []byte, val dirtyValue) {
	k := string(key)
	prev, hadPrev := m.dirty[k]
	m.journal = append(m.journal, journalEntry{key: k, prev: prev, hadPrev: hadPrev})
	m.dirty[k] = val
}

func (m *Manager) put(key []byte, value []byte) {
	m.set(key, dirtyValue{value: append([]byte(nil), value...)})
}

func (m *Manager) delete(key []byte) {
	m.set(key, dirtyValue{deleted: true})
}

// SetRole associates an address with the role inside the provided scope.
// Duplicate assignments are ignored while the stored list remains sorted for
// determinism.
func (m *Manager) SetRole(scope [20]byte, role [32]byte, addr [20]byte) error {
	members, err := m.RoleMembers(scope, role)
	if err != nil {
		return err
	}
	for _, existing := range members {
		if existing == addr {
			return nil
		}
	}
	members = append(members, addr)
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i][:], members[j][:]) < 0
	})
	encoded, err := rlp.EncodeToBytes(members)
	if err != nil {
		return err
	}
	m.put(roleKey(scope, role), encoded)
	return nil
}

// RemoveRole drops the address from the role inside the provided scope.
func (m *Manager) RemoveRole(scope [20]byte, role [32]byte, addr [20]byte) error {
	members, err := m.RoleMembers(scope, role)
	if err != nil {
		return err
	}
	filtered := members[:0]
	for _, existing := range members {
		if existing != addr {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == 0 {
		m.delete(roleKey(scope, role))
		return nil
	}
	encoded, err := rlp.EncodeToBytes(filtered)
	if err != nil {
		return err
	}
	m.put(roleKey(scope, role), encoded)
	return nil
}

// RoleMembers returns all addresses assigned to the role inside the scope.
func (m *Manager) RoleMembers(scope [20]byte, role [32]byte) ([][20]byte, error) {
	data, err := m.get(roleKey(scope, role))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return [][20]byte{}, nil
	}
	var members [][20]byte
	if err := rlp.DecodeBytes(data, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// HasRole reports whether the address is associated with the role inside the
// scope. Errors while reading the underlying state result in a false return so
// that permission checks fail closed.
func (m *Manager) HasRole(scope [20]byte, role [32]byte, addr [20]byte) bool {
	members, err := m.RoleMembers(scope, role)
	if err != nil {
		return false
	}
	for _, member := range members {
		if member == addr {
			return true
		}
	}
	return false
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(kvKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the supplied key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.delete(kvKey(key))
	return nil
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	hashed := kvKey(key)
	data, err := m.get(hashed)
	if err != nil {
		return err
	}
	var list [][]byte
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &list); err != nil {
			return err
		}
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	m.put(hashed, encoded)
	return nil
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(kvKey(key))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("kv: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("kv: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}
