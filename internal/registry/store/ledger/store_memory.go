// Package ledger implements the in-memory table layer for the three linked
// registries: persons, properties, and the append-only transaction log.
//
// Each registry is an arena slice of records paired with a key→slot index map.
// The map doubles as the O(1) existence set; no operation ever scans a slice
// to answer a lookup. Records can therefore be relocated or compacted later
// without invalidating anything a caller holds, because every read hands out
// a deep copy.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"terrier/internal/registry/models"
	id "terrier/pkg/domain"
	"terrier/pkg/platform/sentinel"
)

// InMemory is the authoritative ledger store. The RWMutex protects individual
// accessors; cross-record atomicity of a transfer is the engine's job (the
// service holds one lock across the whole operation).
type InMemory struct {
	mu sync.RWMutex

	persons    []models.Person
	personSlot map[id.PersonID]int

	properties   []models.Property
	propertySlot map[id.Deed]int

	transactions []models.Transaction
}

// NewInMemory creates an empty ledger store.
func NewInMemory() *InMemory {
	return &InMemory{
		personSlot:   make(map[id.PersonID]int),
		propertySlot: make(map[id.Deed]int),
	}
}

// PutPerson appends a new person record and indexes it. Fails with
// sentinel.ErrConflict if the identifier is already registered; no partial
// mutation occurs on failure.
func (s *InMemory) PutPerson(_ context.Context, p models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.personSlot[p.ID]; ok {
		return fmt.Errorf("person %q: %w", p.ID, sentinel.ErrConflict)
	}
	s.persons = append(s.persons, p.Clone())
	s.personSlot[p.ID] = len(s.persons) - 1
	return nil
}

// PutProperty appends a new property record and indexes it. Fails with
// sentinel.ErrConflict if the deed is already registered.
func (s *InMemory) PutProperty(_ context.Context, p models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.propertySlot[p.Deed]; ok {
		return fmt.Errorf("deed %s: %w", p.Deed, sentinel.ErrConflict)
	}
	s.properties = append(s.properties, p.Clone())
	s.propertySlot[p.Deed] = len(s.properties) - 1
	return nil
}

// GetPerson returns a copy of the person record for personID.
func (s *InMemory) GetPerson(_ context.Context, personID id.PersonID) (models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.personSlot[personID]
	if !ok {
		return models.Person{}, fmt.Errorf("person %q: %w", personID, sentinel.ErrNotFound)
	}
	return s.persons[slot].Clone(), nil
}

// GetProperty returns a copy of the property record for deed.
func (s *InMemory) GetProperty(_ context.Context, deed id.Deed) (models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.propertySlot[deed]
	if !ok {
		return models.Property{}, fmt.Errorf("deed %s: %w", deed, sentinel.ErrNotFound)
	}
	return s.properties[slot].Clone(), nil
}

// PersonExists answers membership in O(1).
func (s *InMemory) PersonExists(_ context.Context, personID id.PersonID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.personSlot[personID]
	return ok
}

// PropertyExists answers membership in O(1).
func (s *InMemory) PropertyExists(_ context.Context, deed id.Deed) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.propertySlot[deed]
	return ok
}

// Debit subtracts amount from the person's balance. Fails with
// sentinel.ErrInsufficientFunds if the balance would go negative; the balance
// is untouched on any failure.
func (s *InMemory) Debit(_ context.Context, personID id.PersonID, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.personSlot[personID]
	if !ok {
		return fmt.Errorf("person %q: %w", personID, sentinel.ErrNotFound)
	}
	if s.persons[slot].Balance.Cmp(amount) < 0 {
		return fmt.Errorf("person %q balance %s below %s: %w",
			personID, s.persons[slot].Balance, amount, sentinel.ErrInsufficientFunds)
	}
	s.persons[slot].Balance.Sub(s.persons[slot].Balance, amount)
	return nil
}

// Credit adds amount to the person's balance.
func (s *InMemory) Credit(_ context.Context, personID id.PersonID, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.personSlot[personID]
	if !ok {
		return fmt.Errorf("person %q: %w", personID, sentinel.ErrNotFound)
	}
	s.persons[slot].Balance.Add(s.persons[slot].Balance, amount)
	return nil
}

// SetOwner reassigns the property's owner and returns the previous owner.
func (s *InMemory) SetOwner(_ context.Context, deed id.Deed, owner id.PersonID) (id.PersonID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.propertySlot[deed]
	if !ok {
		return "", fmt.Errorf("deed %s: %w", deed, sentinel.ErrNotFound)
	}
	prev := s.properties[slot].OwnerID
	s.properties[slot].OwnerID = owner
	return prev, nil
}

// AppendTransaction appends one immutable entry to the transfer log.
func (s *InMemory) AppendTransaction(_ context.Context, tx models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx.Clone())
}

// Transactions returns a copy of the transfer log in insertion order.
func (s *InMemory) Transactions(_ context.Context) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx.Clone())
	}
	return out
}

// TransactionCount returns the transfer log length.
func (s *InMemory) TransactionCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// TotalBalance sums all person balances. Used by conservation checks.
func (s *InMemory) TotalBalance(_ context.Context) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := new(big.Int)
	for i := range s.persons {
		total.Add(total, s.persons[i].Balance)
	}
	return total
}
