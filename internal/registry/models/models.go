// Package models holds the registry records. Kept transport-agnostic so
// stores, services, and sinks can share them without dragging in HTTP types.
package models

import (
	"math/big"
	"time"

	id "terrier/pkg/domain"
)

// Person is a registered account holder.
//
// Invariants:
//   - ID is unique across all persons
//   - Balance is never negative; it carries at least 256-bit unsigned range,
//     so accumulation cannot overflow
//   - Only transaction execution mutates Balance after registration
type Person struct {
	ID      id.PersonID
	Name    string
	Balance *big.Int
}

// Clone returns a deep copy. Callers never receive a reference into engine
// storage, so a held Person can never observe later mutations.
func (p Person) Clone() Person {
	return Person{
		ID:      p.ID,
		Name:    p.Name,
		Balance: new(big.Int).Set(p.Balance),
	}
}

// Property is a registered parcel identified by its deed number.
//
// Invariants:
//   - Deed is unique across all properties
//   - Only transaction execution mutates OwnerID after registration
//   - Price is informational; it does not constrain transaction amounts
type Property struct {
	Deed     id.Deed
	OwnerID  id.PersonID
	Location string
	Price    *big.Int
}

// Clone returns a deep copy, same contract as Person.Clone.
func (p Property) Clone() Property {
	return Property{
		Deed:     p.Deed,
		OwnerID:  p.OwnerID,
		Location: p.Location,
		Price:    new(big.Int).Set(p.Price),
	}
}

// Transaction is one entry in the append-only transfer log. Entries are
// immutable once recorded and ordered by insertion, not by Timestamp (wall
// clock resolution may tie or skew).
type Transaction struct {
	Deed      id.Deed
	BuyerID   id.PersonID
	SellerID  id.PersonID
	Timestamp time.Time
	Amount    *big.Int
}

// Clone returns a deep copy, same contract as Person.Clone.
func (t Transaction) Clone() Transaction {
	return Transaction{
		Deed:      t.Deed,
		BuyerID:   t.BuyerID,
		SellerID:  t.SellerID,
		Timestamp: t.Timestamp,
		Amount:    new(big.Int).Set(t.Amount),
	}
}
