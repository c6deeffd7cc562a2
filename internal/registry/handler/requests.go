package handler

import (
	"math/big"
	"strings"

	id "terrier/pkg/domain"
	dErrors "terrier/pkg/domain-errors"
)

// Monetary values and deed numbers cross the wire as decimal strings: balances
// carry 256-bit-plus range, which a JSON number cannot.

type registerPersonRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type registerPropertyRequest struct {
	Deed     string `json:"deed"`
	OwnerID  string `json:"owner_id"`
	Location string `json:"location"`
	Price    string `json:"price"`
}

type executeTransactionRequest struct {
	Deed     string `json:"deed"`
	SellerID string `json:"seller_id"`
	BuyerID  string `json:"buyer_id"`
	Amount   string `json:"amount"`
}

func (r registerPersonRequest) parse() (id.PersonID, string, *big.Int, error) {
	personID, err := id.ParsePersonID(r.ID)
	if err != nil {
		return "", "", nil, err
	}
	balance, err := parseAmount(r.Balance, "balance")
	if err != nil {
		return "", "", nil, err
	}
	return personID, strings.TrimSpace(r.Name), balance, nil
}

func (r registerPropertyRequest) parse() (id.Deed, id.PersonID, string, *big.Int, error) {
	deed, err := id.ParseDeed(r.Deed)
	if err != nil {
		return 0, "", "", nil, err
	}
	// The engine does not require the owner to be registered, but the token
	// itself must still be well formed.
	ownerID, err := id.ParsePersonID(r.OwnerID)
	if err != nil {
		return 0, "", "", nil, err
	}
	price, err := parseAmount(r.Price, "price")
	if err != nil {
		return 0, "", "", nil, err
	}
	return deed, ownerID, strings.TrimSpace(r.Location), price, nil
}

func (r executeTransactionRequest) parse() (id.Deed, id.PersonID, id.PersonID, *big.Int, error) {
	deed, err := id.ParseDeed(r.Deed)
	if err != nil {
		return 0, "", "", nil, err
	}
	sellerID, err := id.ParsePersonID(r.SellerID)
	if err != nil {
		return 0, "", "", nil, err
	}
	buyerID, err := id.ParsePersonID(r.BuyerID)
	if err != nil {
		return 0, "", "", nil, err
	}
	amount, err := parseAmount(r.Amount, "amount")
	if err != nil {
		return 0, "", "", nil, err
	}
	return deed, sellerID, buyerID, amount, nil
}

func parseAmount(raw, field string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s %q is not a decimal integer", field, raw)
	}
	if v.Sign() < 0 {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be negative", field)
	}
	return v, nil
}
