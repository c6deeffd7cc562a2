// Package handler is the thin HTTP layer over the registry engine. It parses
// and validates wire input, delegates to the service, and translates domain
// errors into the shared JSON envelope; no registry logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"terrier/internal/registry/events"
	"terrier/internal/registry/models"
	id "terrier/pkg/domain"
	dErrors "terrier/pkg/domain-errors"
	"terrier/pkg/platform/httputil"
)

// Service defines the engine operations the HTTP surface exposes.
type Service interface {
	RegisterPerson(ctx context.Context, personID id.PersonID, name string, balance *big.Int) error
	RegisterProperty(ctx context.Context, deed id.Deed, ownerID id.PersonID, location string, price *big.Int) error
	ExecuteTransaction(ctx context.Context, deed id.Deed, sellerID, buyerID id.PersonID, amount *big.Int) (models.Transaction, error)
	GetPerson(ctx context.Context, personID id.PersonID) (models.Person, error)
	GetProperty(ctx context.Context, deed id.Deed) (models.Property, error)
	Transactions(ctx context.Context) []models.Transaction
}

// EventLister is the read side of an event sink that can replay captured
// events, typically the in-memory sink.
type EventLister interface {
	List(ctx context.Context) []events.Envelope
}

// Handler wires registry endpoints to the engine service.
type Handler struct {
	service Service
	lister  EventLister
	logger  *slog.Logger
}

// New constructs a registry handler. lister may be nil, in which case the
// events endpoint is not mounted.
func New(service Service, lister EventLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, lister: lister, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registry/persons", h.handleRegisterPerson)
	r.Post("/registry/properties", h.handleRegisterProperty)
	r.Post("/registry/transactions", h.handleExecuteTransaction)
	r.Get("/registry/persons/{personID}", h.handleGetPerson)
	r.Get("/registry/properties/{deed}", h.handleGetProperty)
	r.Get("/registry/transactions", h.handleListTransactions)
	if h.lister != nil {
		r.Get("/registry/events", h.handleListEvents)
	}
}

type personResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type propertyResponse struct {
	Deed     string `json:"deed"`
	OwnerID  string `json:"owner_id"`
	Location string `json:"location"`
	Price    string `json:"price"`
}

type transactionResponse struct {
	Deed      string    `json:"deed"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Timestamp time.Time `json:"timestamp"`
	Amount    string    `json:"amount"`
}

func toPersonResponse(p models.Person) personResponse {
	return personResponse{ID: p.ID.String(), Name: p.Name, Balance: p.Balance.String()}
}

func toPropertyResponse(p models.Property) propertyResponse {
	return propertyResponse{Deed: p.Deed.String(), OwnerID: p.OwnerID.String(), Location: p.Location, Price: p.Price.String()}
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		Deed:      t.Deed.String(),
		BuyerID:   t.BuyerID.String(),
		SellerID:  t.SellerID.String(),
		Timestamp: t.Timestamp,
		Amount:    t.Amount.String(),
	}
}

func (h *Handler) handleRegisterPerson(w http.ResponseWriter, r *http.Request) {
	var req registerPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	personID, name, balance, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RegisterPerson(r.Context(), personID, name, balance); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, personResponse{
		ID:      personID.String(),
		Name:    name,
		Balance: balance.String(),
	})
}

func (h *Handler) handleRegisterProperty(w http.ResponseWriter, r *http.Request) {
	var req registerPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	deed, ownerID, location, price, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RegisterProperty(r.Context(), deed, ownerID, location, price); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, propertyResponse{
		Deed:     deed.String(),
		OwnerID:  ownerID.String(),
		Location: location,
		Price:    price.String(),
	})
}

func (h *Handler) handleExecuteTransaction(w http.ResponseWriter, r *http.Request) {
	var req executeTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	deed, sellerID, buyerID, amount, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, err := h.service.ExecuteTransaction(r.Context(), deed, sellerID, buyerID, amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetPerson(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (h *Handler) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	deed, err := id.ParseDeed(chi.URLParam(r, "deed"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetProperty(r.Context(), deed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPropertyResponse(p))
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	log := h.service.Transactions(r.Context())
	out := make([]transactionResponse, 0, len(log))
	for _, tx := range log {
		out = append(out, toTransactionResponse(tx))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": h.lister.List(r.Context())})
}
