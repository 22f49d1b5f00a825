package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgertx/internal/adapter/http/dto"
	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetTransactionEntries(ctx context.Context, id string) ([]*domain.Entry, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// ReversalService defines the behavior needed to reverse a transaction.
type ReversalService interface {
	ReverseTransaction(ctx context.Context, input usecase.ReverseTransactionInput) (*domain.Transaction, error)
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
	reversalUC    ReversalService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService, reversalUC ReversalService) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		reversalUC:    reversalUC,
	}
}

// Create records a transaction and queues it for settlement. The response
// carries the PENDING transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transaction, err := h.transactionUC.CreateTransaction(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.TransactionFromDomain(transaction))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	transaction, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Entries lists the entries of a transaction.
func (h *TransactionHandler) Entries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	entries, err := h.transactionUC.GetTransactionEntries(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transaction entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// List lists transactions filtered by status, account and date range.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.TransactionFilter{
		AccountID: r.URL.Query().Get("account_id"),
		Limit:     parseIntQuery(r, "limit", usecase.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseTransactionStatus(s)
		if err != nil {
			writeDomainError(w, "invalid status filter", err)
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.From, err = parseTimeQuery(r, "from"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from filter", err.Error())
		return
	}
	if filter.To, err = parseTimeQuery(r, "to"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to filter", err.Error())
		return
	}

	transactions, err := h.transactionUC.ListTransactions(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions))
}

// Reverse creates the reversal of a COMPLETED transaction. The body is
// optional.
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ReverseTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	reversal, err := h.reversalUC.ReverseTransaction(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, "failed to reverse transaction", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.TransactionFromDomain(reversal))
}
