package handlers

import (
	"net/http"
	"strings"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// IdempotencyKeyHeader carries the client-chosen key that makes transaction creation retry-safe.
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler handles HTTP requests for transaction and holdings endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the ledger service.
type TransactionHandler struct {
	ledgerService *service.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

// ListTransactions handles GET requests to list the caller's transactions.
//
// Endpoint: GET /api/portfolio/transactions
// Query Parameters: accountId, symbol, type, startDate, endDate (all optional)
// Response: 200 OK with array of Transaction
// Error: 400 Bad Request if a filter is invalid
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, err := request.ParseTransactionFilters(q.Get("accountId"), q.Get("symbol"), q.Get("type"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}

	transactions, err := h.ledgerService.ListTransactions(r.Context(), userID(r), ledger.TransactionFilter{
		AccountID: filters.AccountID,
		Symbol:    filters.Symbol,
		Type:      model.TransactionType(filters.Type),
		From:      filters.StartDate,
		To:        filters.EndDate,
	})
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveTransaction.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, transactions)
}

// CreateTransaction handles POST requests to record a single trade.
// The Idempotency-Key header is required; a repeated key is rejected.
//
// Endpoint: POST /api/portfolio/transactions
// Request Body: CreateTransactionRequest
// Response: 201 Created with Transaction
// Error: 400 Bad Request if validation fails, the key is missing or the sell exceeds open lots
// Error: 404 Not Found if the account, symbol or fee profile is unknown
// Error: 409 Conflict if the key was already used or the ledger is inconsistent
// Error: 500 Internal Server Error if creation fails
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateCreateTransaction(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToCreateTransaction.Error(), err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	transaction, err := h.ledgerService.CreateTransaction(r.Context(), userID(r), key, ledger.CreateTransactionInput{
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		Quantity:   req.Quantity,
		PriceNtd:   req.PriceNtd,
		TradeDate:  req.TradeDate,
		Type:       model.TransactionType(req.Type),
		IsDayTrade: req.IsDayTrade,
	})
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToCreateTransaction.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusCreated, transaction)
}

// CreateTransactionsBatch handles POST requests to import several trades for
// one account. Either every trade is recorded or none is.
//
// Endpoint: POST /api/portfolio/transactions/batch
// Request Body: BatchTransactionsRequest
// Response: 201 Created with array of Transaction
// Error: 400 Bad Request if validation fails or a sell exceeds open lots
// Error: 404 Not Found if the account, a symbol or a fee profile is unknown
// Error: 500 Internal Server Error if creation fails
func (h *TransactionHandler) CreateTransactionsBatch(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BatchTransactionsRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateBatchTransactions(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToCreateTransaction.Error(), err)
		return
	}

	inputs := make([]ledger.CreateTransactionInput, len(req.Transactions))
	for i, item := range req.Transactions {
		inputs[i] = ledger.CreateTransactionInput{
			AccountID:  req.AccountID,
			Symbol:     item.Symbol,
			Quantity:   item.Quantity,
			PriceNtd:   item.PriceNtd,
			TradeDate:  item.TradeDate,
			Type:       model.TransactionType(item.Type),
			IsDayTrade: item.IsDayTrade,
		}
	}

	transactions, err := h.ledgerService.CreateTransactions(r.Context(), userID(r), inputs)
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToCreateTransaction.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusCreated, transactions)
}

// ParseTransactionsResponse lists the trades read from a block of text.
type ParseTransactionsResponse struct {
	Proposals []request.TransactionProposal `json:"proposals"`
}

// ParseTransactions handles POST requests that turn pasted text into trade
// proposals. Nothing is stored; confirmed proposals go to the batch endpoint.
//
// Endpoint: POST /api/portfolio/transactions/parse
// Request Body: ParseTransactionsRequest
// Response: 200 OK with ParseTransactionsResponse
// Error: 400 Bad Request if the text or any line is invalid
func (h *TransactionHandler) ParseTransactions(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ParseTransactionsRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	proposals, err := validation.ParseTransactionText(req.Text)
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToParseTransactions.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, ParseTransactionsResponse{Proposals: proposals})
}

// Holdings handles GET requests for the caller's open positions.
//
// Endpoint: GET /api/portfolio/holdings
// Response: 200 OK with array of HoldingsRow
// Error: 409 Conflict if the ledger is inconsistent
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.ledgerService.ListHoldings(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveHoldings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, holdings)
}
