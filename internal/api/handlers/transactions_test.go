package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/testutil"
)

const (
	testUserID    = "user-1"
	testAccountID = "user-1-acc-1"
)

func buyRequest(quantity, price int64, tradeDate string) request.CreateTransactionRequest {
	return request.CreateTransactionRequest{
		AccountID: testAccountID,
		Symbol:    "2330",
		Quantity:  quantity,
		PriceNtd:  price,
		TradeDate: tradeDate,
		Type:      "BUY",
	}
}

// postTransaction sends a create request as the test user and returns the recorder.
func postTransaction(t *testing.T, handler *TransactionHandler, key string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/portfolio/transactions", body), testUserID)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)
	return w
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	setupHandler := func(t *testing.T) *TransactionHandler {
		t.Helper()
		return NewTransactionHandler(testutil.NewTestMemoryLedgerService(t))
	}

	t.Run("records a buy with fees", func(t *testing.T) {
		handler := setupHandler(t)

		w := postTransaction(t, handler, "key-1", buyRequest(1000, 100, "2024-01-02"))

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		tx := testutil.DecodeJSON[model.Transaction](t, w)
		if tx.ID == "" {
			t.Error("Expected a transaction id")
		}
		if tx.CommissionNtd != 140 {
			t.Errorf("Expected commission 140, got %d", tx.CommissionNtd)
		}
		if tx.TaxNtd != 0 {
			t.Errorf("Expected no tax on a buy, got %d", tx.TaxNtd)
		}
		if tx.InstrumentType != model.InstrumentStock {
			t.Errorf("Expected instrument STOCK, got %s", tx.InstrumentType)
		}
	})

	t.Run("normalizes symbol and type", func(t *testing.T) {
		handler := setupHandler(t)
		body := buyRequest(10, 150, "2024-01-02")
		body.Symbol = " 0050 "
		body.Type = "buy"

		w := postTransaction(t, handler, "key-1", body)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		tx := testutil.DecodeJSON[model.Transaction](t, w)
		if tx.Symbol != "0050" || tx.Type != model.TransactionBuy {
			t.Errorf("Expected 0050 BUY, got %s %s", tx.Symbol, tx.Type)
		}
	})

	t.Run("missing idempotency key returns 400", func(t *testing.T) {
		handler := setupHandler(t)

		w := postTransaction(t, handler, "", buyRequest(10, 100, "2024-01-02"))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("reused idempotency key returns 409", func(t *testing.T) {
		handler := setupHandler(t)
		if w := postTransaction(t, handler, "key-1", buyRequest(10, 100, "2024-01-02")); w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		w := postTransaction(t, handler, "key-1", buyRequest(10, 100, "2024-01-02"))

		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("invalid fields return 400 with details", func(t *testing.T) {
		handler := setupHandler(t)
		body := buyRequest(0, -1, "02-01-2024")

		w := postTransaction(t, handler, "key-1", body)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}

		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Error != "validation failed" {
			t.Errorf("Expected 'validation failed', got '%s'", resp.Error)
		}
		details, ok := resp.Details.(map[string]any)
		if !ok {
			t.Fatalf("Expected field details, got %T", resp.Details)
		}
		for _, field := range []string{"quantity", "priceNtd", "tradeDate"} {
			if _, ok := details[field]; !ok {
				t.Errorf("Expected an error for field %s, got %v", field, details)
			}
		}
	})

	t.Run("amounts whose product overflows return 400", func(t *testing.T) {
		handler := setupHandler(t)

		w := postTransaction(t, handler, "key-1", buyRequest(4_000_000_000, 4_000_000_000, "2024-01-02"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		details, ok := testutil.DecodeJSON[response.ErrorResponse](t, w).Details.(map[string]any)
		if !ok {
			t.Fatalf("Expected field details, got %s", w.Body.String())
		}
		if _, ok := details["priceNtd"]; !ok {
			t.Errorf("Expected a priceNtd error, got %v", details)
		}

		if w := postTransaction(t, handler, "key-1", buyRequest(1000, 100, "2024-01-02")); w.Code != http.StatusCreated {
			t.Errorf("Expected the key to stay unused, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		handler := setupHandler(t)

		w := postTransaction(t, handler, "key-1", "{not json")

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Error != "invalid request body" {
			t.Errorf("Expected 'invalid request body', got '%s'", resp.Error)
		}
	})

	t.Run("selling more than held returns 400", func(t *testing.T) {
		handler := setupHandler(t)
		body := buyRequest(10, 100, "2024-01-02")
		body.Type = "SELL"

		w := postTransaction(t, handler, "key-1", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown account returns 404", func(t *testing.T) {
		handler := setupHandler(t)
		body := buyRequest(10, 100, "2024-01-02")
		body.AccountID = "user-2-acc-1"

		w := postTransaction(t, handler, "key-1", body)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown symbol returns 404", func(t *testing.T) {
		handler := setupHandler(t)
		body := buyRequest(10, 100, "2024-01-02")
		body.Symbol = "9999"

		w := postTransaction(t, handler, "key-1", body)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	svc := testutil.NewTestMemoryLedgerService(t)
	handler := NewTransactionHandler(svc)

	for i, body := range []request.CreateTransactionRequest{
		buyRequest(1000, 100, "2024-01-02"),
		{AccountID: testAccountID, Symbol: "0050", Quantity: 10, PriceNtd: 150, TradeDate: "2024-02-01", Type: "BUY"},
		{AccountID: testAccountID, Symbol: "2330", Quantity: 500, PriceNtd: 120, TradeDate: "2024-03-01", Type: "SELL"},
	} {
		if w := postTransaction(t, handler, fmt.Sprintf("seed-%d", i), body); w.Code != http.StatusCreated {
			t.Fatalf("Failed to seed transaction %d: %d %s", i, w.Code, w.Body.String())
		}
	}

	tests := []struct {
		name   string
		query  map[string]string
		status int
		count  int
	}{
		{name: "no filters", query: nil, status: http.StatusOK, count: 3},
		{name: "by symbol", query: map[string]string{"symbol": "2330"}, status: http.StatusOK, count: 2},
		{name: "by type", query: map[string]string{"type": "sell"}, status: http.StatusOK, count: 1},
		{name: "by date range", query: map[string]string{"startDate": "2024-01-15", "endDate": "2024-02-15"}, status: http.StatusOK, count: 1},
		{name: "by unknown account", query: map[string]string{"accountId": "other"}, status: http.StatusOK, count: 0},
		{name: "invalid type", query: map[string]string{"type": "dividend"}, status: http.StatusBadRequest},
		{name: "inverted range", query: map[string]string{"startDate": "2024-06-01", "endDate": "2024-01-01"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AsUser(testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/transactions", tt.query), testUserID)
			w := httptest.NewRecorder()

			handler.ListTransactions(w, req)

			if w.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			txs := testutil.DecodeJSON[[]model.Transaction](t, w)
			if len(txs) != tt.count {
				t.Errorf("Expected %d transactions, got %d", tt.count, len(txs))
			}
		})
	}

	t.Run("sell carries realized pnl", func(t *testing.T) {
		req := testutil.AsUser(testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/transactions", map[string]string{"type": "SELL"}), testUserID)
		w := httptest.NewRecorder()

		handler.ListTransactions(w, req)

		txs := testutil.DecodeJSON[[]model.Transaction](t, w)
		if len(txs) != 1 || txs[0].RealizedPnlNtd == nil {
			t.Fatalf("Expected one sell with realized pnl, got %+v", txs)
		}
		if *txs[0].RealizedPnlNtd != 9_666 {
			t.Errorf("Expected realized pnl 9666, got %d", *txs[0].RealizedPnlNtd)
		}
	})
}

func TestTransactionHandler_CreateTransactionsBatch(t *testing.T) {
	setupHandler := func(t *testing.T) (*TransactionHandler, *service.LedgerService) {
		t.Helper()
		svc := testutil.NewTestMemoryLedgerService(t)
		return NewTransactionHandler(svc), svc
	}

	post := func(t *testing.T, handler *TransactionHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/portfolio/transactions/batch", body), testUserID)
		w := httptest.NewRecorder()
		handler.CreateTransactionsBatch(w, req)
		return w
	}

	t.Run("records every trade", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := post(t, handler, request.BatchTransactionsRequest{
			AccountID: testAccountID,
			Transactions: []request.BatchTransactionItem{
				{Symbol: "2330", Quantity: 1000, PriceNtd: 100, TradeDate: "2024-01-02", Type: "BUY"},
				{Symbol: "2330", Quantity: 500, PriceNtd: 120, TradeDate: "2024-02-01", Type: "SELL"},
			},
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		txs := testutil.DecodeJSON[[]model.Transaction](t, w)
		if len(txs) != 2 {
			t.Fatalf("Expected 2 transactions, got %d", len(txs))
		}
		if txs[1].TaxNtd != 180 {
			t.Errorf("Expected sell tax 180, got %d", txs[1].TaxNtd)
		}
	})

	t.Run("an oversell rejects the whole batch", func(t *testing.T) {
		handler, svc := setupHandler(t)

		w := post(t, handler, request.BatchTransactionsRequest{
			AccountID: testAccountID,
			Transactions: []request.BatchTransactionItem{
				{Symbol: "2330", Quantity: 10, PriceNtd: 100, TradeDate: "2024-01-02", Type: "BUY"},
				{Symbol: "2330", Quantity: 11, PriceNtd: 120, TradeDate: "2024-02-01", Type: "SELL"},
			},
		})

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		holdings, err := svc.ListHoldings(t.Context(), testUserID)
		if err != nil {
			t.Fatalf("ListHoldings failed: %v", err)
		}
		if len(holdings) != 0 {
			t.Errorf("Expected no holdings after a rejected batch, got %+v", holdings)
		}
	})

	t.Run("empty batch returns 400", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := post(t, handler, request.BatchTransactionsRequest{AccountID: testAccountID})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_ParseTransactions(t *testing.T) {
	parse := func(t *testing.T, handler *TransactionHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/portfolio/transactions/parse", body), testUserID)
		w := httptest.NewRecorder()
		handler.ParseTransactions(w, req)
		return w
	}

	t.Run("returns proposals without recording them", func(t *testing.T) {
		svc := testutil.NewTestMemoryLedgerService(t)
		handler := NewTransactionHandler(svc)

		w := parse(t, handler, request.ParseTransactionsRequest{Text: "buy 2330 1000 100 2024-01-02\nsell 2330 500 120 2024-02-01"})

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := testutil.DecodeJSON[ParseTransactionsResponse](t, w)
		if len(resp.Proposals) != 2 {
			t.Fatalf("Expected 2 proposals, got %d", len(resp.Proposals))
		}
		if got := resp.Proposals[1]; got.ID != "proposal-2" || got.Type != "SELL" || got.Quantity != 500 {
			t.Errorf("Unexpected second proposal: %+v", got)
		}

		transactions, err := svc.ListTransactions(context.Background(), testUserID, ledger.TransactionFilter{})
		if err != nil {
			t.Fatalf("Failed to list transactions: %v", err)
		}
		if len(transactions) != 0 {
			t.Errorf("Expected nothing recorded, got %d transactions", len(transactions))
		}
	})

	t.Run("invalid line returns 400 with details", func(t *testing.T) {
		handler := NewTransactionHandler(testutil.NewTestMemoryLedgerService(t))

		w := parse(t, handler, request.ParseTransactionsRequest{Text: "BUY 2330 0 100 2024-01-02"})

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		details, ok := testutil.DecodeJSON[response.ErrorResponse](t, w).Details.(map[string]any)
		if !ok {
			t.Fatalf("Expected field details, got %s", w.Body.String())
		}
		if _, ok := details["lines[0].quantity"]; !ok {
			t.Errorf("Expected a lines[0].quantity error, got %v", details)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		handler := NewTransactionHandler(testutil.NewTestMemoryLedgerService(t))

		w := parse(t, handler, "{not json")

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_Holdings(t *testing.T) {
	handler := NewTransactionHandler(testutil.NewTestMemoryLedgerService(t))
	if w := postTransaction(t, handler, "key-1", buyRequest(1000, 100, "2024-01-02")); w.Code != http.StatusCreated {
		t.Fatalf("Failed to seed transaction: %d %s", w.Code, w.Body.String())
	}

	req := testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/portfolio/holdings", nil), testUserID)
	w := httptest.NewRecorder()

	handler.Holdings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	rows := testutil.DecodeJSON[[]model.HoldingsRow](t, w)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 holding, got %d", len(rows))
	}
	if rows[0].Quantity != 1000 || rows[0].CostNtd != 100_140 {
		t.Errorf("Expected 1000 shares costing 100140, got %d costing %d", rows[0].Quantity, rows[0].CostNtd)
	}

	t.Run("another user sees nothing", func(t *testing.T) {
		req := testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/portfolio/holdings", nil), "user-2")
		w := httptest.NewRecorder()

		handler.Holdings(w, req)

		if rows := testutil.DecodeJSON[[]model.HoldingsRow](t, w); len(rows) != 0 {
			t.Errorf("Expected no holdings, got %+v", rows)
		}
	})
}
