package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/testutil"
)

func TestCorporateActionHandler(t *testing.T) {
	setupHandler := func(t *testing.T) (*CorporateActionHandler, *TransactionHandler) {
		t.Helper()
		svc := testutil.NewTestMemoryLedgerService(t)
		txHandler := NewTransactionHandler(svc)
		if w := postTransaction(t, txHandler, "seed", buyRequest(10, 100, "2024-01-02")); w.Code != http.StatusCreated {
			t.Fatalf("Failed to seed transaction: %d %s", w.Code, w.Body.String())
		}
		return NewCorporateActionHandler(svc), txHandler
	}

	apply := func(t *testing.T, handler *CorporateActionHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/corporate-actions", body), testUserID)
		w := httptest.NewRecorder()
		handler.ApplyCorporateAction(w, req)
		return w
	}

	holdings := func(t *testing.T, txHandler *TransactionHandler) []model.HoldingsRow {
		t.Helper()
		req := testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/portfolio/holdings", nil), testUserID)
		w := httptest.NewRecorder()
		txHandler.Holdings(w, req)
		return testutil.DecodeJSON[[]model.HoldingsRow](t, w)
	}

	t.Run("split scales quantity and keeps cost", func(t *testing.T) {
		handler, txHandler := setupHandler(t)

		w := apply(t, handler, request.CorporateActionRequest{
			AccountID:   testAccountID,
			Symbol:      "2330",
			ActionType:  "split",
			Numerator:   int64Ptr(2),
			Denominator: int64Ptr(1),
			ActionDate:  "2024-06-01",
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		action := testutil.DecodeJSON[model.CorporateAction](t, w)
		if action.ID == "" || action.ActionType != model.ActionSplit {
			t.Errorf("Expected a recorded SPLIT, got %+v", action)
		}

		rows := holdings(t, txHandler)
		if len(rows) != 1 || rows[0].Quantity != 20 || rows[0].CostNtd != 1_020 {
			t.Errorf("Expected 20 shares costing 1020, got %+v", rows)
		}
	})

	t.Run("dividend defaults the ratio and leaves lots alone", func(t *testing.T) {
		handler, txHandler := setupHandler(t)

		w := apply(t, handler, request.CorporateActionRequest{
			AccountID:  testAccountID,
			Symbol:     "2330",
			ActionType: "DIVIDEND",
			ActionDate: "2024-07-01",
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		action := testutil.DecodeJSON[model.CorporateAction](t, w)
		if action.Numerator != 1 || action.Denominator != 1 {
			t.Errorf("Expected ratio 1:1, got %d:%d", action.Numerator, action.Denominator)
		}
		if rows := holdings(t, txHandler); rows[0].Quantity != 10 {
			t.Errorf("Expected 10 shares, got %d", rows[0].Quantity)
		}
	})

	t.Run("zero ratio returns 400", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := apply(t, handler, request.CorporateActionRequest{
			AccountID:   testAccountID,
			Symbol:      "2330",
			ActionType:  "REVERSE_SPLIT",
			Numerator:   int64Ptr(1),
			Denominator: int64Ptr(0),
			ActionDate:  "2024-06-01",
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown action type returns 400", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := apply(t, handler, request.CorporateActionRequest{
			AccountID:  testAccountID,
			Symbol:     "2330",
			ActionType: "MERGER",
			ActionDate: "2024-06-01",
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown account returns 404", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := apply(t, handler, request.CorporateActionRequest{
			AccountID:  "missing",
			Symbol:     "2330",
			ActionType: "DIVIDEND",
			ActionDate: "2024-06-01",
		})

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("lists recorded actions", func(t *testing.T) {
		handler, _ := setupHandler(t)
		apply(t, handler, request.CorporateActionRequest{
			AccountID:  testAccountID,
			Symbol:     "2330",
			ActionType: "DIVIDEND",
			ActionDate: "2024-07-01",
		})

		req := testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/corporate-actions", nil), testUserID)
		w := httptest.NewRecorder()
		handler.ListCorporateActions(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if actions := testutil.DecodeJSON[[]model.CorporateAction](t, w); len(actions) != 1 {
			t.Errorf("Expected 1 action, got %d", len(actions))
		}
	})
}
