package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/testutil"
)

func TestSettingsHandler_Settings(t *testing.T) {
	setupHandler := func(t *testing.T) *SettingsHandler {
		t.Helper()
		return NewSettingsHandler(testutil.NewTestMemoryLedgerService(t))
	}

	patch := func(t *testing.T, handler *SettingsHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPatch, "/api/settings", body), testUserID)
		w := httptest.NewRecorder()
		handler.UpdateSettings(w, req)
		return w
	}

	t.Run("returns defaults for a new user", func(t *testing.T) {
		handler := setupHandler(t)
		req := testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/settings", nil), testUserID)
		w := httptest.NewRecorder()

		handler.GetSettings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		settings := testutil.DecodeJSON[model.Settings](t, w)
		if settings.CostBasisMethod != model.FIFO {
			t.Errorf("Expected FIFO, got %s", settings.CostBasisMethod)
		}
		if settings.UserID != testUserID {
			t.Errorf("Expected user %s, got %s", testUserID, settings.UserID)
		}
	})

	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		handler := setupHandler(t)

		w := patch(t, handler, `{"costBasisMethod":"LIFO"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		settings := testutil.DecodeJSON[model.Settings](t, w)
		if settings.CostBasisMethod != model.LIFO {
			t.Errorf("Expected LIFO, got %s", settings.CostBasisMethod)
		}
		if settings.Locale != model.LocaleEN {
			t.Errorf("Expected locale to stay en, got %s", settings.Locale)
		}
	})

	t.Run("invalid values return 400", func(t *testing.T) {
		handler := setupHandler(t)

		w := patch(t, handler, `{"locale":"fr","quotePollIntervalSeconds":0}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		details, ok := resp.Details.(map[string]any)
		if !ok {
			t.Fatalf("Expected field details, got %T", resp.Details)
		}
		if _, ok := details["locale"]; !ok {
			t.Errorf("Expected a locale error, got %v", details)
		}
	})
}

func TestSettingsHandler_ReplaceSettingsFull(t *testing.T) {
	setupHandler := func(t *testing.T) (*SettingsHandler, *service.LedgerService) {
		t.Helper()
		svc := testutil.NewTestMemoryLedgerService(t)
		return NewSettingsHandler(svc), svc
	}

	put := func(t *testing.T, handler *SettingsHandler, body request.FullSettingsRequest) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPut, "/api/settings/full", body), testUserID)
		w := httptest.NewRecorder()
		handler.ReplaceSettingsFull(w, req)
		return w
	}

	values := request.FullSettingsValues{Locale: "zh-TW", CostBasisMethod: "LIFO", QuotePollIntervalSeconds: 30}

	t.Run("new profiles are referenced by temp id", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := put(t, handler, request.FullSettingsRequest{
			Settings: values,
			FeeProfiles: []request.FeeProfileDraftRequest{
				{ID: "user-1-fp-default", FeeProfileRequest: zeroFeeRequest("Default Broker")},
				{TempID: "tmp-1", FeeProfileRequest: zeroFeeRequest("Discount")},
			},
			Accounts: []request.AccountRefRequest{{ID: testAccountID, FeeProfileRef: "tmp-1"}},
			FeeProfileBindings: []request.BindingRefRequest{
				{AccountID: testAccountID, Symbol: "0050", FeeProfileRef: "user-1-fp-default"},
			},
		})

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		result := testutil.DecodeJSON[service.FullSettingsResult](t, w)
		if len(result.FeeProfiles) != 2 {
			t.Fatalf("Expected 2 profiles, got %d", len(result.FeeProfiles))
		}
		newID := result.FeeProfiles[1].ID
		if newID == "" || newID == "tmp-1" {
			t.Errorf("Expected a generated id for the temp profile, got '%s'", newID)
		}
		if result.Accounts[0].FeeProfileID != newID {
			t.Errorf("Expected account to use %s, got %s", newID, result.Accounts[0].FeeProfileID)
		}
		if result.Settings.Locale != model.LocaleZhTW {
			t.Errorf("Expected locale zh-TW, got %s", result.Settings.Locale)
		}
	})

	t.Run("unresolvable reference returns 400", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := put(t, handler, request.FullSettingsRequest{
			Settings:    values,
			FeeProfiles: []request.FeeProfileDraftRequest{{ID: "user-1-fp-default", FeeProfileRequest: zeroFeeRequest("Default Broker")}},
			Accounts:    []request.AccountRefRequest{{ID: testAccountID, FeeProfileRef: "tmp-missing"}},
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("an inconsistent result returns 409 and keeps state", func(t *testing.T) {
		handler, svc := setupHandler(t)

		w := put(t, handler, request.FullSettingsRequest{
			Settings:    values,
			FeeProfiles: []request.FeeProfileDraftRequest{{TempID: "only", FeeProfileRequest: zeroFeeRequest("Only")}},
		})

		if w.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
		resp := testutil.DecodeJSON[response.ErrorResponse](t, w)
		if resp.Details == nil {
			t.Error("Expected the integrity issue in details")
		}

		settings, err := svc.GetSettings(t.Context(), testUserID)
		if err != nil {
			t.Fatalf("GetSettings failed: %v", err)
		}
		if settings.CostBasisMethod != model.FIFO {
			t.Errorf("Expected settings to be unchanged, got %s", settings.CostBasisMethod)
		}
	})

	t.Run("a draft without id or temp id returns 400", func(t *testing.T) {
		handler, _ := setupHandler(t)

		w := put(t, handler, request.FullSettingsRequest{
			Settings:    values,
			FeeProfiles: []request.FeeProfileDraftRequest{{FeeProfileRequest: zeroFeeRequest("Nameless")}},
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestSettingsHandler_FeeConfig(t *testing.T) {
	handler := NewSettingsHandler(testutil.NewTestMemoryLedgerService(t))

	get := func(t *testing.T) service.FeeConfig {
		t.Helper()
		req := testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/settings/fee-config", nil), testUserID)
		w := httptest.NewRecorder()
		handler.GetFeeConfig(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		return testutil.DecodeJSON[service.FeeConfig](t, w)
	}

	put := func(t *testing.T, body request.FeeConfigRequest) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPut, "/api/settings/fee-config", body), testUserID)
		w := httptest.NewRecorder()
		handler.ReplaceFeeConfig(w, req)
		return w
	}

	t.Run("seeded configuration is consistent", func(t *testing.T) {
		cfg := get(t)

		if len(cfg.Accounts) != 1 || len(cfg.FeeProfiles) != 1 {
			t.Errorf("Expected 1 account and 1 profile, got %d and %d", len(cfg.Accounts), len(cfg.FeeProfiles))
		}
		if cfg.IntegrityIssue != nil {
			t.Errorf("Expected no integrity issue, got %+v", cfg.IntegrityIssue)
		}
	})

	t.Run("replaces bindings", func(t *testing.T) {
		w := put(t, request.FeeConfigRequest{
			Accounts: []request.AccountProfileRequest{{ID: testAccountID, FeeProfileID: "user-1-fp-default"}},
			FeeProfileBindings: []request.BindingRequest{
				{AccountID: testAccountID, Symbol: "0050", FeeProfileID: "user-1-fp-default"},
			},
		})

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if cfg := get(t); len(cfg.FeeProfileBindings) != 1 {
			t.Errorf("Expected 1 binding, got %d", len(cfg.FeeProfileBindings))
		}
	})

	t.Run("binding to an unknown profile returns 400", func(t *testing.T) {
		w := put(t, request.FeeConfigRequest{
			FeeProfileBindings: []request.BindingRequest{
				{AccountID: testAccountID, Symbol: "0050", FeeProfileID: "ghost"},
			},
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown account returns 404", func(t *testing.T) {
		w := put(t, request.FeeConfigRequest{
			Accounts: []request.AccountProfileRequest{{ID: "missing", FeeProfileID: "user-1-fp-default"}},
		})

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
