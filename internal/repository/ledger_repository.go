package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// LedgerRepository stores one ledger per user in SQLite.
// Save replaces every per-user row inside a single SQL transaction.
type LedgerRepository struct {
	db *sql.DB

	// userMissing runs after Load finds no user row and before it seeds one.
	userMissing func()
}

// NewLedgerRepository creates a new LedgerRepository with the provided database connection.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Load returns the ledger of userID. A user seen for the first time is seeded
// with default settings, the default fee profile and one account. Seeding
// never overwrites rows written by a concurrent first Save.
func (r *LedgerRepository) Load(ctx context.Context, userID string) (*model.Ledger, error) {
	l, err := r.read(ctx, userID)
	if !errors.Is(err, sql.ErrNoRows) {
		return l, err
	}

	if r.userMissing != nil {
		r.userMissing()
	}
	if err := r.seed(ctx, userID); err != nil {
		return nil, err
	}

	l, err = r.read(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s vanished after seeding", apperrors.ErrPersistence, userID)
	}
	return l, err
}

// read loads every row of userID inside one read transaction. It returns
// sql.ErrNoRows when the user does not exist.
func (r *LedgerRepository) read(ctx context.Context, userID string) (*model.Ledger, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	l := &model.Ledger{UserID: userID}
	err = tx.QueryRowContext(ctx, `
		SELECT locale, cost_basis_method, quote_poll_interval_seconds
		FROM users
		WHERE id = ?
	`, userID).Scan(&l.Settings.Locale, &l.Settings.CostBasisMethod, &l.Settings.QuotePollIntervalSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query user settings: %w", apperrors.ErrPersistence, err)
	}
	l.Settings.UserID = userID

	loaders := []func(context.Context, querier, *model.Ledger) error{
		loadFeeProfiles,
		loadAccounts,
		loadBindings,
		loadTransactions,
		loadLots,
		loadCorporateActions,
		loadRecomputeJobs,
	}
	for _, load := range loaders {
		if err := load(ctx, tx, l); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
		}
	}

	if l.Symbols, err = loadSymbols(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
	}

	return l, nil
}

// seed writes the default ledger of userID if no user row exists yet. When
// another writer created the user first, seed leaves its rows alone.
func (r *LedgerRepository) seed(ctx context.Context, userID string) (err error) {
	seeded := ledger.NewLedger(userID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, locale, cost_basis_method, quote_poll_interval_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, userID, seeded.Settings.Locale, seeded.Settings.CostBasisMethod, seeded.Settings.QuotePollIntervalSeconds)
	if err != nil {
		return fmt.Errorf("%w: failed to insert user: %w", apperrors.ErrPersistence, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check inserted user: %w", apperrors.ErrPersistence, err)
	}
	if inserted == 0 {
		return tx.Rollback()
	}

	writers := []func(context.Context, querier, *model.Ledger) error{
		writeFeeProfiles,
		writeAccounts,
	}
	for _, write := range writers {
		if err = write(ctx, tx, seeded); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

// Save validates l and atomically replaces the stored ledger of l.UserID.
// Nothing is written when validation or any statement fails.
func (r *LedgerRepository) Save(ctx context.Context, l *model.Ledger) error {
	if err := ledger.AssertIntegrity(l); err != nil {
		return err
	}
	return r.replace(ctx, l)
}

func (r *LedgerRepository) replace(ctx context.Context, l *model.Ledger) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	writers := []func(context.Context, querier, *model.Ledger) error{
		deleteUserRows,
		writeUser,
		writeFeeProfiles,
		writeAccounts,
		writeBindings,
		writeTransactions,
		writeLots,
		writeCorporateActions,
		writeRecomputeJobs,
	}
	for _, write := range writers {
		if err = write(ctx, tx, l); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func loadSymbols(ctx context.Context, q querier) ([]model.SymbolDef, error) {
	rows, err := q.QueryContext(ctx, `SELECT ticker, instrument_type FROM symbol ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol table: %w", err)
	}
	defer rows.Close()

	symbols := []model.SymbolDef{}
	for rows.Next() {
		var s model.SymbolDef
		if err := rows.Scan(&s.Ticker, &s.Type); err != nil {
			return nil, fmt.Errorf("failed to scan symbol table results: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol table: %w", err)
	}
	return symbols, nil
}

func loadFeeProfiles(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, commission_rate_bps, commission_discount_bps, min_commission_ntd,
		       commission_rounding_mode, tax_rounding_mode, stock_sell_tax_rate_bps,
		       stock_day_trade_tax_rate_bps, etf_sell_tax_rate_bps, bond_etf_sell_tax_rate_bps
		FROM fee_profile
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query fee_profile table: %w", err)
	}
	defer rows.Close()

	l.FeeProfiles = []model.FeeProfile{}
	for rows.Next() {
		var p model.FeeProfile
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.CommissionRateBps,
			&p.CommissionDiscountBps,
			&p.MinCommissionNtd,
			&p.CommissionRoundingMode,
			&p.TaxRoundingMode,
			&p.StockSellTaxRateBps,
			&p.StockDayTradeTaxRateBps,
			&p.EtfSellTaxRateBps,
			&p.BondEtfSellTaxRateBps,
		)
		if err != nil {
			return fmt.Errorf("failed to scan fee_profile table results: %w", err)
		}
		l.FeeProfiles = append(l.FeeProfiles, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating fee_profile table: %w", err)
	}
	return nil
}

func loadAccounts(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, name, fee_profile_id
		FROM account
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query account table: %w", err)
	}
	defer rows.Close()

	l.Accounts = []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.FeeProfileID); err != nil {
			return fmt.Errorf("failed to scan account table results: %w", err)
		}
		l.Accounts = append(l.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating account table: %w", err)
	}
	return nil
}

func loadBindings(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT account_id, symbol, fee_profile_id
		FROM account_fee_profile_override
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query account_fee_profile_override table: %w", err)
	}
	defer rows.Close()

	l.FeeProfileBindings = []model.FeeProfileBinding{}
	for rows.Next() {
		var b model.FeeProfileBinding
		if err := rows.Scan(&b.AccountID, &b.Symbol, &b.FeeProfileID); err != nil {
			return fmt.Errorf("failed to scan account_fee_profile_override table results: %w", err)
		}
		l.FeeProfileBindings = append(l.FeeProfileBindings, b)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating account_fee_profile_override table: %w", err)
	}
	return nil
}

func loadTransactions(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, account_id, symbol, instrument_type, type, quantity, price_ntd,
		       trade_date, commission_ntd, tax_ntd, is_day_trade, fee_snapshot, realized_pnl_ntd
		FROM "transaction"
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	l.Transactions = []model.Transaction{}
	for rows.Next() {
		var (
			t        model.Transaction
			snapshot string
			pnl      sql.NullInt64
		)
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.AccountID,
			&t.Symbol,
			&t.InstrumentType,
			&t.Type,
			&t.Quantity,
			&t.PriceNtd,
			&t.TradeDate,
			&t.CommissionNtd,
			&t.TaxNtd,
			&t.IsDayTrade,
			&snapshot,
			&pnl,
		)
		if err != nil {
			return fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		if err := json.Unmarshal([]byte(snapshot), &t.FeeSnapshot); err != nil {
			return fmt.Errorf("failed to decode fee snapshot of transaction %s: %w", t.ID, err)
		}
		if pnl.Valid {
			v := pnl.Int64
			t.RealizedPnlNtd = &v
		}
		l.Transactions = append(l.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating transaction table: %w", err)
	}
	return nil
}

func loadLots(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, account_id, symbol, open_quantity, total_cost_ntd, opened_at
		FROM lot
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query lot table: %w", err)
	}
	defer rows.Close()

	l.Lots = []model.Lot{}
	for rows.Next() {
		var lot model.Lot
		if err := rows.Scan(&lot.ID, &lot.AccountID, &lot.Symbol, &lot.OpenQuantity, &lot.TotalCostNtd, &lot.OpenedAt); err != nil {
			return fmt.Errorf("failed to scan lot table results: %w", err)
		}
		l.Lots = append(l.Lots, lot)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating lot table: %w", err)
	}
	return nil
}

func loadCorporateActions(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, account_id, symbol, action_type, numerator, denominator, action_date
		FROM corporate_action
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query corporate_action table: %w", err)
	}
	defer rows.Close()

	l.CorporateActions = []model.CorporateAction{}
	for rows.Next() {
		var a model.CorporateAction
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Symbol, &a.ActionType, &a.Numerator, &a.Denominator, &a.ActionDate); err != nil {
			return fmt.Errorf("failed to scan corporate_action table results: %w", err)
		}
		l.CorporateActions = append(l.CorporateActions, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating corporate_action table: %w", err)
	}
	return nil
}

func loadRecomputeJobs(ctx context.Context, q querier, l *model.Ledger) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, account_id, profile_id, status, created_at
		FROM recompute_job
		WHERE user_id = ?
		ORDER BY position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query recompute_job table: %w", err)
	}

	l.RecomputeJobs = []model.RecomputeJob{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			job       model.RecomputeJob
			accountID sql.NullString
			createdAt string
		)
		if err := rows.Scan(&job.ID, &job.UserID, &accountID, &job.ProfileID, &job.Status, &createdAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recompute_job table results: %w", err)
		}
		job.AccountID = accountID.String
		if job.CreatedAt, err = ParseTime(createdAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to parse created_at of recompute job %s: %w", job.ID, err)
		}
		job.Items = []model.RecomputeItem{}
		index[job.ID] = len(l.RecomputeJobs)
		l.RecomputeJobs = append(l.RecomputeJobs, job)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating recompute_job table: %w", err)
	}
	rows.Close()

	itemRows, err := q.QueryContext(ctx, `
		SELECT i.job_id, i.transaction_id, i.previous_commission_ntd, i.previous_tax_ntd,
		       i.next_commission_ntd, i.next_tax_ntd
		FROM recompute_job_item i
		JOIN recompute_job j ON j.id = i.job_id
		WHERE j.user_id = ?
		ORDER BY j.position, i.position
	`, l.UserID)
	if err != nil {
		return fmt.Errorf("failed to query recompute_job_item table: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			jobID string
			item  model.RecomputeItem
		)
		err := itemRows.Scan(
			&jobID,
			&item.TransactionID,
			&item.PreviousCommissionNtd,
			&item.PreviousTaxNtd,
			&item.NextCommissionNtd,
			&item.NextTaxNtd,
		)
		if err != nil {
			return fmt.Errorf("failed to scan recompute_job_item table results: %w", err)
		}
		if i, ok := index[jobID]; ok {
			l.RecomputeJobs[i].Items = append(l.RecomputeJobs[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("error iterating recompute_job_item table: %w", err)
	}
	return nil
}

func deleteUserRows(ctx context.Context, q querier, l *model.Ledger) error {
	statements := []string{
		`DELETE FROM recompute_job_item WHERE job_id IN (SELECT id FROM recompute_job WHERE user_id = ?)`,
		`DELETE FROM recompute_job WHERE user_id = ?`,
		`DELETE FROM corporate_action WHERE user_id = ?`,
		`DELETE FROM lot WHERE user_id = ?`,
		`DELETE FROM "transaction" WHERE user_id = ?`,
		`DELETE FROM account_fee_profile_override WHERE user_id = ?`,
		`DELETE FROM account WHERE user_id = ?`,
		`DELETE FROM fee_profile WHERE user_id = ?`,
	}
	for _, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt, l.UserID); err != nil {
			return fmt.Errorf("failed to clear ledger rows: %w", err)
		}
	}
	return nil
}

func writeUser(ctx context.Context, q querier, l *model.Ledger) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, locale, cost_basis_method, quote_poll_interval_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			locale = excluded.locale,
			cost_basis_method = excluded.cost_basis_method,
			quote_poll_interval_seconds = excluded.quote_poll_interval_seconds
	`, l.UserID, l.Settings.Locale, l.Settings.CostBasisMethod, l.Settings.QuotePollIntervalSeconds)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func writeFeeProfiles(ctx context.Context, q querier, l *model.Ledger) error {
	query := `
		INSERT INTO fee_profile (
			id, user_id, position, name, commission_rate_bps, commission_discount_bps,
			min_commission_ntd, commission_rounding_mode, tax_rounding_mode,
			stock_sell_tax_rate_bps, stock_day_trade_tax_rate_bps, etf_sell_tax_rate_bps,
			bond_etf_sell_tax_rate_bps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, p := range l.FeeProfiles {
		_, err := q.ExecContext(ctx, query,
			p.ID,
			l.UserID,
			i,
			p.Name,
			p.CommissionRateBps,
			p.CommissionDiscountBps,
			p.MinCommissionNtd,
			p.CommissionRoundingMode,
			p.TaxRoundingMode,
			p.StockSellTaxRateBps,
			p.StockDayTradeTaxRateBps,
			p.EtfSellTaxRateBps,
			p.BondEtfSellTaxRateBps,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fee profile %s: %w", p.ID, err)
		}
	}
	return nil
}

func writeAccounts(ctx context.Context, q querier, l *model.Ledger) error {
	query := `
		INSERT INTO account (id, user_id, position, name, fee_profile_id)
		VALUES (?, ?, ?, ?, ?)
	`
	for i, a := range l.Accounts {
		if _, err := q.ExecContext(ctx, query, a.ID, a.UserID, i, a.Name, a.FeeProfileID); err != nil {
			return fmt.Errorf("failed to insert account %s: %w", a.ID, err)
		}
	}
	return nil
}

func writeBindings(ctx context.Context, q querier, l *model.Ledger) error {
	query := `
		INSERT INTO account_fee_profile_override (user_id, account_id, symbol, fee_profile_id, position)
		VALUES (?, ?, ?, ?, ?)
	`
	for i, b := range l.FeeProfileBindings {
		if _, err := q.ExecContext(ctx, query, l.UserID, b.AccountID, b.Symbol, b.FeeProfileID, i); err != nil {
			return fmt.Errorf("failed to insert fee profile binding %s/%s: %w", b.AccountID, b.Symbol, err)
		}
	}
	return nil
}

func writeTransactions(ctx context.Context, q querier, l *model.Ledger) error {
	query := `
		INSERT INTO "transaction" (
			id, user_id, position, account_id, symbol, instrument_type, type, quantity,
			price_ntd, trade_date, commission_ntd, tax_ntd, is_day_trade, fee_snapshot,
			realized_pnl_ntd
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, t := range l.Transactions {
		snapshot, err := json.Marshal(t.FeeSnapshot)
		if err != nil {
			return fmt.Errorf("failed to encode fee snapshot of transaction %s: %w", t.ID, err)
		}
		var pnl sql.NullInt64
		if t.RealizedPnlNtd != nil {
			pnl = sql.NullInt64{Int64: *t.RealizedPnlNtd, Valid: true}
		}

		_, err = q.ExecContext(ctx, query,
			t.ID,
			t.UserID,
			i,
			t.AccountID,
			t.Symbol,
			t.InstrumentType,
			t.Type,
			t.Quantity,
			t.PriceNtd,
			t.TradeDate,
			t.CommissionNtd,
			t.TaxNtd,
			t.IsDayTrade,
			string(snapshot),
			pnl,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

func writeLots(ctx context.Context, q querier, l *model.Ledger) error {
	query := `
		INSERT INTO lot (id, user_id, position, account_id, symbol, open_quantity, total_cost_ntd, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, lot := range l.Lots {
		_, err := q.ExecContext(ctx, query,
			lot.ID, l.UserID, i, lot.AccountID, lot.Symbol, lot.OpenQuantity, lot.TotalCostNtd, lot.OpenedAt)
		if err != nil {
			return fmt.Errorf("failed to insert lot %s: %w", lot.ID, err)
		}
	}
	return nil
}

func writeCorporateActions(ctx context.Context, q querier, l *model.Ledger) error {
	query := `
		INSERT INTO corporate_action (id, user_id, position, account_id, symbol, action_type, numerator, denominator, action_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, a := range l.CorporateActions {
		_, err := q.ExecContext(ctx, query,
			a.ID, l.UserID, i, a.AccountID, a.Symbol, a.ActionType, a.Numerator, a.Denominator, a.ActionDate)
		if err != nil {
			return fmt.Errorf("failed to insert corporate action %s: %w", a.ID, err)
		}
	}
	return nil
}

func writeRecomputeJobs(ctx context.Context, q querier, l *model.Ledger) error {
	jobQuery := `
		INSERT INTO recompute_job (id, user_id, position, account_id, profile_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	itemQuery := `
		INSERT INTO recompute_job_item (
			job_id, position, transaction_id, previous_commission_ntd, previous_tax_ntd,
			next_commission_ntd, next_tax_ntd
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, job := range l.RecomputeJobs {
		accountID := sql.NullString{String: job.AccountID, Valid: job.AccountID != ""}
		_, err := q.ExecContext(ctx, jobQuery,
			job.ID, job.UserID, i, accountID, job.ProfileID, job.Status, FormatTime(job.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert recompute job %s: %w", job.ID, err)
		}

		for j, item := range job.Items {
			_, err := q.ExecContext(ctx, itemQuery,
				job.ID,
				j,
				item.TransactionID,
				item.PreviousCommissionNtd,
				item.PreviousTaxNtd,
				item.NextCommissionNtd,
				item.NextTaxNtd,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %d of recompute job %s: %w", j, job.ID, err)
			}
		}
	}
	return nil
}
