package storage

// sqlite.go — persistencia del banco en SQLite (pure Go, sin CGo).
//
// Dos documentos lógicos, read-modify-write completo:
//   - `credit_model`: una fila única con los parámetros del modelo.
//   - `loans` + `ledger_totals`: el libro de préstamos. El orden de
//     inserción (seq autoincrement) ES el orden de desembolso — de ahí sale
//     la prioridad de repago, así que SaveLedger reescribe el documento
//     entero para no romperlo.
// Un solo writer a la vez; last writer wins. Si un documento no existe
// todavía se sintetiza el valor por defecto — la ausencia no es error.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/troyrocket/universe-bank/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Documento único con el estado del modelo de crédito
CREATE TABLE IF NOT EXISTS credit_model (
    id                  INTEGER PRIMARY KEY CHECK (id = 1),
    version             INTEGER NOT NULL,
    w_tx_count          REAL    NOT NULL,
    w_repayment_rate    REAL    NOT NULL,
    w_pool_deposits     REAL    NOT NULL,
    w_identity          REAL    NOT NULL,
    w_account_age       REAL    NOT NULL,
    w_avg_loan_size     REAL    NOT NULL,
    bias                REAL    NOT NULL,
    threshold           REAL    NOT NULL,
    max_loan_multiplier REAL    NOT NULL,
    base_interest_rate  REAL    NOT NULL,
    risk_premium_factor REAL    NOT NULL,
    learning_rate       REAL    NOT NULL,
    training_samples    INTEGER NOT NULL,
    updated_at          TEXT    NOT NULL
);

-- Libro de préstamos: una fila por préstamo, seq = orden de desembolso
CREATE TABLE IF NOT EXISTS loans (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    id                   TEXT NOT NULL UNIQUE,
    borrower             TEXT NOT NULL,
    amount               REAL NOT NULL,
    interest_rate        REAL NOT NULL,
    score_at_origination INTEGER NOT NULL,
    status               TEXT NOT NULL,
    disbursed_at         TEXT NOT NULL,
    due_at               TEXT NOT NULL,
    repaid_amount        REAL NOT NULL DEFAULT 0,
    repaid_at            TEXT,
    defaulted_at         TEXT
);

-- Totales acumulados del libro
CREATE TABLE IF NOT EXISTS ledger_totals (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    total_disbursed REAL NOT NULL DEFAULT 0,
    total_repaid    REAL NOT NULL DEFAULT 0,
    total_defaulted REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower);
CREATE INDEX IF NOT EXISTS idx_loans_status   ON loans(status);
`

// SQLiteStorage implementa ports.BankStorage usando SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// LoadModel devuelve el modelo persistido, o DefaultModel() si nunca se
// guardó uno.
func (s *SQLiteStorage) LoadModel(ctx context.Context) (domain.ModelParams, error) {
	var m domain.ModelParams
	var updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT version, w_tx_count, w_repayment_rate, w_pool_deposits,
		       w_identity, w_account_age, w_avg_loan_size,
		       bias, threshold, max_loan_multiplier, base_interest_rate,
		       risk_premium_factor, learning_rate, training_samples, updated_at
		FROM credit_model WHERE id = 1
	`).Scan(
		&m.Version,
		&m.Weights.TransactionCount,
		&m.Weights.RepaymentRate,
		&m.Weights.PoolDeposits,
		&m.Weights.IdentityRegistered,
		&m.Weights.AccountAge,
		&m.Weights.AvgLoanSize,
		&m.Bias,
		&m.Threshold,
		&m.MaxLoanMultiplier,
		&m.BaseInterestRate,
		&m.RiskPremiumFactor,
		&m.LearningRate,
		&m.TrainingSamples,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.DefaultModel(), nil
	}
	if err != nil {
		return domain.ModelParams{}, fmt.Errorf("storage.LoadModel: query: %w", err)
	}
	return m, nil
}

// SaveModel sobreescribe el documento del modelo completo.
func (s *SQLiteStorage) SaveModel(ctx context.Context, m domain.ModelParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_model
			(id, version, w_tx_count, w_repayment_rate, w_pool_deposits,
			 w_identity, w_account_age, w_avg_loan_size, bias, threshold,
			 max_loan_multiplier, base_interest_rate, risk_premium_factor,
			 learning_rate, training_samples, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version             = excluded.version,
			w_tx_count          = excluded.w_tx_count,
			w_repayment_rate    = excluded.w_repayment_rate,
			w_pool_deposits     = excluded.w_pool_deposits,
			w_identity          = excluded.w_identity,
			w_account_age       = excluded.w_account_age,
			w_avg_loan_size     = excluded.w_avg_loan_size,
			bias                = excluded.bias,
			threshold           = excluded.threshold,
			max_loan_multiplier = excluded.max_loan_multiplier,
			base_interest_rate  = excluded.base_interest_rate,
			risk_premium_factor = excluded.risk_premium_factor,
			learning_rate       = excluded.learning_rate,
			training_samples    = excluded.training_samples,
			updated_at          = excluded.updated_at
	`,
		m.Version,
		m.Weights.TransactionCount,
		m.Weights.RepaymentRate,
		m.Weights.PoolDeposits,
		m.Weights.IdentityRegistered,
		m.Weights.AccountAge,
		m.Weights.AvgLoanSize,
		m.Bias,
		m.Threshold,
		m.MaxLoanMultiplier,
		m.BaseInterestRate,
		m.RiskPremiumFactor,
		m.LearningRate,
		m.TrainingSamples,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveModel: upsert: %w", err)
	}
	return nil
}

// LoadLedger devuelve el libro completo en orden de desembolso, o uno
// vacío si nunca se guardó nada.
func (s *SQLiteStorage) LoadLedger(ctx context.Context) (domain.Ledger, error) {
	var lg domain.Ledger

	err := s.db.QueryRowContext(ctx,
		`SELECT total_disbursed, total_repaid, total_defaulted FROM ledger_totals WHERE id = 1`,
	).Scan(&lg.TotalDisbursed, &lg.TotalRepaid, &lg.TotalDefaulted)
	if err != nil && err != sql.ErrNoRows {
		return domain.Ledger{}, fmt.Errorf("storage.LoadLedger: totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, borrower, amount, interest_rate, score_at_origination,
		       status, disbursed_at, due_at, repaid_amount, repaid_at, defaulted_at
		FROM loans ORDER BY seq
	`)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("storage.LoadLedger: query loans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Loan
		var status, disbursedAt, dueAt string
		var repaidAt, defaultedAt sql.NullString

		if err := rows.Scan(
			&l.ID, &l.Borrower, &l.Amount, &l.InterestRate,
			&l.CreditScoreAtOrigination, &status, &disbursedAt, &dueAt,
			&l.RepaidAmount, &repaidAt, &defaultedAt,
		); err != nil {
			return domain.Ledger{}, fmt.Errorf("storage.LoadLedger: scan loan: %w", err)
		}

		l.Status = domain.LoanStatus(status)
		l.DisbursedAt = parseTime(disbursedAt)
		l.DueAt = parseTime(dueAt)
		if repaidAt.Valid {
			t := parseTime(repaidAt.String)
			l.RepaidAt = &t
		}
		if defaultedAt.Valid {
			t := parseTime(defaultedAt.String)
			l.DefaultedAt = &t
		}
		lg.Loans = append(lg.Loans, l)
	}

	return lg, rows.Err()
}

// SaveLedger reescribe el libro completo en una transacción. Reinsertar en
// orden preserva seq como orden de desembolso.
func (s *SQLiteStorage) SaveLedger(ctx context.Context, lg domain.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveLedger: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM loans`); err != nil {
		return fmt.Errorf("storage.SaveLedger: clear loans: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO loans
			(id, borrower, amount, interest_rate, score_at_origination,
			 status, disbursed_at, due_at, repaid_amount, repaid_at, defaulted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveLedger: prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range lg.Loans {
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.Borrower, l.Amount, l.InterestRate,
			l.CreditScoreAtOrigination, string(l.Status),
			formatTime(l.DisbursedAt), formatTime(l.DueAt),
			l.RepaidAmount, formatTimePtr(l.RepaidAt), formatTimePtr(l.DefaultedAt),
		); err != nil {
			return fmt.Errorf("storage.SaveLedger: insert %s: %w", l.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_totals (id, total_disbursed, total_repaid, total_defaulted)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_disbursed = excluded.total_disbursed,
			total_repaid    = excluded.total_repaid,
			total_defaulted = excluded.total_defaulted
	`, lg.TotalDisbursed, lg.TotalRepaid, lg.TotalDefaulted); err != nil {
		return fmt.Errorf("storage.SaveLedger: totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveLedger: commit: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
