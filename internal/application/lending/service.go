package lending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/troyrocket/universe-bank/internal/domain"
	"github.com/troyrocket/universe-bank/internal/ports"
)

// repayEpsilon: margen para considerar un préstamo saldado a pesar del
// ruido de coma flotante en amount·(1+rate).
const repayEpsilon = 0.01

var (
	// ErrInvalidAmount: el monto no es un número positivo. Se rechaza
	// antes de tocar ningún estado.
	ErrInvalidAmount = errors.New("lending: amount must be a positive number")

	// ErrNoActiveLoan: repago sin préstamos activos. Ningún cambio parcial.
	ErrNoActiveLoan = errors.New("lending: no active loans found")
)

// Service orquesta el ciclo de vida de los préstamos reales (no simulados)
// contra el modelo y el libro persistidos. Un solo caller a la vez — el
// estado compartido no asume escritores concurrentes.
type Service struct {
	store    ports.BankStorage
	identity ports.Identity
	term     time.Duration
}

// New crea el servicio de préstamos. term es el plazo fijo de cada préstamo.
func New(store ports.BankStorage, identity ports.Identity, term time.Duration) *Service {
	return &Service{store: store, identity: identity, term: term}
}

// ApplicationResult is the decision plus the loan created on approval.
type ApplicationResult struct {
	domain.Decision
	Loan *domain.Loan `json:"loan,omitempty"`
}

// RepaymentResult reports how a payment was applied to the oldest loan.
type RepaymentResult struct {
	Loan             domain.Loan `json:"loan"`
	AmountApplied    float64     `json:"amountApplied"`
	RemainingBalance float64     `json:"remainingBalance"`
	FullyRepaid      bool        `json:"fullyRepaid"`
}

// CreditReport is the borrower-facing score breakdown.
type CreditReport struct {
	Score        int             `json:"score"`
	MinScore     int             `json:"minScore"`
	Features     domain.Features `json:"features"`
	ModelVersion int             `json:"modelVersion"`
	MaxEligible  float64         `json:"maxEligible"`
	InterestRate float64         `json:"interestRate"`
}

// ApplyForLoan evalúa y, si aprueba, desembolsa. Cadena completa:
// señales del borrower → features → score → política → préstamo persistido.
// En denegación no se persiste nada; la decisión se devuelve igualmente.
func (s *Service) ApplyForLoan(ctx context.Context, borrower string, amount float64) (ApplicationResult, error) {
	if err := validAmount(amount); err != nil {
		return ApplicationResult{}, err
	}

	model, err := s.store.LoadModel(ctx)
	if err != nil {
		return ApplicationResult{}, fmt.Errorf("lending.ApplyForLoan: %w", err)
	}
	ledger, err := s.store.LoadLedger(ctx)
	if err != nil {
		return ApplicationResult{}, fmt.Errorf("lending.ApplyForLoan: %w", err)
	}

	features := s.borrowerFeatures(ctx, &ledger, borrower)
	score := domain.CalculateCreditScore(features, model)
	decision := domain.EvaluateLoanApplication(score, amount, model)

	if !decision.Approved {
		slog.Debug("loan denied", "borrower", borrower, "score", score, "reason", decision.Reason)
		return ApplicationResult{Decision: decision}, nil
	}

	loan := domain.NewLoan(borrower, amount, decision.InterestRate, score, time.Now().UTC(), s.term)
	ledger.Add(loan)

	if err := s.store.SaveLedger(ctx, ledger); err != nil {
		return ApplicationResult{}, fmt.Errorf("lending.ApplyForLoan: persist ledger: %w", err)
	}

	slog.Info("loan disbursed",
		"loan_id", loan.ID,
		"borrower", borrower,
		"amount", amount,
		"rate", decision.InterestRate,
		"score", score,
	)
	return ApplicationResult{Decision: decision, Loan: &loan}, nil
}

// RepayLoan aplica un pago al préstamo activo MÁS VIEJO del borrower
// (orden de inserción, nunca a uno más nuevo aunque deba menos). El exceso
// sobre el saldo pendiente se recorta en silencio — no se arrastra a otro
// préstamo ni se devuelve; comportamiento actual, posiblemente sorprendente.
//
// Saldar un préstamo es el único camino por el que el modelo vivo aprende:
// dispara un entrenamiento de un solo outcome con el historial actualizado.
func (s *Service) RepayLoan(ctx context.Context, borrower string, amount float64) (RepaymentResult, error) {
	if err := validAmount(amount); err != nil {
		return RepaymentResult{}, err
	}

	ledger, err := s.store.LoadLedger(ctx)
	if err != nil {
		return RepaymentResult{}, fmt.Errorf("lending.RepayLoan: %w", err)
	}

	idx := -1
	for i, l := range ledger.Loans {
		if l.Status == domain.LoanActive && l.Borrower == borrower {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RepaymentResult{}, ErrNoActiveLoan
	}

	loan := &ledger.Loans[idx]
	outstanding := loan.Outstanding()
	applied := math.Min(amount, outstanding)
	loan.RepaidAmount += applied

	fullyRepaid := loan.RepaidAmount >= loan.TotalOwed()-repayEpsilon
	if fullyRepaid {
		now := time.Now().UTC()
		loan.Status = domain.LoanRepaid
		loan.RepaidAt = &now
		ledger.TotalRepaid += loan.RepaidAmount

		if err := s.trainOnRepayment(ctx, &ledger, borrower); err != nil {
			return RepaymentResult{}, err
		}
	}

	if err := s.store.SaveLedger(ctx, ledger); err != nil {
		return RepaymentResult{}, fmt.Errorf("lending.RepayLoan: persist ledger: %w", err)
	}

	remaining := outstanding - applied
	if fullyRepaid {
		remaining = 0
	}

	slog.Info("repayment processed",
		"loan_id", loan.ID,
		"borrower", borrower,
		"applied", applied,
		"remaining", remaining,
		"fully_repaid", fullyRepaid,
	)
	return RepaymentResult{
		Loan:             *loan,
		AmountApplied:    applied,
		RemainingBalance: remaining,
		FullyRepaid:      fullyRepaid,
	}, nil
}

// Score calcula el informe de crédito del borrower con el estado actual.
func (s *Service) Score(ctx context.Context, borrower string) (CreditReport, error) {
	model, err := s.store.LoadModel(ctx)
	if err != nil {
		return CreditReport{}, fmt.Errorf("lending.Score: %w", err)
	}
	ledger, err := s.store.LoadLedger(ctx)
	if err != nil {
		return CreditReport{}, fmt.Errorf("lending.Score: %w", err)
	}

	features := s.borrowerFeatures(ctx, &ledger, borrower)
	score := domain.CalculateCreditScore(features, model)

	return CreditReport{
		Score:        score,
		MinScore:     model.MinApprovalScore(),
		Features:     features,
		ModelVersion: model.Version,
		MaxEligible:  math.Round(float64(score-domain.ScoreFloor) / domain.ScoreSpan * model.MaxLoanMultiplier),
		InterestRate: domain.InterestRateFor(score, model),
	}, nil
}

// Model expone los parámetros actuales del modelo para presentación.
func (s *Service) Model(ctx context.Context) (domain.ModelParams, error) {
	return s.store.LoadModel(ctx)
}

// Ledger expone el libro completo para presentación.
func (s *Service) Ledger(ctx context.Context) (domain.Ledger, error) {
	return s.store.LoadLedger(ctx)
}

// trainOnRepayment dispara el update de un solo outcome (repaid=true) con
// el historial YA actualizado del borrower, y persiste el modelo nuevo.
func (s *Service) trainOnRepayment(ctx context.Context, ledger *domain.Ledger, borrower string) error {
	model, err := s.store.LoadModel(ctx)
	if err != nil {
		return fmt.Errorf("lending.RepayLoan: load model: %w", err)
	}

	features := s.borrowerFeatures(ctx, ledger, borrower)
	updated := domain.UpdateModel(model, []domain.Outcome{{Features: features, Repaid: true}})

	if err := s.store.SaveModel(ctx, updated); err != nil {
		return fmt.Errorf("lending.RepayLoan: persist model: %w", err)
	}

	slog.Debug("model trained on repayment",
		"version", updated.Version,
		"samples", updated.TrainingSamples,
	)
	return nil
}

// borrowerFeatures deriva las señales en vivo del propio libro: el banco
// solo ve la actividad de préstamo del borrower, no su cadena completa.
func (s *Service) borrowerFeatures(ctx context.Context, ledger *domain.Ledger, borrower string) domain.Features {
	mine := ledger.BorrowerLoans(borrower)

	var history []int
	var totalBorrowed float64
	for _, l := range mine {
		totalBorrowed += l.Amount
		switch l.Status {
		case domain.LoanRepaid:
			history = append(history, 1)
		case domain.LoanDefaulted:
			history = append(history, 0)
		}
	}

	return domain.ExtractFeatures(domain.BorrowerSignals{
		TransactionCount:   len(mine)*2 + 5,
		RepaymentHistory:   history,
		PoolDeposits:       0,
		IdentityRegistered: s.identity.Registered(ctx, borrower),
		AccountAge:         1,
		TotalBorrowed:      totalBorrowed,
		LoanCount:          len(mine),
	})
}

func validAmount(amount float64) error {
	if math.IsNaN(amount) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
