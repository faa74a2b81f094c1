package ports

import (
	"context"

	"github.com/troyrocket/universe-bank/internal/domain"
)

// BankStorage persiste el modelo de crédito y el libro de préstamos como
// documentos completos (read-modify-write, last writer wins). Si un registro
// no existe todavía, devuelve el valor por defecto — la ausencia no es error.
type BankStorage interface {
	// LoadModel devuelve el modelo persistido, o DefaultModel() si no hay.
	LoadModel(ctx context.Context) (domain.ModelParams, error)

	// SaveModel sobreescribe el documento del modelo.
	SaveModel(ctx context.Context, m domain.ModelParams) error

	// LoadLedger devuelve el libro completo, o uno vacío si no hay.
	LoadLedger(ctx context.Context) (domain.Ledger, error)

	// SaveLedger sobreescribe el libro completo preservando el orden
	// de desembolso.
	SaveLedger(ctx context.Context, lg domain.Ledger) error

	// Close cierra la conexión limpiamente.
	Close() error
}
