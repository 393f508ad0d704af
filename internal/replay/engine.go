package replay

import (
	"context"

	"sweep-signal-lab/internal/domain"
)

// BarEngine consumes base bars in timestamp order and may emit a signal
// per bar. The strategy engine satisfies this.
type BarEngine interface {
	OnBar(ctx context.Context, bar domain.Bar, aux *domain.AuxContext) (*domain.Signal, error)
}
