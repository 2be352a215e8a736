package production

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

type UseCase interface {
	// Produce deducts every ingredient and credits the product in one unit of work.
	Produce(ctx context.Context, input *dto.ProduceInput) (*model.ProductionResult, error)
	// GetShortageReport is read-only and takes no locks.
	GetShortageReport(ctx context.Context, input *dto.ShortageInput) (*model.ShortageReport, error)
	ReverseProduction(ctx context.Context, input *dto.ReverseInput) (*model.ProductionResult, error)
	RegisterProduct(ctx context.Context, input *dto.RegisterProductInput) (*dto.RegisterProductResult, error)
}

// Locker takes a best-effort lock shared by every replica.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Publisher announces committed production events.
type Publisher interface {
	PublishCommitted(ctx context.Context, e *model.ProductionEvent) error
}
