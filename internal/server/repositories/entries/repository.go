package entries

import (
	"context"

	"github.com/dmitrijs2005/syncbox/internal/server/models"
)

type Repository interface {
	// Create inserts e. When e carries a client key that is already stored,
	// the existing entry is returned and nothing is written.
	Create(ctx context.Context, e *models.Entry) (*models.Entry, error)
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	GetByClientKey(ctx context.Context, key string) (*models.Entry, error)
	Update(ctx context.Context, id int64, p models.Patch) (*models.Entry, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// List returns up to limit entries, most recently updated first.
	List(ctx context.Context, limit int) ([]models.Entry, error)
}
