package repository

import (
	"context"

	"gorm.io/gorm"

	"paygateway/internal/models"
)

// LookupRepository handles account lookup audit records.
type LookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// CreateLookup inserts a new audit record.
func (r *LookupRepository) CreateLookup(ctx context.Context, l *models.Lookup) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// UpdateLookup updates the given columns of one audit record.
func (r *LookupRepository) UpdateLookup(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Lookup{}).Where("id = ?", id).Updates(updates).Error
}

// FindByInteraction returns the lookups of one interaction with their
// wiretap messages.
func (r *LookupRepository) FindByInteraction(ctx context.Context, projectID int, interactionID string) ([]models.Lookup, error) {
	var lookups []models.Lookup
	err := r.db.WithContext(ctx).
		Preload("Message").
		Where("project_id = ? AND interaction_id = ?", projectID, interactionID).
		Order("created_on ASC").
		Find(&lookups).Error
	return lookups, err
}

// FindPage returns the lookups matching f. total is only counted when
// f.Paginate is set.
func (r *LookupRepository) FindPage(ctx context.Context, f ReportFilter) ([]models.Lookup, int64, error) {
	var lookups []models.Lookup
	total, err := findReportPage(r.db.WithContext(ctx).Model(&models.Lookup{}), f, &lookups)
	if err != nil {
		return nil, 0, err
	}
	return lookups, total, nil
}
