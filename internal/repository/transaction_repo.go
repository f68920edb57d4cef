package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"paygateway/internal/models"
)

// TransactionRepository handles payment audit records.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateTransaction inserts a new audit record.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// UpdateTransaction updates the given columns of one audit record.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).Updates(updates).Error
}

// FindByInteraction returns the audit records of one interaction with
// their wiretap messages.
func (r *TransactionRepository) FindByInteraction(ctx context.Context, projectID int, interactionID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Message").
		Where("project_id = ? AND interaction_id = ?", projectID, interactionID).
		Order("created_on ASC").
		Find(&txns).Error
	return txns, err
}

// FindPage returns the audit records matching f. total is only counted
// when f.Paginate is set.
func (r *TransactionRepository) FindPage(ctx context.Context, f ReportFilter) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	total, err := findReportPage(r.db.WithContext(ctx).Model(&models.Transaction{}), f, &txns)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// CountStale counts records that sent a processor request before cutoff
// but never stored the response.
func (r *TransactionRepository) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("processor_request <> '' AND (processor_response IS NULL OR processor_response = '')").
		Where("created_on < ?", cutoff).
		Count(&count).Error
	return count, err
}
