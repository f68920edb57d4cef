package repository

import (
	"context"

	"gorm.io/gorm"

	"paygateway/internal/models"
)

// MessageRepository handles captured wiretap messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores the request half of a message.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update saves every column of m.
func (r *MessageRepository) Update(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// FindUnlinked returns messages of an interaction whose path contains
// pathPart, skipping the ids in exclude. These are requests that never
// produced an audit transaction.
func (r *MessageRepository) FindUnlinked(ctx context.Context, interactionID, pathPart string, exclude []uint) ([]models.Message, error) {
	var msgs []models.Message
	db := r.db.WithContext(ctx).
		Where("interaction_id = ? AND req_path LIKE ?", interactionID, "%"+pathPart+"%")
	if len(exclude) > 0 {
		db = db.Where("id NOT IN ?", exclude)
	}
	err := db.Order("started_at ASC").Find(&msgs).Error
	return msgs, err
}

// TapRepository handles tap rules.
type TapRepository struct {
	db *gorm.DB
}

func NewTapRepository(db *gorm.DB) *TapRepository {
	return &TapRepository{db: db}
}

// FindActive returns active taps in id order.
func (r *TapRepository) FindActive(ctx context.Context) ([]models.Tap, error) {
	var taps []models.Tap
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&taps).Error
	return taps, err
}

// EnsureTap creates an active tap for pathRegex unless one exists.
func (r *TapRepository) EnsureTap(ctx context.Context, pathRegex string) error {
	tap := models.Tap{PathRegex: pathRegex, MaskCHD: true, IsActive: true}
	return r.db.WithContext(ctx).Where("path_regex = ?", pathRegex).FirstOrCreate(&tap).Error
}
