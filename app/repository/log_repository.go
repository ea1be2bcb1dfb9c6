package repository

import (
	"github.com/zabora/subscription-service/app/models"
	"gorm.io/gorm"
)

// logRepository implements the LogRepository interface
type logRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new audit log repository instance.
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Append(entry *models.SubscriptionLog) error {
	return r.db.Create(entry).Error
}

func (r *logRepository) ListBySubscriptionID(subscriptionID string) ([]models.SubscriptionLog, error) {
	var entries []models.SubscriptionLog
	err := r.db.Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *logRepository) ListByUserID(userID string) ([]models.SubscriptionLog, error) {
	var entries []models.SubscriptionLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
