package repository

import (
	"time"

	"github.com/zabora/subscription-service/app/models"
	"gorm.io/gorm"
)

// paymentMethodRepository implements the PaymentMethodRepository interface
type paymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository creates a new payment method repository instance.
func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) Create(method *models.PaymentMethod) error {
	return r.db.Create(method).Error
}

func (r *paymentMethodRepository) GetByID(id string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *paymentMethodRepository) ListByUserID(userID string) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("is_default DESC, created_at ASC").
		Find(&methods).Error
	return methods, err
}

// Delete soft-deletes so payment history keeps resolving instrument details.
func (r *paymentMethodRepository) Delete(id string) error {
	now := time.Now()
	result := r.db.Model(&models.PaymentMethod{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
