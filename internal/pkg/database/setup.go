package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/internal/pkg/env"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,   // data source name
			DefaultStringSize:         256,   // default size for string fields
			DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
		}), &gorm.Config{
			TranslateError: true,
		})
		if err == nil {
			DB.AutoMigrate(
				&models.Plan{},
				&models.Subscription{},
				&models.Payment{},
				&models.PaymentMethod{},
				&models.Invoice{},
				&models.InvoiceSequence{},
				&models.SubscriptionLog{},
			)

			if seedErr := seedDefaults(DB); seedErr != nil {
				log.Printf("Failed to seed default rows: %v", seedErr)
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry number %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the database handle initialized by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// seedDefaults creates the invoice sequence row and the base plan catalog
// when missing. Plans are immutable after creation, so existing rows are
// never touched.
func seedDefaults(db *gorm.DB) error {
	var seq models.InvoiceSequence
	if err := db.First(&seq, 1).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&models.InvoiceSequence{ID: 1, Value: 0}).Error; err != nil {
			return err
		}
	}

	var count int64
	if err := db.Model(&models.Plan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	intPtr := func(v int) *int { return &v }
	plans := []models.Plan{
		{
			Name:                models.PlanFree,
			Description:         "Free plan with basic features",
			Price:               decimal.Zero,
			Currency:            "COP",
			MedicalConditionCap: intPtr(2),
			AllergyCap:          intPtr(2),
			DietPreferenceCap:   intPtr(1),
			IngredientsPerQuery: intPtr(7),
			FavoriteRecipeCap:   intPtr(4),
			IsActive:            true,
		},
		{
			Name:                models.PlanPremium,
			Description:         "Premium plan with all features",
			Price:               decimal.RequireFromString("29900.00"),
			Currency:            "COP",
			MedicalConditionCap: intPtr(3),
			AllergyCap:          intPtr(4),
			DietPreferenceCap:   intPtr(1),
			IngredientsPerQuery: intPtr(20),
			FavoriteRecipeCap:   nil, // unlimited
			IsActive:            true,
		},
	}
	for i := range plans {
		if err := db.Create(&plans[i]).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d subscription plans", len(plans))
	return nil
}
