package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// Dialector picks the gorm dialector for the configured driver.
func Dialector(config DatabaseConfig) (gorm.Dialector, error) {
	switch config.Driver {
	case "", "mysql":
		return mysql.Open(config.DSN), nil
	case "postgres":
		return postgres.Open(config.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

// InitDB opens the database and migrates the schema.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(config)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&Organization{},
		&User{},
		&RefreshToken{},
		&Appointment{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
