package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nightowl-labs/linkvault-back/internal/config"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email                 string `gorm:"unique;not null"`
		Password              string `gorm:"not null"`
		Token                 string `gorm:"not null"`
		PreventDuplicateLinks bool   `gorm:"not null;default:false"`
		// LinkLimit overrides the configured default when positive.
		LinkLimit   int          `gorm:"not null;default:0"`
		Collections []Collection `gorm:"foreignKey:OwnerID"`
		Tags        []Tag        `gorm:"foreignKey:OwnerID"`
	}

	Collection struct {
		GormForkedModel
		Name        string `gorm:"not null;uniqueIndex:uidx_collection_name_owner_id"`
		Description string
		Color       string
		OwnerID     uint64 `gorm:"not null;uniqueIndex:uidx_collection_name_owner_id"`
		Owner       User   `gorm:"foreignKey:OwnerID"`
		Links       []Link
	}

	Link struct {
		GormForkedModel
		URL          *string
		Name         string
		Description  string
		Type         string `gorm:"not null;default:url"`
		Image        *string
		CollectionID uint64 `gorm:"not null"`
		Collection   Collection
		CreatedByID  uint64 `gorm:"not null"`
		CreatedBy    User   `gorm:"foreignKey:CreatedByID"`
		Tags         []Tag  `gorm:"many2many:link_tags;"`
	}

	Tag struct {
		GormForkedModel
		Name    string `gorm:"not null;uniqueIndex:uidx_tag_name_owner_id"`
		Links   []Link `gorm:"many2many:link_tags;"`
		OwnerID uint64 `gorm:"not null;uniqueIndex:uidx_tag_name_owner_id"`
		Owner   User   `gorm:"foreignKey:OwnerID"`
	}
)

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Info,
		Colorful:                  true,
		IgnoreRecordNotFoundError: false,
	})

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Collection{}); err != nil {
		return errors.Wrap(err, "migrate collection")
	}
	if err := db.AutoMigrate(&Tag{}); err != nil {
		return errors.Wrap(err, "migrate tag")
	}
	if err := db.AutoMigrate(&Link{}); err != nil {
		return errors.Wrap(err, "migrate link")
	}
	return nil
}
