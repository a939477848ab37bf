package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// New opens the database, migrates the schema and seeds the admin account.
func New(ctx context.Context, driver, dsn string, cfg *config.Config) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to an in-memory SQLite database is a separate database.
	if driver == config.DatabaseDriverSQLite && strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Store{db: db}

	if err := s.seedAdmin(ctx, cfg); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return s, nil
}

// generateRandomPassword generates a random password of specified length
func generateRandomPassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf)[:length], nil
}

func (s *Store) seedAdmin(ctx context.Context, cfg *config.Config) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := ""
	if cfg != nil {
		password = cfg.DefaultAdminPassword
	}
	generated := password == ""
	if generated {
		var err error
		if password, err = generateRandomPassword(16); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           uuid.New().String(),
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		Role:         "admin",
		IsActive:     true,
		AuthSource:   models.AuthSourceLocal,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	if generated {
		log.Printf("Created default user: admin / %s (role: admin)", password)
	} else {
		log.Printf("Created default user: admin (password from DEFAULT_ADMIN_PASSWORD)")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// GetUserByUsername returns ErrRecordNotFound when no such user exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts a user, filling in the ID when empty.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.AuthSource == "" {
		user.AuthSource = models.AuthSourceLocal
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", user.Username).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing > 0 {
		return ErrUsernameConflict
	}

	return s.db.WithContext(ctx).Create(user).Error
}

// UpsertExternalUser creates or updates a user from external authentication
func (s *Store) UpsertExternalUser(
	ctx context.Context,
	username, externalID, authSource, email, fullName string,
) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User

	err := db.Where("external_id = ? AND auth_source = ?", externalID, authSource).
		First(&user).
		Error

	if err == nil {
		if user.Username != username {
			var conflicting models.User
			conflictErr := db.Where("username = ? AND id != ?", username, user.ID).
				First(&conflicting).
				Error
			if conflictErr == nil {
				return nil, ErrUsernameConflict
			}
			if !errors.Is(conflictErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check username: %w", conflictErr)
			}
		}

		user.Username = username
		user.Email = email
		user.FullName = fullName
		if err := db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to update external user: %w", err)
		}
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query external user: %w", err)
	}

	var existing models.User
	err = db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrUsernameConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user = models.User{
		ID:         uuid.New().String(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Role:       "user",
		IsActive:   true,
		ExternalID: externalID,
		AuthSource: authSource,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create external user: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetUserActive enables or disables a user account.
func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
