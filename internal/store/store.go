package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/models"
	"github.com/jameskabbes/gallery-api/internal/util"
)

type Store struct {
	db  *gorm.DB
	cfg *config.Config
}

func New(cfg *config.Config) (*Store, error) {
	dialector, err := GetDialector(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.AccessToken{},
		&models.APIKey{},
		&models.APIKeyScope{},
		&models.OTP{},
		&models.Gallery{},
		&models.GalleryPermission{},
		&models.File{},
		&models.ImageVersion{},
		&models.ImageFileMetadata{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db, cfg: cfg}

	if err := store.seedData(); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return store, nil
}

func (s *Store) seedData() error {
	// Create default admin user if the table is empty
	var userCount int64
	s.db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		password, err := util.CryptoRandomString(16)
		if err != nil {
			return err
		}
		hashStr, err := util.HashPassword(password)
		if err != nil {
			return err
		}
		username := "admin"
		user := &models.User{
			ID:           uuid.New().String(),
			Email:        "admin@localhost",
			Username:     &username,
			PasswordHash: &hashStr,
			RoleID:       s.cfg.RoleNameToID[config.RoleAdmin],
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
		log.Printf("Created default user: admin / %s (role: admin)", password)
	}
	return nil
}

// User operations

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("phone_number = ?", phoneNumber).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// GetUserByEmailOrUsername resolves a login identifier against both columns.
func (s *Store) GetUserByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

// Access token operations

func (s *Store) CreateAccessToken(ctx context.Context, t *models.AccessToken) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) GetAccessTokenByID(ctx context.Context, id string) (*models.AccessToken, error) {
	var t models.AccessToken
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &t, nil
}

func (s *Store) GetAccessTokensByUserID(ctx context.Context, userID string) ([]models.AccessToken, error) {
	var tokens []models.AccessToken
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued DESC").
		Find(&tokens).Error
	return tokens, err
}

func (s *Store) DeleteAccessToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AccessToken{}).Error
}

// ConsumeAccessToken deletes the token row and fails with ErrAlreadyConsumed
// when the row is already gone, so concurrent single-use redemption has
// exactly one winner.
func (s *Store) ConsumeAccessToken(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AccessToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}

func (s *Store) DeleteExpiredAccessTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expiry < ?", time.Now()).Delete(&models.AccessToken{})
	return res.RowsAffected, res.Error
}

// API key operations

func (s *Store) CreateAPIKey(ctx context.Context, k *models.APIKey) error {
	err := s.db.WithContext(ctx).Create(k).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func (s *Store) GetAPIKeyByID(ctx context.Context, id string) (*models.APIKey, error) {
	var k models.APIKey
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&k).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &k, nil
}

func (s *Store) GetAPIKeysByUserID(ctx context.Context, userID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued DESC").
		Find(&keys).Error
	return keys, err
}

func (s *Store) GetAPIKeyByUserAndName(ctx context.Context, userID, name string) (*models.APIKey, error) {
	var k models.APIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&k).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &k, nil
}

func (s *Store) UpdateAPIKey(ctx context.Context, k *models.APIKey) error {
	return s.db.WithContext(ctx).Save(k).Error
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.APIKey{}).Error
}

// API key scope operations

func (s *Store) AddAPIKeyScope(ctx context.Context, apiKeyID string, scopeID int) error {
	var existing models.APIKeyScope
	err := s.db.WithContext(ctx).
		Where("api_key_id = ? AND scope_id = ?", apiKeyID, scopeID).
		First(&existing).Error
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(&models.APIKeyScope{
		APIKeyID: apiKeyID,
		ScopeID:  scopeID,
	}).Error
}

func (s *Store) RemoveAPIKeyScope(ctx context.Context, apiKeyID string, scopeID int) error {
	res := s.db.WithContext(ctx).
		Where("api_key_id = ? AND scope_id = ?", apiKeyID, scopeID).
		Delete(&models.APIKeyScope{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) GetAPIKeyScopeIDs(ctx context.Context, apiKeyID string) ([]int, error) {
	var scopes []models.APIKeyScope
	err := s.db.WithContext(ctx).
		Where("api_key_id = ?", apiKeyID).
		Find(&scopes).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(scopes))
	for _, sc := range scopes {
		ids = append(ids, sc.ScopeID)
	}
	return ids, nil
}

// OTP operations

func (s *Store) CreateOTP(ctx context.Context, o *models.OTP) error {
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *Store) GetOTPByID(ctx context.Context, id string) (*models.OTP, error) {
	var o models.OTP
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &o, nil
}

func (s *Store) GetOTPByUserID(ctx context.Context, userID string) (*models.OTP, error) {
	var o models.OTP
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&o).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &o, nil
}

// DeleteOTPsByUserID removes any live OTP for the user; issuance calls this
// first to keep at most one live OTP per user.
func (s *Store) DeleteOTPsByUserID(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.OTP{}).Error
}

func (s *Store) DeleteOTP(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OTP{}).Error
}

// ConsumeOTP is the single-use delete; see ConsumeAccessToken.
func (s *Store) ConsumeOTP(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OTP{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}

func (s *Store) DeleteExpiredOTPs(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expiry < ?", time.Now()).Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
