package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"amur/db"
	"amur/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

// Параметры argon2id
const (
	ARGON_TIME    = 1
	ARGON_MEMORY  = 64 * 1024
	ARGON_THREADS = 4
	ARGON_KEY_LEN = 32
	SALT_LEN      = 16
)

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

// HashPassword хеширует пароль через argon2id со случайной солью
func HashPassword(password string) (string, error) {
	salt := make([]byte, SALT_LEN)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, ARGON_TIME, ARGON_MEMORY, ARGON_THREADS, ARGON_KEY_LEN)
	return fmt.Sprintf("%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword сверяет пароль с хешем за константное время
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	actual := argon2.IDKey([]byte(password), salt, ARGON_TIME, ARGON_MEMORY, ARGON_THREADS, ARGON_KEY_LEN)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// Register создает анкету и выдает первый токен
func (s *UserService) Register(ctx context.Context, user *models.User, password string) (string, error) {
	if user.Nickname == "" || password == "" {
		return "", fmt.Errorf("%w: nickname and password are required", ErrValidation)
	}
	if user.UserType != models.ESCORT && user.UserType != models.CUSTOMER {
		return "", fmt.Errorf("%w: unknown user type %q", ErrValidation, user.UserType)
	}

	var existing models.User
	err := db.GetReadOnlyDB(ctx).Where("nickname = ?", user.Nickname).First(&existing).Error
	if err == nil {
		return "", fmt.Errorf("%w: nickname is taken", ErrValidation)
	}
	if err != gorm.ErrRecordNotFound {
		return "", fmt.Errorf("failed to check nickname: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	user.Password = hashed
	user.LastSeenAt = time.Now()

	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return s.issueToken(ctx, user.ID)
}

// Login проверяет пароль и выдает новый токен; помечает пользователя онлайн
func (s *UserService) Login(ctx context.Context, nickname, password string) (*models.User, string, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("nickname = ?", nickname).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsBlocked {
		return nil, "", fmt.Errorf("%w: account is blocked", ErrForbidden)
	}
	if !VerifyPassword(password, user.Password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	SetOnline(ctx, user.ID)
	return &user, token, nil
}

// Logout отзывает токен и переводит пользователя в offline
func (s *UserService) Logout(ctx context.Context, userID int64, token string) error {
	err := db.GetWriteDB(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.UserTokens{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	SetOffline(ctx, userID)
	return nil
}

func (s *UserService) issueToken(ctx context.Context, userID int64) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	err := db.GetWriteDB(ctx).Create(&models.UserTokens{UserID: userID, Token: token}).Error
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// CheckToken находит владельца токена. Заблокированный аккаунт теряет
// доступ сразу, без ожидания истечения токена.
func CheckToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	var record models.UserTokens
	err := db.GetReadOnlyDB(ctx).Where("token = ?", token).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("%w: unknown token", ErrUnauthorized)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check token: %w", err)
	}

	var user models.User
	if err := db.GetReadOnlyDB(ctx).First(&user, record.UserID).Error; err != nil {
		return 0, fmt.Errorf("%w: token owner missing", ErrUnauthorized)
	}
	if user.IsBlocked {
		return 0, fmt.Errorf("%w: account is blocked", ErrForbidden)
	}
	return record.UserID, nil
}

// GetUserByID возвращает анкету по id
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).First(&user, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// PublicProfiles - витрина escort-анкет без авторизации. Тот же порядок,
// что и в ленте рекомендаций: премиум, онлайн, последняя активность.
func (s *UserService) PublicProfiles(ctx context.Context, city string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultFeedLimit
	}

	query := db.GetReadOnlyDB(ctx).
		Model(&models.User{}).
		Where("user_type = ?", models.ESCORT).
		Where("is_blocked = ?", false)
	if city != "" {
		query = query.Where("city = ?", city)
	}

	var users []models.User
	err := query.
		Order("is_premium DESC, is_online DESC, last_seen_at DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public profiles: %w", err)
	}
	return users, nil
}
