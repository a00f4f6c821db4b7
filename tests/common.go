package tests

import (
	"fmt"
	"sync/atomic"
	"testing"

	"amur/db"
	"amur/models"
	"amur/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testUserSeq int64

// SetupTestDB поднимает in-memory SQLite и фейковый Redis вместо
// PostgreSQL/Redis со стенда: схема та же, поведение запросов совпадает
func SetupTestDB(t *testing.T) {
	t.Helper()

	if db.ORM == nil {
		orm, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			t.Fatalf("Failed to open test database: %v", err)
		}

		// SQLite не переживает параллельных писателей: один коннект в пуле,
		// конкурентные транзакции сериализуются на уровне пула
		sqlDB, err := orm.DB()
		if err != nil {
			t.Fatalf("Failed to access test database pool: %v", err)
		}
		sqlDB.SetMaxOpenConns(1)

		err = orm.AutoMigrate(
			&models.User{},
			&models.UserTokens{},
			&models.Match{},
			&models.ChatRoom{},
			&models.Message{},
		)
		if err != nil {
			t.Fatalf("Failed to migrate test database: %v", err)
		}
		db.ORM = orm
	}

	if services.RedisClient == nil {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("Failed to start miniredis: %v", err)
		}
		services.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
}

// createTestUser создает пользователя заданного типа и возвращает его ID
func createTestUser(t *testing.T, userType models.UserType) int64 {
	t.Helper()

	seq := atomic.AddInt64(&testUserSeq, 1)
	user := models.User{
		Nickname: fmt.Sprintf("test_user_%d", seq),
		Name:     fmt.Sprintf("User %d", seq),
		Password: "irrelevant",
		UserType: userType,
	}
	if err := db.ORM.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user.ID
}
