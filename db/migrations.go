package db

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateEnums создает типы ENUM user_type и message_type, если их нет.
// Для sqlite (тесты) не требуется - там типы колонок не проверяются.
func CreateEnums(orm *gorm.DB) error {
	if orm.Dialector.Name() != "postgres" {
		return nil
	}

	createUserTypeSQL := `
	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_type') THEN
			CREATE TYPE user_type AS ENUM ('escort', 'customer');
		END IF;
	END
	$$;
	`
	if err := orm.Exec(createUserTypeSQL).Error; err != nil {
		return fmt.Errorf("failed to create enum user_type: %w", err)
	}

	createMessageTypeSQL := `
	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'message_type') THEN
			CREATE TYPE message_type AS ENUM ('text', 'image');
		END IF;
	END
	$$;
	`
	if err := orm.Exec(createMessageTypeSQL).Error; err != nil {
		return fmt.Errorf("failed to create enum message_type: %w", err)
	}

	return nil
}

// CreateMessageIndexes создает составной индекс для выборки диалога:
// сообщения пары ищутся по (sender_id, receiver_id) в обоих направлениях.
func CreateMessageIndexes(orm *gorm.DB) error {
	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_messages_receiver_sender_unread
		ON messages (receiver_id, sender_id, is_read);
	`
	if err := orm.Exec(createIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create unread index: %w", err)
	}
	return nil
}
