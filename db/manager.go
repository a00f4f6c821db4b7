package db

import (
	"context"
	"fmt"
	"log"

	"amur/config"
	"amur/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

var ORM *gorm.DB

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

func ConnectDB() (err error) {
	if ORM != nil {
		log.Println("ORM is already initialized")
		return nil
	}

	if config.AppConfig == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}

	conf := config.AppConfig
	if conf.Databases.Master.Host == "" {
		return fmt.Errorf("master database configuration is missing")
	}

	masterDSN := dsnFromConfig(conf.Databases.Master)
	replicaDSNs := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
	for _, r := range conf.Databases.Replicas {
		replicaDSNs = append(replicaDSNs, postgres.Open(dsnFromConfig(r)))
	}

	orm, err := gorm.Open(postgres.Open(masterDSN), &gorm.Config{})
	if err != nil {
		return err
	}

	if len(replicaDSNs) > 0 {
		err = orm.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicaDSNs,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return err
		}
	}

	if err := CreateEnums(orm); err != nil {
		return err
	}

	err = orm.AutoMigrate(
		&models.User{},
		&models.UserTokens{},
		&models.Match{},
		&models.ChatRoom{},
		&models.Message{},
	)
	if err != nil {
		return err
	}

	if err := CreateMessageIndexes(orm); err != nil {
		return err
	}

	ORM = orm
	return nil
}

// GetDB возвращает подключение по умолчанию
func GetDB() *gorm.DB {
	return ORM
}

// GetReadOnlyDB возвращает подключение для чтения (реплики)
func GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB возвращает подключение для записи (мастер)
func GetWriteDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Write)
}
