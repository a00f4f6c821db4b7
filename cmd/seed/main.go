package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"amur/config"
	"amur/db"
	"amur/models"
	"amur/services"

	"github.com/brianvoe/gofakeit/v7"
)

// Генератор демо-данных: анкеты обоих типов плюс немного истории свайпов,
// чтобы лента и чат выглядели живыми на локальном стенде
func main() {
	var configPath string
	var escorts, customers, swipes int
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&escorts, "escorts", 50, "Number of escort profiles to create")
	flag.IntVar(&customers, "customers", 100, "Number of customer profiles to create")
	flag.IntVar(&swipes, "swipes", 300, "Number of random swipes to record")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	ctx := context.Background()
	userService := services.NewUserService()

	var escortIDs, customerIDs []int64
	for i := 0; i < escorts+customers; i++ {
		userType := models.ESCORT
		if i >= escorts {
			userType = models.CUSTOMER
		}

		name := gofakeit.FirstName()
		user := models.User{
			Nickname: fmt.Sprintf("%s_%s", strings.ToLower(name), gofakeit.Numerify("######")),
			Name:     name,
			Bio:      gofakeit.Sentence(12),
			City:     gofakeit.City(),
			UserType: userType,
		}
		if userType == models.ESCORT {
			user.Services = gofakeit.Sentence(6)
			user.Rate = int64(gofakeit.Number(50, 500))
			user.IsPremium = gofakeit.Bool()
		}

		password := gofakeit.Password(true, false, true, true, false, 10)
		if _, err := userService.Register(ctx, &user, password); err != nil {
			log.Println("Failed to create user:", err)
			continue
		}
		if userType == models.ESCORT {
			escortIDs = append(escortIDs, user.ID)
		} else {
			customerIDs = append(customerIDs, user.ID)
		}
	}
	log.Printf("Created %d escorts, %d customers", len(escortIDs), len(customerIDs))

	if len(escortIDs) == 0 || len(customerIDs) == 0 {
		return
	}

	matchService := services.NewMatchService()
	recorded := 0
	for i := 0; i < swipes; i++ {
		actor := customerIDs[gofakeit.Number(0, len(customerIDs)-1)]
		target := escortIDs[gofakeit.Number(0, len(escortIDs)-1)]
		isLike := gofakeit.Number(0, 100) < 70

		if _, err := matchService.Swipe(ctx, actor, target, isLike); err != nil {
			continue
		}
		recorded++

		// Часть лайков делаем взаимными, чтобы появились комнаты
		if isLike && gofakeit.Number(0, 100) < 30 {
			if _, err := matchService.Swipe(ctx, target, actor, true); err == nil {
				recorded++
			}
		}
	}
	log.Printf("Recorded %d swipes", recorded)
}
