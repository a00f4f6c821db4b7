package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"amur/api/routes"
	"amur/config"
	"amur/db"
	"amur/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	if err := services.InitRedis(); err != nil {
		log.Println("Redis unavailable, unread counters fall back to DB:", err)
	}
	defer services.CloseRedis()

	// Без брокера рассылка деградирует до локального push - сервер
	// остается работоспособным в одиночном инстансе
	if err := services.InitRabbitMQ(); err != nil {
		log.Println("RabbitMQ unavailable, chat events use in-process push:", err)
	} else {
		queueName := fmt.Sprintf("chat_events.%s", config.AppConfig.Backend.Host)
		if err := services.StartChatEventConsumer(context.Background(), queueName); err != nil {
			log.Println("Failed to start chat event consumer:", err)
		}
		defer services.CloseRabbitMQ()
	}

	router := gin.Default()
	routes.PublicApi(router)
	if config.AppConfig.Uploads.Dir != "" {
		router.Static(config.AppConfig.Uploads.BaseURL, config.AppConfig.Uploads.Dir)
	}

	addr := fmt.Sprintf(":%d", config.AppConfig.Backend.Port)
	if config.AppConfig.Backend.Port == 0 {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
