package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"datelink/backend/internal/config"
	"datelink/backend/internal/models"
	"datelink/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	svc := storage.NewService(db, rdb)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "ban":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin ban <user_id> [duration_in_hours]")
			os.Exit(1)
		}
		userID := os.Args[2]
		var duration time.Duration
		if len(os.Args) > 3 {
			hours, err := strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Println("Invalid duration. Please provide an integer.")
				os.Exit(1)
			}
			duration = time.Duration(hours) * time.Hour
		}
		if err := svc.BanUser(userID, duration); err != nil {
			log.Fatalf("Error banning user: %v", err)
		}
		fmt.Printf("User %s has been banned.\n", userID)

	case "unban":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unban <user_id>")
			os.Exit(1)
		}
		if err := svc.UnbanUser(os.Args[2]); err != nil {
			log.Fatalf("Error unbanning user: %v", err)
		}
		fmt.Printf("User %s has been unbanned.\n", os.Args[2])

	case "prune-tokens":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin prune-tokens <user_id>")
			os.Exit(1)
		}
		res := db.Where("user_id = ?", os.Args[2]).Delete(&models.Token{})
		if res.Error != nil {
			log.Fatalf("Error pruning tokens: %v", res.Error)
		}
		fmt.Printf("Deleted %d token(s) for user %s.\n", res.RowsAffected, os.Args[2])

	case "stats":
		var users, messages, tokens int64
		if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
			log.Fatalf("Error counting users: %v", err)
		}
		if err := db.Model(&models.Message{}).Count(&messages).Error; err != nil {
			log.Fatalf("Error counting messages: %v", err)
		}
		if err := db.Model(&models.Token{}).Count(&tokens).Error; err != nil {
			log.Fatalf("Error counting tokens: %v", err)
		}
		fmt.Printf("users: %d\nmessages: %d\nactive tokens: %d\n", users, messages, tokens)

	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <ban|unban|prune-tokens|stats> [args]")
	os.Exit(1)
}
