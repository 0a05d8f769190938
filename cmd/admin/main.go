package main

import (
	"fmt"
	"os"
	"strings"

	"mentorchat/backend/internal/config"
	"mentorchat/backend/internal/models"
	"mentorchat/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	// Redis is needed to keep the role cache honest after re-roles; the
	// read commands work fine without it.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	storageSvc := storage.NewStorageService(db, rdb, logrus.New())

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: add-party, set-role, show")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "add-party":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin add-party <role> <display name> [subject ...]")
			os.Exit(1)
		}
		role := os.Args[2]
		if role != config.RoleInstructor && role != config.RoleStudent {
			fmt.Printf("Unknown role %q. Use %q or %q.\n", role, config.RoleInstructor, config.RoleStudent)
			os.Exit(1)
		}
		party := &models.Party{
			DisplayName: os.Args[3],
			Role:        role,
			Subjects:    pq.StringArray(os.Args[4:]),
		}
		if err := storageSvc.SaveParty(party); err != nil {
			logrus.Fatalf("Error creating party: %v", err)
		}
		fmt.Printf("Party %s created with role %s.\n", party.ID, party.Role)

	case "set-role":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin set-role <party_id> <role>")
			os.Exit(1)
		}
		partyID, role := os.Args[2], os.Args[3]
		if err := setRole(storageSvc, partyID, role); err != nil {
			logrus.Fatalf("Error updating role: %v", err)
		}
		fmt.Printf("Party %s is now a %s.\n", partyID, role)

	case "show":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin show <party_id>")
			os.Exit(1)
		}
		party, err := storageSvc.GetPartyByID(os.Args[2])
		if err != nil {
			logrus.Fatalf("Error loading party: %v", err)
		}
		fmt.Printf("%s\t%s\t%s\t[%s]\n", party.ID, party.Role, party.DisplayName, strings.Join(party.Subjects, ", "))

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func setRole(s storage.Storage, partyID, role string) error {
	party, err := s.GetPartyByID(partyID)
	if err != nil {
		return err
	}
	party.Role = role
	if err := s.SaveParty(party); err != nil {
		return err
	}
	// Drop the cached role so the policy sees the change immediately.
	return s.InvalidateRoleCache(partyID)
}
