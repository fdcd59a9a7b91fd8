package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pollhub/config"
	"pollhub/db"
	"pollhub/middlewares"
	"pollhub/models"
	"pollhub/services"
	"pollhub/utils"
)

func main() {
	// Parse command line flags
	username := flag.String("username", "", "Admin username (required)")
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", "", "Admin password (required)")
	role := flag.String("role", models.RoleAdmin, "Admin role: 'admin' or 'super_admin'")
	configPath := flag.String("config", "./config/config.yml", "Path to config file")
	flag.Parse()

	// Validate required fields
	if *username == "" || *email == "" || *password == "" {
		fmt.Println("Error: username, email, and password are required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	middlewares.InitLogger("info", "addadmin")
	log := middlewares.Logger

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store := db.NewStore(cfg.Database.URI, cfg.Database.Name)
	if err := store.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer store.Disconnect(context.Background())
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	tokens, err := utils.NewTokenService(cfg.JWT.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token service")
	}
	auth := services.NewAdminAuthService(db.NewAdminRepo(store), tokens, services.SuperAdminCredentials{
		Username: cfg.SuperAdmin.Username,
		Password: cfg.SuperAdmin.Password,
	})

	admin, err := auth.CreateAdmin(ctx, services.CreateAdminInput{
		Username: *username,
		Email:    *email,
		Password: *password,
		Role:     *role,
	})
	if err != nil {
		fmt.Printf("Error: %s\n", services.Message(err))
		os.Exit(1)
	}

	fmt.Printf("Admin created successfully!\n")
	fmt.Printf("   ID: %s\n", admin.ID.Hex())
	fmt.Printf("   Username: %s\n", admin.Username)
	fmt.Printf("   Email: %s\n", admin.Email)
	fmt.Printf("   Role: %s\n", admin.Role)
}
