package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	account "auction-house/internal/accountService"
	"auction-house/internal/config"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

func usage() {
	fmt.Println("expected 'add-user' subcommand")
	os.Exit(1)
}

func main() {
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	configPath := addUserCmd.String("config", "config.yaml", "path to the optional YAML config file")
	username := addUserCmd.String("username", "", "Username for the new user")
	password := addUserCmd.String("password", "", "Password for the new user")

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "add-user":
		_ = addUserCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		user, err := addUser(context.Background(), *configPath, *username, *password)
		if err != nil {
			utils.Fatal("failed to create user", map[string]any{"username": *username, "error": err.Error()})
		}
		fmt.Printf("User '%s' created successfully.\n", user.Username)
	default:
		usage()
	}
}

// addUser registers an account through the same rules as the register page
func addUser(ctx context.Context, configPath, username, password string) (models.User, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return models.User{}, fmt.Errorf("load configuration: %w", err)
	}

	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return models.User{}, err
	}
	defer func() { _ = repository.Close(db) }()

	svc := account.NewAccountService(repository.NewGormRepo(db), cfg.Security.BcryptCost)
	return svc.Register(ctx, account.Credentials{Username: username, Password: password})
}
