package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/database"
	"github.com/omrgrade/omr-backend/internal/logger"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
	"github.com/omrgrade/omr-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	authService := service.NewAuthService(cfg, repository.NewOperatorRepository(pool))

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Operator ===")

	name := prompt(reader, "Enter Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	email := prompt(reader, "Enter Email: ")
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	role := model.OperatorRole(strings.ToUpper(prompt(reader, "Enter Role [ADMIN/GRADER] (default GRADER): ")))
	switch role {
	case "":
		role = model.RoleGrader
	case model.RoleAdmin, model.RoleGrader:
	default:
		fmt.Println("Error: Role must be ADMIN or GRADER")
		return
	}

	op := &model.Operator{Email: email, Name: name, Role: role}
	if err := authService.CreateOperator(ctx, op, password); err != nil {
		log.Fatal().Err(err).Msg("Failed to create operator")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d\n", op.Role, op.Name, op.Email, op.ID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
