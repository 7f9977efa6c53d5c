// Command admin bootstraps the first administrator account. It prompts for
// the password on the terminal without echo, connects to the database, runs
// migrations, and creates an active ADMIN user.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/NickM101/project-management-app/internal/logging"
	"github.com/NickM101/project-management-app/internal/server/config"
	"github.com/NickM101/project-management-app/internal/server/models"
	"github.com/NickM101/project-management-app/internal/server/repositories/repomanager"
	"github.com/NickM101/project-management-app/internal/server/services"
	"github.com/NickM101/project-management-app/internal/server/storage"
)

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label + ": ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func run() error {
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	reader := bufio.NewReader(os.Stdin)

	email, err := prompt(reader, "Email")
	if err != nil {
		return err
	}
	name, err := prompt(reader, "Name")
	if err != nil {
		return err
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	images := storage.NewS3ImageStore(storage.S3Config{
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})

	us := services.NewUserService(db, rm, images, logger, cfg)

	view, err := us.Create(ctx, services.NewUserParams{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created admin %s (%s)\n", view.Email, view.ID)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
