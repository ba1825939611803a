// Command seed provisions the first lecturer account and a starter set of
// categories so a fresh deployment is usable before any moderator exists.
// It talks to the database directly and is safe to re-run: rows that already
// exist are skipped.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/repository"
	"github.com/campushare/campushare-api/pkg/config"
	"github.com/campushare/campushare-api/pkg/database"
)

var defaultCategories = []models.Category{
	{Name: "Lecture Notes", Description: "Slides and notes from taught sessions", Active: true},
	{Name: "Past Papers", Description: "Previous examination papers", Active: true},
	{Name: "Lab Materials", Description: "Practical and laboratory handouts", Active: true},
	{Name: "Reading Lists", Description: "Recommended and supplementary reading", Active: true},
}

func main() {
	var (
		username   string
		email      string
		password   string
		fullName   string
		employeeID string
		department string
		skipCats   bool
		timeout    time.Duration
	)

	flag.StringVar(&username, "username", "admin", "username for the bootstrap lecturer")
	flag.StringVar(&email, "email", "admin@example.edu", "email for the bootstrap lecturer")
	flag.StringVar(&password, "password", "", "password for the bootstrap lecturer (required)")
	flag.StringVar(&fullName, "full-name", "Portal Administrator", "display name for the bootstrap lecturer")
	flag.StringVar(&employeeID, "employee-id", "ADMIN-001", "employee ID for the bootstrap lecturer")
	flag.StringVar(&department, "department", "Administration", "department for the bootstrap lecturer")
	flag.BoolVar(&skipCats, "skip-categories", false, "do not seed the starter categories")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if strings.TrimSpace(password) == "" {
		log.Fatal("-password is required")
	}
	if len(password) < 8 {
		log.Fatal("-password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	if err := seedLecturer(ctx, userRepo, username, email, password, fullName, employeeID, department); err != nil {
		log.Fatalf("failed to seed lecturer: %v", err)
	}

	if !skipCats {
		if err := seedCategories(ctx, categoryRepo); err != nil {
			log.Fatalf("failed to seed categories: %v", err)
		}
	}

	fmt.Println("seed complete")
}

func seedLecturer(ctx context.Context, repo *repository.UserRepository, username, email, password, fullName, employeeID, department string) error {
	switch _, err := repo.FindByUsername(ctx, username); {
	case err == nil:
		fmt.Printf("lecturer %q already exists, skipping\n", username)
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
	}
	profile := &models.LecturerProfile{
		FullName:   fullName,
		EmployeeID: employeeID,
		Department: department,
		Position:   models.PositionLecturer,
		JoinedDate: time.Now().UTC(),
		Active:     true,
	}

	if err := repo.CreateLecturer(ctx, user, profile); err != nil {
		if repository.IsUniqueViolation(err) {
			fmt.Printf("lecturer %q already exists, skipping\n", username)
			return nil
		}
		return err
	}

	fmt.Printf("created lecturer %q (%s)\n", username, user.ID)
	return nil
}

func seedCategories(ctx context.Context, repo *repository.CategoryRepository) error {
	existing, err := repo.List(ctx, false)
	if err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		taken[strings.ToLower(c.Name)] = struct{}{}
	}

	for _, category := range defaultCategories {
		if _, ok := taken[strings.ToLower(category.Name)]; ok {
			continue
		}
		category := category
		if err := repo.Create(ctx, &category); err != nil {
			if repository.IsUniqueViolation(err) {
				continue
			}
			return err
		}
		fmt.Printf("created category %q\n", category.Name)
	}
	return nil
}
