package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"petkeeper/internal/config"
	"petkeeper/internal/db"
	"petkeeper/internal/model"
	"petkeeper/internal/repository"
)

const (
	demoEmail    = "demo@petkeeper.local"
	demoPassword = "demo-password"
)

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Pet{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	petRepo := repository.NewPetRepository(gormDB)

	user, err := ensureDemoUser(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed demo user: %v", err)
	}
	log.Printf("Demo user ready: %s", user.Email)

	created, err := seedPets(ctx, petRepo, user)
	if err != nil {
		log.Fatalf("Failed to seed pets: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Pets created: %d", created)
}

func ensureDemoUser(ctx context.Context, repo repository.UserRepository) (*model.User, error) {
	existing, err := repo.FindByEmail(ctx, demoEmail)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), 10)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: demoEmail, PasswordHash: string(hash)}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func seedPets(ctx context.Context, repo repository.PetRepository, user *model.User) (int, error) {
	existing, err := repo.ListByOwner(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Printf("Demo user already has %d pets, skipping", len(existing))
		return 0, nil
	}

	samples := []model.Pet{
		{Name: "Max", Category: "Dog", Birthday: date(2020, 3, 15), Gender: model.GenderMale},
		{Name: "Luna", Category: "Cat", Birthday: date(2019, 7, 2), Gender: model.GenderFemale},
		{Name: "Kiwi", Category: "Parrot", Birthday: date(2021, 11, 30), Gender: model.GenderFemale},
	}

	created := 0
	for i := range samples {
		samples[i].OwnerID = user.ID
		if err := repo.Create(ctx, &samples[i]); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
