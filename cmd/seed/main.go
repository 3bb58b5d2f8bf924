package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"petshop-backend/internal/auth"
	"petshop-backend/internal/config"
	"petshop-backend/internal/db"
	"petshop-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedService struct {
	Name        string
	Description string
	Category    string
	Price       float64
	Duration    int
}

type seedUser struct {
	Name        string
	Email       string
	PasswordEnv string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	services := []seedService{
		{Name: "Banho Completo", Description: "Banho com shampoo neutro, secagem e escovação.", Category: "banho", Price: 45, Duration: 60},
		{Name: "Tosa Higiênica", Description: "Aparação das áreas íntimas, patas e olhos.", Category: "tosa", Price: 35, Duration: 45},
		{Name: "Banho e Tosa", Description: "Banho completo seguido de tosa na máquina ou tesoura.", Category: "tosa", Price: 80, Duration: 90},
		{Name: "Consulta Veterinária", Description: "Avaliação clínica geral com veterinário.", Category: "veterinaria", Price: 120, Duration: 30},
		{Name: "Vacinação", Description: "Aplicação de vacinas com carteirinha atualizada.", Category: "veterinaria", Price: 90, Duration: 30},
		{Name: "Hidratação", Description: "Hidratação profunda dos pelos.", Category: "estetica", Price: 40, Duration: 30},
	}

	for _, svc := range services {
		id := utils.SlugID(svc.Name)
		now := time.Now().In(cfg.Timezone)
		update := bson.M{
			"$set": bson.M{
				"name":        svc.Name,
				"description": svc.Description,
				"category":    svc.Category,
				"price":       svc.Price,
				"duration":    svc.Duration,
				"updatedAt":   now,
			},
			"$setOnInsert": bson.M{
				"active":    true,
				"createdAt": now,
			},
		}

		_, err := cols.Services.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
		if err != nil {
			log.Fatalf("seed error for %s: %v", svc.Name, err)
		}
	}

	admin := seedUser{
		Name:        envOrDefault("ADMIN_NAME", "Administrador"),
		Email:       envOrDefault("ADMIN_EMAIL", ""),
		PasswordEnv: "ADMIN_PASSWORD",
	}
	password := os.Getenv(admin.PasswordEnv)
	if password == "" || admin.Email == "" {
		log.Printf("seed admin: ADMIN_EMAIL or %s missing, skipping", admin.PasswordEnv)
	} else if err := seedAdminUser(ctx, cols, admin.Name, admin.Email, password, cfg.Timezone); err != nil {
		log.Fatalf("seed admin error for %s: %v", admin.Email, err)
	}

	log.Println("seed completed")
}

// seedAdminUser upserts by email and always resets the role and password.
func seedAdminUser(ctx context.Context, cols *db.Collections, name, email, password string, loc *time.Location) error {
	if cols == nil || cols.Users == nil {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now().In(loc)
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         auth.RoleAdmin,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"name":      name,
			"createdAt": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
