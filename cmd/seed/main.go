package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 管理者ユーザーとデモ用カタログを入れる（何度実行しても同じ状態になる）
func main() {
	username := flag.String("admin", getenv("SEED_ADMIN_USERNAME", "admin"), "admin username")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (required)")
	demo := flag.Bool("demo", true, "insert demo categories and products when the catalog is empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.GoEnv)

	if len(*password) < 8 {
		log.Fatal().Msg("admin password must be at least 8 characters (-password or SEED_ADMIN_PASSWORD)")
	}

	gormDB, err := db.Connect(cfg.DSN(), cfg.GoEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := infraRepo.NewUserGormRepository(gormDB)
	if err := seedAdmin(ctx, users, *username, *password); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}

	if *demo {
		products := infraRepo.NewProductGormRepository(gormDB)
		categories := infraRepo.NewCategoryGormRepository(gormDB)
		if err := seedCatalog(ctx, products, categories); err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalog")
		}
	}
}

// 既にいればADMINにしてパスワードを差し替える
func seedAdmin(ctx context.Context, users repo.UserRepository, username string, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u, err := users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		u = &model.User{
			Username:     username,
			Email:        username + "@localhost",
			PasswordHash: string(hashed),
			Role:         model.RoleAdmin,
			IsActive:     true,
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		log.Info().Int64("user_id", u.ID).Str("username", username).Msg("admin created")
		return nil
	}

	u.PasswordHash = string(hashed)
	u.Role = model.RoleAdmin
	u.IsActive = true
	u.TokenVersion++
	if err := users.Update(ctx, u); err != nil {
		return err
	}
	log.Info().Int64("user_id", u.ID).Str("username", username).Msg("admin updated")
	return nil
}

type demoProduct struct {
	name     string
	desc     string
	price    string
	category string
}

var demoCategories = []model.Category{
	{Name: "Coffee", Slug: "coffee"},
	{Name: "Tea", Slug: "tea"},
	{Name: "Accessories", Slug: "accessories"},
}

var demoProducts = []demoProduct{
	{name: "House Blend", desc: "Medium roast, 250g", price: "9.50", category: "coffee"},
	{name: "Dark Roast", desc: "Bold and smoky, 250g", price: "10.90", category: "coffee"},
	{name: "Sencha", desc: "Japanese green tea, 100g", price: "7.20", category: "tea"},
	{name: "Earl Grey", desc: "Black tea with bergamot, 100g", price: "6.40", category: "tea"},
	{name: "Pour-over Kettle", desc: "Gooseneck, 1L", price: "39.00", category: "accessories"},
	{name: "Ceramic Mug", desc: "350ml", price: "12.00", category: "accessories"},
}

// カタログが空のときだけ入れる
func seedCatalog(ctx context.Context, products repo.ProductRepository, categories repo.CategoryRepository) error {
	_, total, err := products.List(ctx, repo.ProductListQuery{Page: 1, Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		log.Info().Int64("products", total).Msg("catalog already seeded")
		return nil
	}

	bySlug := map[string]int64{}
	for _, c := range demoCategories {
		created, err := categories.Create(ctx, c)
		if err != nil && !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
		if err == nil {
			bySlug[created.Slug] = created.ID
		}
	}
	if len(bySlug) < len(demoCategories) {
		existing, err := categories.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range existing {
			bySlug[c.Slug] = c.ID
		}
	}

	for _, d := range demoProducts {
		p := model.Product{
			Name:        d.name,
			Description: d.desc,
			Price:       decimal.RequireFromString(d.price),
			InStock:     true,
		}
		if id, ok := bySlug[d.category]; ok {
			p.CategoryID = &id
		}
		if _, err := products.Create(ctx, p); err != nil {
			return err
		}
	}
	log.Info().Int("products", len(demoProducts)).Msg("demo catalog created")
	return nil
}

func getenv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
