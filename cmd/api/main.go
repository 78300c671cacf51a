package main

import (
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/web"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.GoEnv)

	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), cfg.GoEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gormDB); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate")
		}
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	favoriteRepo := infraRepo.NewFavoriteGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//JWT issuer
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	catalogUC := usecase.NewCatalogUsecase(productRepo, categoryRepo)
	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartItemRepo, productRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txm)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	accountUC := usecase.NewAccountUsecase(userRepo, usecase.NewBcryptPasswordHasher(bcrypt.DefaultCost), issuer, &realClock{})
	favoriteUC := usecase.NewFavoriteUsecase(favoriteRepo, productRepo)
	adminUC := usecase.NewAdminUsecase(txm, productRepo, categoryRepo, auditRepo)

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	//Handler生成
	e := server.New(server.Deps{
		Tokens:   issuer,
		Users:    userRepo,
		Renderer: renderer,

		Products:  handler.NewProductHandler(catalogUC),
		Carts:     handler.NewCartHandler(cartUC),
		Orders:    handler.NewOrderHandler(checkoutUC, orderUC),
		Accounts:  handler.NewAccountHandler(accountUC),
		Favorites: handler.NewFavoriteHandler(favoriteUC),
		Admin:     handler.NewAdminHandler(adminUC),
		Health:    handler.NewHealthHandler(sqlDB),
		Pages:     web.NewPages(catalogUC, cartUC, checkoutUC, orderUC, accountUC, cfg.CookieSecure),

		CookieSecure: cfg.CookieSecure,
	})

	//Server起動
	if err := server.Start(e, cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
