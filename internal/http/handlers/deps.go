package handlers

import (
	"github.com/jmoiron/sqlx"

	"grocerly/internal/cache"
	"grocerly/internal/config"
	"grocerly/internal/repos"
	"grocerly/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	ProductHandler *ProductHandler
	OrderHandler   *OrderHandler
	UserHandler    *UserHandler
}

// NewDeps builds repos, services and handlers around one pool. c may be nil.
func NewDeps(db *sqlx.DB, cfg config.Config, c *cache.Cache) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.Auth)
	catalogSvc := services.NewCatalogService(prodRepo, c)
	orderSvc := services.NewOrderService(orderRepo, userRepo, cfg.CancellationFee)

	return &Deps{
		Auth:           authSvc,
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		OrderHandler:   &OrderHandler{Orders: orderSvc},
		UserHandler:    &UserHandler{Auth: authSvc, SecureCookie: cfg.Auth.CookieSecure, TokenTTL: cfg.Auth.TokenTTL},
	}
}
