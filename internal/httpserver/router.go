package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"eato/internal/domain"
	authsvc "eato/internal/service/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthService interface {
	SignUp(ctx context.Context, in authsvc.SignUpInput) (*domain.User, string, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, string, error)
	SignOut(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	SessionTTLSeconds() int
}

type MenuService interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Get(ctx context.Context, id string) (*domain.MenuItem, error)
}

type CartService interface {
	Load(ctx context.Context) ([]domain.CartEntry, error)
	AddItem(ctx context.Context, menuItemID string, quantity int) (*domain.OrderLine, error)
	Reconcile(ctx context.Context, entries []domain.CartEntry) error
	RemoveEntry(ctx context.Context, entry domain.CartEntry) error
	Checkout(ctx context.Context) (string, error)
	Orders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, id string) (*domain.Order, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	AuthSvc        AuthService
	MenuSvc        MenuService
	CartSvc        CartService
	Metrics        http.Handler
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.AuthSvc == nil || deps.MenuSvc == nil || deps.CartSvc == nil {
		return nil, errors.New("httpserver: auth, menu and cart services are required")
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		gin.LoggerWithWriter(logger.Writer()),
		gin.Recovery(),
		cors.New(corsConfig(deps.AllowedOrigins)),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	h := &handlers{auth: deps.AuthSvc, menu: deps.MenuSvc, cart: deps.CartSvc, logger: logger}

	authGroup := router.Group("/auth")
	authGroup.POST("/signup", h.signUp)
	authGroup.POST("/signin", h.signIn)
	authGroup.POST("/signout", authMiddleware(deps.AuthSvc), h.signOut)

	router.GET("/menu", h.listMenu)
	router.GET("/menu/:id", h.getMenuItem)

	secured := router.Group("/", authMiddleware(deps.AuthSvc))
	secured.GET("/me", h.me)
	secured.GET("/cart", h.getCart)
	secured.POST("/cart/items", h.addCartItem)
	secured.PUT("/cart", h.reconcileCart)
	secured.POST("/cart/remove", h.removeCartEntry)
	secured.POST("/checkout", h.checkout)
	secured.GET("/orders", h.listOrders)
	secured.GET("/orders/:id", h.getOrder)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Location"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
