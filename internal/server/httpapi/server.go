// Package httpapi is the public REST surface of carmarket, built on fiber.
// Paths keep the historical /api/docs prefix so existing clients work.
package httpapi

import (
	"context"

	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicAccount, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Account(ctx context.Context, id string) (*models.PublicAccount, error)
	List(ctx context.Context) ([]*models.PublicAccount, error)
}

type ListingService interface {
	Create(ctx context.Context, ownerID string, in services.ListingInput, imageCount int) (*models.Listing, []models.UploadTask, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	Search(ctx context.Context, f models.ListingFilter) ([]*models.Listing, error)
	GlobalSearch(ctx context.Context, query string) ([]*models.Listing, error)
	Update(ctx context.Context, ownerID, id string, in services.ListingInput, newImageCount int) (*models.Listing, []models.UploadTask, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TokenVerifier resolves a session token to its account id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Options struct {
	CORSOrigins string
	// AuthRateLimit is the number of signup/login requests allowed per IP
	// per minute. Zero disables the limiter.
	AuthRateLimit int
	// LimiterStorage backs the limiter; nil means in-memory.
	LimiterStorage fiber.Storage
	// Registry receives the HTTP collectors and is served on /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry
}

type Server struct {
	app      *fiber.App
	accounts AccountService
	listings ListingService
	tokens   TokenVerifier
	metrics  *Metrics
	log      logging.Logger
}

func NewServer(accounts AccountService, listings ListingService, tokens TokenVerifier,
	log logging.Logger, opts Options) *Server {

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		accounts: accounts,
		listings: listings,
		tokens:   tokens,
		metrics:  NewMetrics(reg),
		log:      log.With("module", "http"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "carmarket-api",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(s.observe())
	app.Use(corsMiddleware(opts.CORSOrigins))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := app.Group("/api/docs")

	users := api.Group("/users")
	authLimit := s.rateLimitAuth(opts.AuthRateLimit, opts.LimiterStorage)
	users.Post("/signup", authLimit, s.signup)
	users.Post("/login", authLimit, s.login)
	users.Get("/view-users", s.viewUsers)
	users.Get("/me", s.requireAuth(), s.me)

	cars := api.Group("/cars")
	cars.Post("/add-car", s.requireAuth(), s.addCar)
	cars.Get("/view-cars", s.viewCars)
	cars.Post("/view-cars-search", s.searchCars)
	cars.Post("/global-search-cars", s.globalSearchCars)
	cars.Get("/view-car/:id", s.viewCar)
	cars.Put("/update-car/:id", s.requireAuth(), s.updateCar)
	cars.Delete("/delete-car/:id", s.requireAuth(), s.deleteCar)

	s.app = app
	return s
}

// App exposes the underlying fiber app, mostly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
