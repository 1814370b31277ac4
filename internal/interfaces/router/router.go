package router

import (
	"errors"
	"fmt"
	"net/http"

	booksvc "studio-backend/internal/application/bookings"
	emailsvc "studio-backend/internal/application/emails"
	healthsvc "studio-backend/internal/application/health"
	paysvc "studio-backend/internal/application/payments"
	authsvc "studio-backend/internal/auth"
	"studio-backend/internal/config"
	"studio-backend/internal/infrastructure/database"
	authhandler "studio-backend/internal/interfaces/handlers/auth"
	bookhandler "studio-backend/internal/interfaces/handlers/bookings"
	healthhandler "studio-backend/internal/interfaces/handlers/health"
	payhandler "studio-backend/internal/interfaces/handlers/payments"
	"studio-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Resources are the long-lived dependencies behind the app; Close releases them.
type Resources struct {
	DB       *gorm.DB
	Rdb        *redis.Client
	RateLimits *redisstorage.Storage
	Bookings   *booksvc.Service
}

// Close waits for queued notifications, then closes Redis and the database pool.
func (r *Resources) Close() error {
	if r.Bookings != nil {
		r.Bookings.Close()
	}
	var errs []error
	if r.RateLimits != nil {
		errs = append(errs, r.RateLimits.Close())
	}
	if r.Rdb != nil {
		errs = append(errs, r.Rdb.Close())
	}
	if r.DB != nil {
		errs = append(errs, database.Close(r.DB))
	}
	return errors.Join(errs...)
}

func CreateApp(cfg *config.Config) (*fiber.App, *Resources, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	rdb := redis.NewClient(redisOpts)
	res := &Resources{DB: db, Rdb: rdb}
	limits, err := newRateLimitStorage(cfg.RedisURL)
	if err != nil {
		_ = res.Close()
		return nil, nil, err
	}
	res.RateLimits = limits

	notifier := &emailsvc.TemplateNotifier{
		Sender:     newMailSender(cfg),
		StudioName: cfg.StudioName,
		SiteURL:    cfg.SiteURL,
	}
	bookings := booksvc.NewService(booksvc.NewGormStore(db), notifier, cfg.MonthlyCapacity, cfg.AdminEmail)
	res.Bookings = bookings
	gateway := paysvc.NewStripeGateway(cfg.StripeSecretKey)
	payments := paysvc.NewService(bookings, gateway, cfg.PaymentCurrency)

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Stripe signs the raw body, so the webhook sits ahead of the session and logging chain.
	webhook := &payhandler.WebhookHandler{Payments: payments, WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", webhook.HandleWebhook)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Session(rdb, sessionCfg))

	probes := map[string]string{}
	if gateway.Configured() {
		probes["stripe"] = "https://api.stripe.com/healthcheck"
	}
	hh := &healthhandler.Handlers{
		Collector:      &healthsvc.Collector{Rdb: rdb, DB: healthsvc.GormPinger{DB: db}, Probes: probes},
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Post("/reset", hh.Reset)

	ah := &authhandler.Handlers{
		Finder: &authsvc.GormAdminFinder{DB: db},
		Rdb:    rdb,
		Config: sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	bh := &bookhandler.Handlers{Service: bookings}
	bg := app.Group("/api/v1/bookings")
	bg.Post("/", middleware.BookingRateLimiter(limits, cfg.BookingRateLimit, cfg.BookingRateWindow), bh.Create)
	bg.Get("/availability", bh.Overview)
	bg.Get("/availability/:month", bh.Availability)

	ag := app.Group("/api/v1/admin/bookings", middleware.RequireAdmin())
	ag.Get("/", bh.List)
	ag.Get("/:id", bh.Get)
	ag.Patch("/:id/approve", bh.Approve)
	ag.Patch("/:id/decline", bh.Decline)
	ag.Patch("/:id/complete", bh.Complete)
	ag.Patch("/:id/cancel", bh.Cancel)

	ph := &payhandler.Handlers{Service: payments}
	pg := app.Group("/api/v1/payments")
	pg.Post("/create-intent", ph.CreateIntent)
	pg.Get("/intents/:intent_id", ph.SyncIntent)

	return app, res, nil
}

func newMailSender(cfg *config.Config) emailsvc.Sender {
	if cfg.MailProvider == "smtp" {
		return &emailsvc.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	}
	return &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, SenderName: cfg.StudioName}
}

// Handler exposes the app as a net/http handler for serverless hosts.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}

// newRateLimitStorage connects the limiter's shared counters. The storage package panics
// when Redis is unreachable, so that is turned back into an error here.
func newRateLimitStorage(url string) (s *redisstorage.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rate limit storage: %v", r)
		}
	}()
	return redisstorage.New(redisstorage.Config{URL: url, Reset: false}), nil
}
