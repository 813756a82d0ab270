package handlers

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"grocerly/internal/config"
	applog "grocerly/internal/log"
)

//go:embed views/*.html
var viewsFS embed.FS

// LoginLimit is the number of login attempts allowed per IP per window.
const LoginLimit = 5

var apiRoutes = []string{
	"POST /api/user/register",
	"POST /api/user/login",
	"POST /api/user/logout",
	"GET|PUT /api/user/profile",
	"GET /api/products/category/:category",
	"GET /api/products/{dairy,tobacco,snacks}",
	"GET /api/products/product/:id",
	"GET /api/products/getproduct/:id",
	"GET|POST /api/products/search?query=",
	"GET /api/products/similar?category=&excludeId=",
	"POST /api/orders",
	"GET /api/orders",
	"PUT /api/orders/:orderId/cancel",
}

func views() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// NewApp wires middleware and routes. The caller owns Listen and Shutdown.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "grocerly",
		Views:        views(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: `{"ts":"${time}","req_id":"${locals:requestid}","status":${status},"latency":"${latency}","method":"${method}","path":"${path}"}` + "\n",
	}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	// ---------- Static ----------
	app.Get("/uploads/*", uploads(cfg.UploadsDir))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return respond(c, fiber.StatusOK, "ok", fiber.Map{"ok": true})
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("status", fiber.Map{
			"Name":   "grocerly",
			"Status": "ok",
			"Fee":    cfg.CancellationFee.String(),
			"Routes": apiRoutes,
		})
	})

	// ---------- API ----------
	api := app.Group("/api")
	requireUser := RequireUser(d.Auth, cfg.Auth.CookieSecure)

	user := api.Group("/user")
	user.Post("/register", d.UserHandler.Register)
	user.Post("/login", limiter.New(limiter.Config{
		Max:        LoginLimit,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return respond(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.", nil)
		},
	}), d.UserHandler.Login)
	user.Post("/logout", requireUser, d.UserHandler.Logout)
	user.Get("/profile", requireUser, d.UserHandler.Profile)
	user.Put("/profile", requireUser, d.UserHandler.UpdateProfile)

	ph := d.ProductHandler
	products := api.Group("/products")
	products.Get("/category/:category", ph.Category)
	products.Get("/dairy", ph.Fixed("dairy", "Dairy"))
	products.Get("/tobacco", ph.Fixed("tobacco", "Tobacco"))
	products.Get("/snacks", ph.Fixed("snacks", "Snack"))
	products.Get("/product/:id", ph.Get)
	products.Get("/getproduct/:id", ph.Get)
	products.Get("/search", ph.Search)
	products.Post("/search", ph.Search)
	products.Get("/similar", ph.Similar)

	orders := api.Group("/orders", requireUser)
	orders.Post("/", d.OrderHandler.Create)
	orders.Get("/", d.OrderHandler.History)
	orders.Put("/:orderId/cancel", d.OrderHandler.Cancel)

	api.Use(func(c *fiber.Ctx) error {
		applog.Info(c, "route.notfound", nil)
		return respond(c, fiber.StatusNotFound, fmt.Sprintf("Route %s %s not found", c.Method(), c.OriginalURL()), nil)
	})

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// uploads serves files under dir and refuses anything that could escape it.
func uploads(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		p := c.Params("*")
		lower := strings.ToLower(p)
		if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": p})
			return respond(c, fiber.StatusNotFound, "File not found", nil)
		}
		clean := filepath.Clean(p)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": p})
			return respond(c, fiber.StatusNotFound, "File not found", nil)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}
