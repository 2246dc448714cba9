package api

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"mealdesk/internal/auth"
	"mealdesk/internal/live"
	"mealdesk/internal/models"
	"mealdesk/internal/monitoring"
	"mealdesk/internal/panel"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options wires the server to the rest of the desk
type Options struct {
	Panel       *panel.Panel
	Auth        *auth.Service
	Hub         *live.Hub
	Monitor     *monitoring.Monitor
	AuthEnabled bool
	Logger      *log.Logger
	// AccessLog turns on gin's request log
	AccessLog bool
}

// Server represents the HTTP surface of the desk: the HTML panel and the JSON API
type Server struct {
	Router      *gin.Engine
	panel       *panel.Panel
	auth        *auth.Service
	hub         *live.Hub
	monitor     *monitoring.Monitor
	authEnabled bool
	log         *log.Logger
}

// NewServer creates the router and registers every route
func NewServer(opts Options) *Server {
	router := gin.New()
	router.Use(RequestID())
	if opts.AccessLog {
		router.Use(requestLogger())
	}
	router.Use(gin.Recovery())
	if opts.Monitor != nil {
		router.Use(opts.Monitor.GinMiddleware())
	}
	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"),
	))

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}
	s := &Server{
		Router:      router,
		panel:       opts.Panel,
		auth:        opts.Auth,
		hub:         opts.Hub,
		monitor:     opts.Monitor,
		authEnabled: opts.AuthEnabled,
		log:         logger,
	}
	s.setupRoutes()
	return s
}

var templateFuncs = template.FuncMap{
	"upper": func(s models.Status) string { return strings.ToUpper(string(s)) },
	"color": models.StatusColor,
}

// setupRoutes configures all endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "mealdesk is running"})
	})

	s.Router.GET("/ui/login", s.loginPage)
	s.Router.POST("/ui/login", s.loginSubmit)
	s.Router.POST("/ui/logout", s.logoutSubmit)

	ui := s.Router.Group("/")
	api := s.Router.Group("/api")
	if s.authEnabled {
		ui.Use(auth.RequireLogin(s.auth.Secret(), "/ui/login"))
		api.Use(auth.Middleware(s.auth.Secret()))
	}

	ui.GET("/", s.indexPage)
	forms := ui.Group("/ui")
	{
		forms.POST("/meals", s.addItemForm(models.KindMeal))
		forms.POST("/meals/:id/delete", s.deleteItemForm(models.KindMeal))
		forms.POST("/drinks", s.addItemForm(models.KindDrink))
		forms.POST("/drinks/:id/delete", s.deleteItemForm(models.KindDrink))
		forms.POST("/users", s.addUserForm)
		forms.POST("/users/:id/delete", s.deleteUserForm)
		forms.POST("/orders", s.addOrderForm)
		forms.POST("/orders/:id/advance", s.advanceOrderForm)
		forms.POST("/orders/:id/delete", s.deleteOrderForm)
	}

	if s.hub != nil {
		ws := s.Router.Group("/ws")
		if s.authEnabled {
			ws.Use(auth.Middleware(s.auth.Secret()))
		}
		ws.GET("", s.hub.ServeWS)
	}

	s.Router.POST("/api/v1/auth/login", s.login)
	api.GET("/metrics", s.metrics)

	v1 := api.Group("/v1")
	{
		for _, kind := range []models.CatalogKind{models.KindMeal, models.KindDrink} {
			g := v1.Group("/" + kind.Table())
			g.GET("", s.listItems(kind))
			g.POST("", s.addItem(kind))
			g.DELETE("/:id", s.deleteItem(kind))
			g.GET("/:id/detail", s.itemDetail(kind))
		}

		v1.GET("/users", s.listUsers)
		v1.POST("/users", s.registerUser)
		v1.DELETE("/users/:id", s.deleteUser)

		v1.GET("/orders", s.listOrders)
		v1.POST("/orders", s.addOrder)
		v1.GET("/orders/pending", s.pendingOrders)
		v1.DELETE("/orders/:id", s.deleteOrder)
		v1.PUT("/orders/:id/status", s.updateOrderStatus)
		v1.POST("/orders/:id/advance", s.advanceOrder)

		v1.GET("/reports/offices", s.officeReports)
		v1.GET("/reports/offices/:office", s.officeReport)
	}
}
