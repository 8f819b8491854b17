package server

import (
	"net/http"

	"polar-billing-bridge/internal/handler"
	appmiddleware "polar-billing-bridge/internal/middleware"
	"polar-billing-bridge/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	billingHandler *handler.BillingHandler
	webhookHandler *handler.WebhookHandler
	jwtSecret      string
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewServer(billingService service.BillingService, webhookService service.WebhookService, jwtSecret string) *Server {
	e := echo.New()

	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	billingHandler := handler.NewBillingHandler(billingService)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	s := &Server{
		echo:           e,
		billingHandler: billingHandler,
		webhookHandler: webhookHandler,
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- billing --------
	billing := api.Group("/billing")
	billing.POST("/create-checkout", s.billingHandler.CreateCheckout, appmiddleware.Auth(s.jwtSecret))
	billing.POST("/cancel-subscription", s.billingHandler.CancelSubscription, appmiddleware.Auth(s.jwtSecret))
	billing.GET("/payment-success", s.billingHandler.PaymentSuccess)
	billing.GET("/transaction-status", s.billingHandler.TransactionStatus)

	// -------- polar webhooks --------
	billing.POST("/webhook", s.webhookHandler.PolarWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
