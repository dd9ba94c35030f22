package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// RegisterRoutes wires every endpoint onto the echo instance. Mutating loan
// routes get the idempotency middleware from the caller.
func RegisterRoutes(e *echo.Echo, h *Handler, lh *LoanHandler, idemp echo.MiddlewareFunc) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/loans")
	if idemp != nil {
		g.Use(idemp)
	}
	g.POST("", lh.CreateLoan)
	g.GET("/:loan_id", lh.GetLoan)
	g.GET("/:loan_id/investments", lh.ListInvestments)
	g.POST("/:loan_id/approve", lh.ApproveLoan)
	g.POST("/:loan_id/invest", lh.InvestInLoan)
	g.POST("/:loan_id/disburse", lh.DisburseLoan)
}
