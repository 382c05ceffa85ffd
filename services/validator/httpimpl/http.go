// Package httpimpl exposes the validator over HTTP.
package httpimpl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/services/validator"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ValidatorHTTPStat = gocore.NewStat("ValidatorHTTP")

// Validator is the part of validator.Service the HTTP layer needs.
type Validator interface {
	Health(ctx context.Context) (int, string, error)
	ValidateTransaction(ctx context.Context, tx *model.Transaction) (*validator.Result, error)
	ValidateTransactions(ctx context.Context, txs []*model.Transaction) ([]*validator.Result, error)
}

type HTTP struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	validator Validator
	e         *echo.Echo
	startTime time.Time
}

// New creates the HTTP server.
//
// API Endpoints:
//
//	GET  /alive                    liveness
//	GET  /health                   utxo store health
//	GET  /metrics                  prometheus metrics
//	POST /api/v1/validate          validate one JSON transaction
//	POST /api/v1/validate/batch    validate a JSON array of transactions
//
// Both validate endpoints answer 200 with the result, valid or not. Malformed
// bodies get 400 and store failures 500.
func New(logger ulogger.Logger, tSettings *settings.Settings, v Validator) *HTTP {
	initPrometheusMetrics()

	e := echo.New()
	e.Debug = tSettings.Validator.EchoDebug
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(tSettings.Validator.HTTPMaxBodySize))

	if e.Debug {
		e.Use(customLoggerMiddleware(logger))
	}

	h := &HTTP{
		logger:    logger,
		settings:  tSettings,
		validator: v,
		e:         e,
		startTime: time.Now(),
	}

	e.GET("/alive", func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf("Validator service is alive. Uptime: %s\n", time.Since(h.startTime)))
	})

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiGroup := e.Group("/api/v1")
	apiGroup.POST("/validate", h.Validate)
	apiGroup.POST("/validate/batch", h.ValidateBatch)

	return h
}

func (h *HTTP) Health(c echo.Context) error {
	status, details, err := h.validator.Health(c.Request().Context())
	if err != nil {
		h.logger.Warnf("[Validator_http] health check failed: %v", err)
		return c.String(http.StatusServiceUnavailable, details)
	}

	return c.String(status, details)
}

func (h *HTTP) Validate(c echo.Context) error {
	start := gocore.CurrentTime()
	defer func() {
		ValidatorHTTPStat.NewStat("Validate").AddTime(start)
	}()

	prometheusValidatorHTTPValidate.Inc()

	tx, err := model.NewTransactionFromReader(c.Request().Body)
	if err != nil {
		return sendError(c, decodeStatus(err), err)
	}

	result, err := h.validator.ValidateTransaction(c.Request().Context(), tx)
	if err != nil {
		h.logger.Errorf("[Validator_http] failed to validate %s: %v", tx.ID, err)
		return sendError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *HTTP) ValidateBatch(c echo.Context) error {
	start := gocore.CurrentTime()
	defer func() {
		ValidatorHTTPStat.NewStat("ValidateBatch").AddTime(start)
	}()

	prometheusValidatorHTTPValidateBatch.Inc()

	txs, err := model.NewTransactionsFromReader(c.Request().Body)
	if err != nil {
		return sendError(c, decodeStatus(err), err)
	}

	results, err := h.validator.ValidateTransactions(c.Request().Context(), txs)
	if err != nil {
		h.logger.Errorf("[Validator_http] failed to validate batch of %d: %v", len(txs), err)
		return sendError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, results)
}

// Start serves until ctx is done or the server fails.
func (h *HTTP) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()

		h.logger.Infof("[Validator] HTTP service shutting down")

		if err := h.e.Shutdown(context.Background()); err != nil {
			h.logger.Errorf("[Validator] HTTP service shutdown error: %s", err)
		}
	}()

	h.logger.Infof("[Validator] HTTP listening on %s", addr)

	err := h.e.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.NewServiceError("[Validator] HTTP server failed", err)
	}

	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

// ServeHTTP lets tests and embedding servers use the router directly.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.e.ServeHTTP(w, r)
}

// Middleware to log HTTP requests using the custom logger
func customLoggerMiddleware(logger ulogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			logger.Infof("http request: Method=%s, URI=%s, RemoteAddr=%s Status=%d, Duration=%v, err=%v", c.Request().Method, c.Request().RequestURI, c.Request().RemoteAddr, status, duration, err)

			return err
		}
	}
}
