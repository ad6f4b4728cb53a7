// Command server runs the unipay gateway: an HTTP front end over the
// payment orchestrator with request validation, tracing, metrics,
// per-provider health tracking, and retrospective reporting.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Pushparaj13811/unipay/internal/adapter"
	"github.com/Pushparaj13811/unipay/internal/adapter/mock"
	"github.com/Pushparaj13811/unipay/internal/adapter/razorpay"
	"github.com/Pushparaj13811/unipay/internal/adapter/stripe"
	"github.com/Pushparaj13811/unipay/internal/config"
	"github.com/Pushparaj13811/unipay/internal/health"
	"github.com/Pushparaj13811/unipay/internal/logger"
	"github.com/Pushparaj13811/unipay/internal/metrics"
	"github.com/Pushparaj13811/unipay/internal/monitor"
	"github.com/Pushparaj13811/unipay/internal/orchestrator"
	"github.com/Pushparaj13811/unipay/internal/payerror"
	"github.com/Pushparaj13811/unipay/internal/provider"
	"github.com/Pushparaj13811/unipay/internal/reporting"
)

type app struct {
	orch     *orchestrator.Orchestrator
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
	tracker  *health.Tracker
	recorder *reporting.Recorder
	monitor  *monitor.ContractMonitor
}

// createPaymentRequest is the wire shape of POST /v1/payments: the
// normalized input plus an optional explicit provider override.
type createPaymentRequest struct {
	adapter.CreatePaymentInput
	Provider string `json:"provider,omitempty"`
}

func (a *app) renderError(c *gin.Context, err error) {
	code := payerror.CodeOf(err)
	status := payerror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.log.Errorw("request failed", "code", code, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": string(code)})
}

func (a *app) createPayment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading request body: " + err.Error()})
		return
	}

	valid, violations, err := a.monitor.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations)})
		return
	}

	var req createPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
		return
	}

	var opts *orchestrator.Options
	if req.Provider != "" {
		p, ok := provider.Parse(req.Provider)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider: " + req.Provider})
			return
		}
		if !a.tracker.Allow(p) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider temporarily unavailable: " + req.Provider})
			return
		}
		opts = &orchestrator.Options{Provider: p}
	}

	start := time.Now()
	result, err := a.orch.CreatePayment(c.Request.Context(), req.CreatePaymentInput, opts)
	elapsed := time.Since(start)
	if err != nil {
		p := providerOf(err)
		a.metrics.ObservePayment(string(p), false, elapsed)
		if p != "" {
			a.tracker.RecordFailure(p)
		}
		a.recorder.Add(reporting.Record{
			Operation: "create_payment",
			Provider:  p,
			Outcome:   reporting.OutcomeFailure,
			Amount:    req.Money.Amount,
			Currency:  req.Money.Currency,
			ErrorCode: string(payerror.CodeOf(err)),
		})
		a.renderError(c, err)
		return
	}

	a.metrics.ObservePayment(string(result.Provider), true, elapsed)
	a.tracker.RecordSuccess(result.Provider)
	a.recorder.Add(reporting.Record{
		Operation: "create_payment",
		Provider:  result.Provider,
		Outcome:   reporting.OutcomeSuccess,
		Amount:    req.Money.Amount,
		Currency:  req.Money.Currency,
	})
	c.JSON(http.StatusCreated, result)
}

func (a *app) getPayment(c *gin.Context) {
	payment, err := a.orch.GetPayment(c.Request.Context(), c.Param("unipayId"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (a *app) createRefund(c *gin.Context) {
	var input *adapter.CreateRefundInput
	if c.Request.ContentLength > 0 {
		input = new(adapter.CreateRefundInput)
		if err := c.ShouldBindJSON(input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
			return
		}
	}

	start := time.Now()
	refund, err := a.orch.CreateRefund(c.Request.Context(), c.Param("unipayId"), input)
	elapsed := time.Since(start)
	if err != nil {
		a.metrics.ObserveRefund(string(providerOf(err)), false, elapsed)
		a.recorder.Add(reporting.Record{
			Operation: "refund",
			Provider:  providerOf(err),
			Outcome:   reporting.OutcomeFailure,
			ErrorCode: string(payerror.CodeOf(err)),
		})
		a.renderError(c, err)
		return
	}
	a.metrics.ObserveRefund(string(refund.Provider), true, elapsed)
	a.recorder.Add(reporting.Record{
		Operation: "refund",
		Provider:  refund.Provider,
		Outcome:   reporting.OutcomeSuccess,
		Amount:    refund.Money.Amount,
		Currency:  refund.Money.Currency,
	})
	c.JSON(http.StatusCreated, refund)
}

func (a *app) listRefunds(c *gin.Context) {
	refunds, err := a.orch.ListRefunds(c.Request.Context(), c.Param("unipayId"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	if refunds == nil {
		refunds = []adapter.Refund{}
	}
	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}

func (a *app) getPaymentByProviderID(c *gin.Context) {
	p, ok := provider.Parse(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider: " + c.Param("provider")})
		return
	}
	payment, err := a.orch.GetPaymentByProviderID(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (a *app) getRefund(c *gin.Context) {
	p, ok := provider.Parse(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider: " + c.Param("provider")})
		return
	}
	refund, err := a.orch.GetRefund(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

func (a *app) handleWebhook(c *gin.Context) {
	p, ok := provider.Parse(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider: " + c.Param("provider")})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading request body: " + err.Error()})
		return
	}
	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.Request.Header.Get(name)
	}

	event, err := a.orch.HandleWebhook(p, adapter.WebhookRequest{Body: body, Headers: headers})
	if err != nil {
		a.metrics.ObserveWebhook(string(p), false)
		a.recorder.Add(reporting.Record{
			Operation: "webhook",
			Provider:  p,
			Outcome:   reporting.OutcomeFailure,
			ErrorCode: string(payerror.CodeOf(err)),
		})
		if payerror.CodeOf(err) == payerror.CodeWebhookSignatureInvalid {
			a.log.Warnw("webhook signature rejected", "provider", p, "error", err)
		}
		a.renderError(c, err)
		return
	}

	a.metrics.ObserveWebhook(string(p), true)
	a.recorder.Add(reporting.Record{Operation: "webhook", Provider: p, Outcome: reporting.OutcomeSuccess})
	a.log.Infow("webhook accepted", "provider", p, "type", event.Type)
	c.JSON(http.StatusOK, event)
}

func (a *app) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": a.orch.RegisteredProviders()})
}

func (a *app) providerCapabilities(c *gin.Context) {
	p, ok := provider.Parse(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider: " + c.Param("provider")})
		return
	}
	caps, registered := a.orch.ProviderCapabilities(p)
	if !registered {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not registered: " + string(p)})
		return
	}
	c.JSON(http.StatusOK, caps)
}

func (a *app) providerHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": a.tracker.Snapshot(a.orch.RegisteredProviders())})
}

func (a *app) retrospective(c *gin.Context) {
	c.JSON(http.StatusOK, a.recorder.Generate())
}

// providerOf pulls the provider attribution out of a typed error, when
// one exists.
func providerOf(err error) provider.Provider {
	var e *payerror.Error
	if errors.As(err, &e) {
		return e.Provider
	}
	return ""
}

func setupRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("unipay-gateway"))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.POST("/payments", a.createPayment)
		v1.GET("/payments/:unipayId", a.getPayment)
		v1.POST("/payments/:unipayId/refunds", a.createRefund)
		v1.GET("/payments/:unipayId/refunds", a.listRefunds)

		v1.GET("/providers", a.listProviders)
		v1.GET("/providers/health", a.providerHealth)
		v1.GET("/providers/:provider/capabilities", a.providerCapabilities)
		v1.GET("/providers/:provider/payments/:id", a.getPaymentByProviderID)
		v1.GET("/providers/:provider/refunds/:id", a.getRefund)

		v1.POST("/webhooks/:provider", a.handleWebhook)

		v1.GET("/reports/retrospective", a.retrospective)
	}
	return r
}

func buildAdapters(cfg config.Config) []adapter.GatewayAdapter {
	if cfg.UseMockAdapters {
		return []adapter.GatewayAdapter{
			mock.New(provider.Stripe),
			mock.New(provider.Razorpay),
		}
	}
	var adapters []adapter.GatewayAdapter
	if cfg.StripeAPIKey != "" {
		adapters = append(adapters, stripe.New(cfg.StripeAPIKey, nil))
	}
	if cfg.RazorpayKeyID != "" {
		adapters = append(adapters, razorpay.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, nil))
	}
	return adapters
}

func buildWebhookConfigs(cfg config.Config) map[provider.Provider]adapter.WebhookConfig {
	configs := make(map[provider.Provider]adapter.WebhookConfig)
	if cfg.StripeWebhookSecret != "" {
		configs[provider.Stripe] = adapter.WebhookConfig{
			Secret:           cfg.StripeWebhookSecret,
			ToleranceSeconds: cfg.WebhookToleranceSeconds,
		}
	}
	if cfg.RazorpayWebhookSecret != "" {
		configs[provider.Razorpay] = adapter.WebhookConfig{
			Secret: cfg.RazorpayWebhookSecret,
		}
	}
	return configs
}

func initTracing(ctx context.Context, log *zap.SugaredLogger) func() {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Warnw("tracing disabled", "error", err)
		return func() {}
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Warnw("shutting down tracer provider", "error", err)
		}
	}
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync() //nolint:errcheck

	shutdownTracing := initTracing(context.Background(), log)
	defer shutdownTracing()

	contractMonitor, err := monitor.NewCreatePaymentMonitor()
	if err != nil {
		log.Fatalw("compiling request schema", "error", err)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Adapters:        buildAdapters(cfg),
		WebhookConfigs:  buildWebhookConfigs(cfg),
		DefaultProvider: cfg.DefaultProvider,
		Strategy:        cfg.Strategy,
	})
	if err != nil {
		log.Fatalw("building orchestrator", "error", err)
	}

	a := &app{
		orch:     orch,
		log:      log,
		metrics:  metrics.New(),
		tracker:  health.NewTracker(health.Config{}),
		recorder: reporting.NewRecorder(0),
		monitor:  contractMonitor,
	}

	log.Infow("starting gateway", "addr", cfg.HTTPAddr, "strategy", cfg.Strategy,
		"providers", orch.RegisteredProviders())
	if err := setupRouter(a).Run(cfg.HTTPAddr); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}
