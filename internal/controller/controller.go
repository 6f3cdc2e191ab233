// Package controller exposes a script's control operations over HTTP.
package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/scriptd/pkg/lifecycle"
	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/script"
	"github.com/bft-labs/scriptd/pkg/task"
)

// Reloader reloads the script's task set.
type Reloader interface {
	Reload() (int, error)
}

// Controller serves the start/suspend/resume/stop API for one script.
type Controller struct {
	script   *script.Script
	reloader Reloader
	gatherer prometheus.Gatherer
	logger   log.Logger
	baseCtx  context.Context
}

// Option configures a Controller.
type Option func(*Controller)

// WithReloader enables POST /v1/tasks/reload.
func WithReloader(r Reloader) Option {
	return func(c *Controller) {
		c.reloader = r
	}
}

// WithGatherer serves /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Controller) {
		c.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Controller) {
		c.logger = log.OrNoop(logger)
	}
}

// WithBaseContext sets the context a started script runs under. Request
// contexts end with the response, so they cannot be used.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) {
		c.baseCtx = ctx
	}
}

// New creates a controller for s.
func New(s *script.Script, opts ...Option) *Controller {
	c := &Controller{
		script:  s,
		logger:  log.NoopLogger{},
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Router builds the gin engine.
func (c *Controller) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(c.logger))

	v1 := r.Group("/v1")
	{
		v1.GET("/status", c.Status)
		v1.POST("/start", c.Start)
		v1.POST("/suspend", c.Suspend)
		v1.POST("/resume", c.Resume)
		v1.POST("/stop", c.Stop)
		v1.POST("/tasks/reload", c.ReloadTasks)
	}

	if c.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Serve listens on addr until ctx is done, then shuts the server down.
func (c *Controller) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("controller listening", log.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Status reports the script's state and runtime.
func (c *Controller) Status(ctx *gin.Context) {
	m := c.script.Manifest()
	tasks := c.script.Scheduler().Tasks()
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = task.NameOf(t)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"name":                   m.Name,
		"version":                m.Version,
		"authors":                m.Authors,
		"description":            m.Description,
		"identity":               string(c.script.Identity()),
		"state":                  c.script.State().String(),
		"session":                c.script.SessionID(),
		"total_runtime_seconds":  c.script.TotalRuntimeSeconds(),
		"active_runtime_seconds": c.script.ActiveRuntimeSeconds(),
		"tasks":                  names,
		"settings":               c.script.Settings().Backend().Location(),
	})
}

// Start starts the script.
func (c *Controller) Start(ctx *gin.Context) {
	c.respond(ctx, c.script.Start(c.baseCtx))
}

// Suspend suspends the script.
func (c *Controller) Suspend(ctx *gin.Context) {
	c.respond(ctx, c.script.Suspend())
}

// Resume resumes the script.
func (c *Controller) Resume(ctx *gin.Context) {
	c.respond(ctx, c.script.Resume())
}

// Stop stops the script.
func (c *Controller) Stop(ctx *gin.Context) {
	c.respond(ctx, c.script.Stop())
}

// ReloadTasks reloads the task directory.
func (c *Controller) ReloadTasks(ctx *gin.Context) {
	if c.reloader == nil {
		ctx.JSON(http.StatusNotImplemented, gin.H{"err": "task reload not configured"})
		return
	}
	n, err := c.reloader.Reload()
	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"err": err.Error(), "tasks": n})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tasks": n})
}

// respond maps a control error to a status code. Callback failures and
// shutdown timeouts leave the transition in place and are reported as warnings.
func (c *Controller) respond(ctx *gin.Context, err error) {
	body := gin.H{"state": c.script.State().String()}
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, body)
	case errors.Is(err, script.ErrAlreadyRunning),
		errors.Is(err, script.ErrNotRunning),
		errors.Is(err, script.ErrNotSuspended):
		body["err"] = err.Error()
		ctx.JSON(http.StatusConflict, body)
	case errors.Is(err, lifecycle.ErrCallbackFailed),
		errors.Is(err, script.ErrShutdownTimeout):
		body["warning"] = err.Error()
		ctx.JSON(http.StatusOK, body)
	default:
		body["err"] = err.Error()
		ctx.JSON(http.StatusInternalServerError, body)
	}
}

// requestLogger logs each request through the structured logger.
func requestLogger(logger log.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Debug("http request",
			log.String("method", ctx.Request.Method),
			log.String("path", ctx.FullPath()),
			log.Int("status", ctx.Writer.Status()),
			log.Duration("duration", time.Since(start)))
	}
}
