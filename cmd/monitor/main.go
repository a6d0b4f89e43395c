package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"amc/internal/auth"
	"amc/internal/config"
	"amc/internal/export"
	"amc/internal/httpmiddleware"
	"amc/internal/monitor"
	"amc/internal/queue"
	"amc/internal/roster"
	"amc/internal/session"
	"amc/internal/store"
	"amc/internal/timetable"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(config.ExitConfig)
	}
	if err := cfg.RequireFiles(); err != nil {
		log.Printf("%v", err)
		os.Exit(config.ExitResource)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("monitor failed: %v", err)
	}
}

func run(cfg config.App) error {
	today := time.Now()

	faculty, err := roster.LoadFaculty(cfg.FacultyPath(), cfg.TokenModulus, today)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(config.ExitResource)
	}
	students, err := roster.LoadStudents(cfg.StudentPath())
	if err != nil {
		log.Printf("%v", err)
		os.Exit(config.ExitResource)
	}
	oracle, err := timetable.LoadTiming(cfg.TimingPath())
	if err != nil {
		log.Printf("%v", err)
		os.Exit(config.ExitResource)
	}
	lectures, err := timetable.LoadLectures(cfg.LecturePath())
	if err != nil {
		log.Printf("%v", err)
		os.Exit(config.ExitResource)
	}

	if !lectures.HasSection(cfg.SectionName) {
		log.Printf("section %q not found in lecture table", cfg.SectionName)
		os.Exit(config.ExitConfig)
	}
	if lectures.IsHoliday(cfg.SectionName, today.Weekday()) {
		log.Printf("no lectures scheduled for %s today (%s), nothing to monitor", cfg.SectionName, today.Weekday())
		return nil
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: ledger db not reachable, running in-memory only: %v", err)
		db = nil
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	var scans queue.Queue
	if cfg.QueueBackend == "redis" {
		scans = queue.NewRedisQueue(redisClient.Client, "amc:scans")
	} else {
		scans = queue.NewInMemory(64)
	}

	mailer := export.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	if mailer == nil {
		log.Println("SMTP not configured, attendance records stay on local disk")
	}
	var gateway session.Gateway = export.NewGateway(cfg.ArtifactDir, cfg.SectionName, mailer)
	if db != nil {
		gateway = &persistingGateway{
			inner:   gateway,
			repo:    store.NewLedgerRepository(db.Client),
			section: cfg.SectionName,
		}
	}

	machine := session.New(session.Config{
		Section:  cfg.SectionName,
		WarnLead: cfg.WarnLead,
		HODEmail: cfg.HODEmail,
	}, faculty, students, oracle, lectures, gateway, session.LogFeedback{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := monitor.New(machine, scans, cfg.TickInterval, nil)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("polling loop error: %v", err)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.NewLimiter(cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := cfg.QueueBackend != "redis" || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status": "ok",
			"redis":  redisHealthy,
			"db":     db.Healthy(c.Request.Context()),
		})
	})

	r.POST("/v1/devices/register", func(c *gin.Context) {
		var req struct {
			DeviceID string `json:"device_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, expiresAt, err := auth.Issue(req.DeviceID, "scanner", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token": token,
			"expires_at":   expiresAt.Unix(),
		})
	})

	scanner := r.Group("/v1", auth.ScannerAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	scanner.POST("/scans", func(c *gin.Context) {
		var req struct {
			DeviceID string `json:"device_id" binding:"required"`
			Payload  string `json:"payload" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claimsAny, _ := c.Get("claims")
		claims, _ := claimsAny.(auth.Claims)
		if claims.DeviceID != "" && claims.DeviceID != req.DeviceID {
			c.JSON(http.StatusForbidden, gin.H{"error": "device mismatch"})
			return
		}
		scan := queue.Scan{
			ID:       uuid.NewString(),
			DeviceID: req.DeviceID,
			Payload:  req.Payload,
			At:       time.Now().UTC(),
		}
		if err := scans.Publish(c.Request.Context(), scan); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan queue unavailable"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"scan_id": scan.ID})
	})

	scanner.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, machine.Snapshot())
	})

	scanner.GET("/ledger", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"batches": machine.Ledger()})
	})

	scanner.POST("/stop", func(c *gin.Context) {
		cancel()
		c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting monitor API on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Println("shutdown signal received")
		cancel()
		<-loopDone
	case <-loopDone:
		log.Println("polling loop finished")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}
	log.Println("monitor exited")
	return nil
}

// persistingGateway mirrors every exported batch into the ledger
// repository. Persistence failures are diagnostics only; the artifact on
// disk already exists.
type persistingGateway struct {
	inner   session.Gateway
	repo    *store.LedgerRepository
	section string
}

func (g *persistingGateway) ExportBatch(ctx context.Context, b session.Batch) (string, error) {
	path, err := g.inner.ExportBatch(ctx, b)
	if err != nil {
		return "", err
	}
	if err := g.repo.InsertBatch(ctx, g.section, b); err != nil {
		log.Printf("ledger persistence failed for %s: %v", b.LedgerKey(), err)
	}
	return path, nil
}

func (g *persistingGateway) ExportDay(ctx context.Context, batches []session.Batch) (string, error) {
	return g.inner.ExportDay(ctx, batches)
}

func (g *persistingGateway) Notify(ctx context.Context, artifactPath, recipient, subject, body string) error {
	return g.inner.Notify(ctx, artifactPath, recipient, subject, body)
}
