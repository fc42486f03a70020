package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classtrack/internal/analytics"
	"classtrack/internal/auth"
	"classtrack/internal/classroom"
	"classtrack/internal/config"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/identity"
	"classtrack/internal/queue"
	"classtrack/internal/session"
	"classtrack/internal/store"
)

const dateLayout = "2006-01-02"

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classtrack:checkins")
	}

	directory := identity.NewDirectory(cfg.DirectoryURL, cfg.DirectorySkip)
	identities := identity.NewService(identity.NewRepository(db.Client), directory)

	classRepo := classroom.NewRepository(db.Client)
	classes := classroom.NewService(classRepo, identities)

	sessionRepo := session.NewRepository(db.Client)
	sessions := session.NewService(sessionRepo, classRepo, q)

	recorder := analytics.NewRecorder(redisClient.Client)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/token", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Role  string `json:"role" binding:"required,oneof=teacher student"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id, err := identities.Resolve(c.Request.Context(), req.Email)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity lookup failed"})
			return
		}

		tokens, err := auth.Issue(id.ID, id.Email, id.Name, req.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.RequireUser(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Mutations below are teacher actions; ownership is checked again in the
	// services, the role gate just fails obvious misuse earlier.
	teachers := authGroup.Group("", auth.RequireRole(auth.RoleTeacher))

	teachers.POST("/classes", func(c *gin.Context) {
		var req struct {
			Subject      string   `json:"subject" binding:"required"`
			Room         string   `json:"room" binding:"required"`
			ScheduleDays []string `json:"schedule_days" binding:"required"`
			StartDate    string   `json:"start_date" binding:"required"`
			EndDate      string   `json:"end_date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}

		claims := auth.CurrentUser(c)
		created, err := classes.Create(c.Request.Context(), claims.Subject, claims.Name, classroom.CreateParams{
			Subject:      req.Subject,
			Room:         req.Room,
			ScheduleDays: req.ScheduleDays,
			StartDate:    start,
			EndDate:      end,
		})
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	authGroup.GET("/classes", func(c *gin.Context) {
		list, err := classes.List(c.Request.Context(), auth.CurrentUser(c).Subject)
		if err != nil {
			log.Printf("list classes failed: %v", err)
			list = nil
		}
		c.JSON(http.StatusOK, gin.H{"classes": list})
	})

	authGroup.GET("/classes/:id", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		cls, err := classes.Get(c.Request.Context(), classID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cls)
	})

	teachers.PUT("/classes/:id", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Subject      *string  `json:"subject"`
			Room         *string  `json:"room"`
			ScheduleDays []string `json:"schedule_days"`
			StartDate    *string  `json:"start_date"`
			EndDate      *string  `json:"end_date"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		params := classroom.UpdateParams{
			Subject:      req.Subject,
			Room:         req.Room,
			ScheduleDays: req.ScheduleDays,
		}
		if req.StartDate != nil {
			t, err := time.Parse(dateLayout, *req.StartDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
				return
			}
			params.StartDate = &t
		}
		if req.EndDate != nil {
			t, err := time.Parse(dateLayout, *req.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
				return
			}
			params.EndDate = &t
		}

		updated, err := classes.Update(c.Request.Context(), auth.CurrentUser(c).Subject, classID, params)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	teachers.DELETE("/classes/:id", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := classes.Delete(c.Request.Context(), auth.CurrentUser(c).Subject, classID); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	teachers.POST("/classes/:id/students", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims := auth.CurrentUser(c)
		updated, err := classes.AddStudent(c.Request.Context(), claims.Subject, claims.Email, classID, req.Email)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	teachers.DELETE("/classes/:id/students/:email", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		updated, err := classes.RemoveStudent(c.Request.Context(), auth.CurrentUser(c).Subject, classID, c.Param("email"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	teachers.POST("/classes/:id/attendance/start", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		sess, err := sessions.Open(c.Request.Context(), auth.CurrentUser(c).Subject, classID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID, "qr_code": sess.Token})
	})

	teachers.POST("/classes/:id/attendance/end", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := sessions.Close(c.Request.Context(), auth.CurrentUser(c).Subject, classID); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.GET("/classes/:id/attendance/status", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		status, err := sessions.QueryStatus(c.Request.Context(), classID)
		if err != nil {
			log.Printf("attendance status failed: %v", err)
			status = session.Status{}
		}
		c.JSON(http.StatusOK, status)
	})

	authGroup.GET("/classes/:id/attendance/history", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		history, err := sessions.History(c.Request.Context(), classID)
		if err != nil {
			log.Printf("attendance history failed: %v", err)
			history = nil
		}
		c.JSON(http.StatusOK, gin.H{"sessions": history})
	})

	authGroup.GET("/classes/:id/attendance/sessions/:attendanceId", func(c *gin.Context) {
		classID, ok := pathID(c, "id")
		if !ok {
			return
		}
		sessionID, ok := pathID(c, "attendanceId")
		if !ok {
			return
		}
		detail, err := sessions.Detail(c.Request.Context(), classID, sessionID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, detail)
	})

	authGroup.POST("/checkins", func(c *gin.Context) {
		var req struct {
			Token string `json:"qr_code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims := auth.CurrentUser(c)
		sess, err := sessions.CheckIn(c.Request.Context(), req.Token, claims.Email)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sess.ID, "class_id": sess.ClassID})
	})

	authGroup.GET("/schedule", func(c *gin.Context) {
		day := time.Now()
		if v := c.Query("date"); v != "" {
			parsed, err := time.Parse(dateLayout, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			day = parsed
		}
		list, err := classes.List(c.Request.Context(), auth.CurrentUser(c).Subject)
		if err != nil {
			log.Printf("schedule list failed: %v", err)
			list = nil
		}
		c.JSON(http.StatusOK, gin.H{
			"date":    day.Format(dateLayout),
			"classes": classroom.ClassesOn(list, day),
		})
	})

	authGroup.GET("/analytics", func(c *gin.Context) {
		list, err := classes.List(c.Request.Context(), auth.CurrentUser(c).Subject)
		if err != nil {
			log.Printf("analytics list failed: %v", err)
			list = nil
		}
		summary := analytics.Summarize(list, time.Now())
		ids := make([]int64, len(list))
		for i := range list {
			ids[i] = list[i].ID
		}
		if counts, err := recorder.CheckInCounts(c.Request.Context(), ids); err == nil {
			summary.CheckInsByClass = counts
		} else {
			log.Printf("checkin counts failed: %v", err)
		}
		c.JSON(http.StatusOK, summary)
	})

	authGroup.GET("/download-attendance", func(c *gin.Context) {
		classID, err := strconv.ParseInt(c.Query("id"), 10, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "missing id or attendanceId")
			return
		}
		sessionID, err := strconv.ParseInt(c.Query("attendanceId"), 10, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "missing id or attendanceId")
			return
		}
		detail, err := sessions.Detail(c.Request.Context(), classID, sessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.String(http.StatusNotFound, "attendance record not found")
				return
			}
			c.String(http.StatusInternalServerError, "attendance lookup failed")
			return
		}

		emails := make([]string, len(detail.Presence))
		for i, entry := range detail.Presence {
			emails[i] = entry.Email
		}
		names, err := identities.DisplayNames(c.Request.Context(), emails)
		if err != nil {
			log.Printf("display name lookup failed: %v", err)
			names = nil
		}

		filename := fmt.Sprintf("attendance_%d_%d.csv", classID, sessionID)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv", []byte(session.ExportCSV(detail, names)))
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, classroom.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, classroom.ErrNotFound), errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, classroom.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, classroom.ErrSelfEnrollment),
		errors.Is(err, classroom.ErrUnknownIdentity),
		errors.Is(err, classroom.ErrAlreadyEnrolled),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrNotEnrolled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrSessionActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be numeric"})
		return 0, false
	}
	return id, true
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
