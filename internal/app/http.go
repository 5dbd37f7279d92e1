package app

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/chatcortex/internal/platform/ctxutil"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// adminClaims is the session token issued to the configured admin after
// they authenticate out of band (spec.md §6: "admin commands are accepted
// only in private chat from a configured admin id/username"; this HTTP
// surface is a narrow side-channel onto the same dashboard_stats read
// model, not a replacement transport).
type adminClaims struct {
	jwt.RegisteredClaims
}

// httpServer is the minimal health/dashboard HTTP surface SPEC_FULL.md's
// Domain Stack names ("the chat transport itself is out of scope per §1").
type httpServer struct {
	engine            *gin.Engine
	jwtSecret         []byte
	jwtTokenTTL       time.Duration
	adminUserID       int64
	adminPasswordHash string
	log               *logger.Logger
}

func buildHTTPServer(cfg Config, queues *Queues, log *logger.Logger) *httpServer {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("chatcortex"))
	r.Use(attachTraceContext())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	s := &httpServer{
		engine:            r,
		jwtSecret:         []byte(cfg.JWTSecretKey),
		jwtTokenTTL:       cfg.JWTTokenTTL,
		adminUserID:       cfg.AdminUserID,
		adminPasswordHash: cfg.AdminPasswordHash,
		log:               log.With("component", "app.httpServer"),
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", s.login)

	dashboard := r.Group("/dashboard")
	dashboard.Use(s.requireAdminToken())
	dashboard.GET("/queues", func(c *gin.Context) {
		ctx := c.Request.Context()
		out := make(map[string]queue.Stats, len(queues.Named()))
		for name, q := range queues.Named() {
			stats, err := q.DashboardStats(ctx)
			if err != nil {
				log.Error("dashboard stats failed", "queue", name, "error", err)
				continue
			}
			out[name] = stats
		}
		c.JSON(http.StatusOK, out)
	})

	return s
}

// attachTraceContext stamps each request with a trace id and request id,
// preferring caller-supplied headers, then the active otel span, then a
// fresh UUID, and mirrors both back on the response.
func attachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" {
			spanCtx := trace.SpanContextFromContext(c.Request.Context())
			if spanCtx.HasTraceID() {
				traceID = spanCtx.TraceID().String()
			}
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// login exchanges the admin password for a dashboard session token. Only
// available when ADMIN_PASSWORD_HASH is configured; otherwise the startup
// path mints a token directly (see App.Run).
func (s *httpServer) login(c *gin.Context) {
	if s.adminPasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login disabled"})
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(body.Password)); err != nil {
		s.log.Warn("admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, err := s.issueAdminToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(s.jwtTokenTTL.Seconds())})
}

// issueAdminToken mints a session token for the configured admin id.
func (s *httpServer) issueAdminToken() (string, error) {
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   int64ToString(s.adminUserID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *httpServer) requireAdminToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		parsed, err := jwt.ParseWithClaims(tokenString, &adminClaims{}, func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Next()
	}
}

func int64ToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
