package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/petasbytes/course-agent/internal/conversation"
	"github.com/petasbytes/course-agent/internal/provider"
	"github.com/petasbytes/course-agent/tools"
)

// Querier answers one question, optionally within a session.
type Querier interface {
	Query(ctx context.Context, text, sessionID string) (*conversation.Answer, error)
}

type SessionManager interface {
	CreateSession() string
	ClearSession(id string)
}

type Catalog interface {
	CourseTitles(ctx context.Context) ([]string, error)
}

type Deps struct {
	Querier  Querier
	Sessions SessionManager
	Catalog  Catalog
	Logger   *zap.Logger
	// Production switches gin to release mode.
	Production bool
}

type queryRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string           `json:"answer"`
	Sources   []tools.Citation `json:"sources"`
	SessionID string           `json:"session_id"`
}

type courseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// NewRouter wires the HTTP surface.
func NewRouter(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/query", func(c *gin.Context) {
			var req queryRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			sessionID := req.SessionID
			if sessionID == "" {
				sessionID = d.Sessions.CreateSession()
			}

			ans, err := d.Querier.Query(c.Request.Context(), req.Query, sessionID)
			if err != nil {
				if provider.IsEndpointError(err) {
					c.JSON(http.StatusBadGateway, gin.H{"error": "Model endpoint unavailable"})
					return
				}
				log.Error("Failed to answer query", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process query"})
				return
			}

			sources := ans.Citations
			if sources == nil {
				sources = []tools.Citation{}
			}
			c.JSON(http.StatusOK, queryResponse{Answer: ans.Text, Sources: sources, SessionID: sessionID})
		})

		api.GET("/courses", func(c *gin.Context) {
			titles, err := d.Catalog.CourseTitles(c.Request.Context())
			if err != nil {
				log.Error("Failed to list courses", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list courses"})
				return
			}
			if titles == nil {
				titles = []string{}
			}
			c.JSON(http.StatusOK, courseStats{TotalCourses: len(titles), CourseTitles: titles})
		})

		api.DELETE("/sessions/:id", func(c *gin.Context) {
			d.Sessions.ClearSession(c.Param("id"))
			c.JSON(http.StatusOK, gin.H{"status": "cleared"})
		})
	}
	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
