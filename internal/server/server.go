// Package server exposes graph generation and validation over HTTP.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/config"
	"github.com/agenthands/graphmock/internal/core"
	"github.com/agenthands/graphmock/internal/core/edges"
	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/core/nodepool"
	"github.com/agenthands/graphmock/internal/core/validate"
)

type Server struct {
	Config *config.Config
	Logger *zap.Logger
}

func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Config: cfg, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/generate", s.Generate)
	r.POST("/validate", s.Validate)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GenerateRequest overrides the server configuration for one run. Zero
// values keep the configured setting.
type GenerateRequest struct {
	Seed       *uint64               `json:"seed"`
	Count      int                   `json:"count"`
	Types      nodepool.Distribution `json:"types"`
	NamePolicy string                `json:"name_policy"`
	UsageScope string                `json:"usage_scope"`
	Rules      []edges.Rule          `json:"rules"`
}

func (s *Server) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cfg := *s.Config
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Count != 0 {
		cfg.Nodes.Count = req.Count
	}
	if len(req.Types) > 0 {
		cfg.Nodes.Types = req.Types
	}
	if req.NamePolicy != "" {
		cfg.Attributes.NamePolicy = req.NamePolicy
	}
	if req.UsageScope != "" {
		cfg.Edges.UsageScope = req.UsageScope
	}
	if len(req.Rules) > 0 {
		cfg.Edges.Rules = req.Rules
	}
	if limit := s.Config.Server.MaxNodes; limit > 0 && cfg.Nodes.Count > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count exceeds server limit", "max_nodes": limit})
		return
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	graph, summary, err := core.NewMockGraph(&cfg, s.Logger).Build()
	if err != nil {
		if errors.Is(err, edges.ErrEmptyPool) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("generate failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate graph"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary, "graph": graph})
}

type ValidateRequest struct {
	Nodes      []model.Node           `json:"nodes"`
	Edges      []model.Edge           `json:"edges"`
	Attributes []model.NodeAttributes `json:"attributes"`
	// Rules default to the configured edge rules.
	Rules      []edges.Rule `json:"rules"`
	UsageScope string       `json:"usage_scope"`
}

type ValidateResponse struct {
	OK         bool                              `json:"ok"`
	Report     *model.ValidationReport           `json:"report"`
	Attributes map[string]*model.AttributeReport `json:"attribute_reports,omitempty"`
}

func (s *Server) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rules := s.Config.Edges.Rules
	if len(req.Rules) > 0 {
		if err := edges.ValidateRules(req.Rules); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules = req.Rules
	}
	scope := edges.UsageScope(s.Config.Edges.UsageScope)
	if req.UsageScope != "" {
		scope = edges.UsageScope(req.UsageScope)
	}

	resp := ValidateResponse{Report: validate.New(rules, scope).Validate(req.Nodes, req.Edges)}
	resp.OK = resp.Report.OK()

	if len(req.Attributes) > 0 {
		resp.Attributes = validate.ValidateAttributesByType(req.Nodes, req.Attributes)
		for _, r := range resp.Attributes {
			resp.OK = resp.OK && r.Invalid == 0
		}
	}

	c.JSON(http.StatusOK, resp)
}
