// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package server exposes the dispatcher over HTTP: the worker reply
// endpoint, scan and tag administration, result queries, health and
// metrics.
package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/dispatcher"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// Server wires the dispatcher into a gin engine.
type Server struct {
	cfg        *config.Config
	dispatcher *dispatcher.Dispatcher
	httpServer *http.Server
}

// New builds the server.
func New(cfg *config.Config, d *dispatcher.Dispatcher) *Server {
	return &Server{cfg: cfg, dispatcher: d}
}

// Router assembles the route table.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if s.cfg.Dispatcher.ReplyUser != "" {
		api.Use(gin.BasicAuth(gin.Accounts{
			s.cfg.Dispatcher.ReplyUser: s.cfg.Dispatcher.ReplyPassword,
		}))
	}

	api.PUT("/reply", s.handleReply)
	api.POST("/scans", s.handleCreateScan)
	api.GET("/scans", s.handleListScans)
	api.DELETE("/scans/:scan_id", s.handleDeleteScan)
	api.POST("/scans/:scan_id/rescan-errored", s.handleRescanErrored)
	api.POST("/scans/:scan_id/prune-duplicates", s.handlePruneDuplicates)
	api.GET("/tasks", s.handleQueryTasks)
	api.GET("/tags/:tag_name", s.handleGetTag)
	api.POST("/tags/:tag_name", s.handleTag)
	api.DELETE("/tags/:tag_name", s.handleUntag)
	return router
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{Addr: s.cfg.GetHttpAddr(), Handler: s.Router()}
	log.Infof("dispatcher listening on %s", s.cfg.GetHttpAddr())
	return s.httpServer.ListenAndServe()
}

func (s *Server) handleReply(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.dispatcher.HandleReply(c.Request.Context(), body); err != nil {
		log.Warnf("reply handling failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

type createScanRequest struct {
	Analyzer   string           `json:"analyzer"`
	ScanConfig model.ScanConfig `json:"scan_config"`
}

func (s *Server) handleCreateScan(c *gin.Context) {
	var req createScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	analyzer := req.Analyzer
	if analyzer == "" {
		analyzer = model.AnalyzerLandscape
	}
	if !knownAnalyzer(analyzer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown analyzer " + analyzer})
		return
	}
	scanID, published, err := s.dispatcher.CreateScan(c.Request.Context(), analyzer, req.ScanConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scan_id": scanID, "tasks_published": published})
}

func (s *Server) handleListScans(c *gin.Context) {
	analyzer := c.DefaultQuery("analyzer", model.AnalyzerLandscape)
	page := 0
	if err := bindIntQuery(c, "page", &page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scans, err := s.dispatcher.ListScans(c.Request.Context(), analyzer, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans})
}

func (s *Server) handleDeleteScan(c *gin.Context) {
	analyzer := c.DefaultQuery("analyzer", model.AnalyzerLandscape)
	deleted, err := s.dispatcher.DeleteScan(c.Request.Context(), analyzer, c.Param("scan_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) handleRescanErrored(c *gin.Context) {
	analyzer := c.DefaultQuery("analyzer", model.AnalyzerLandscape)
	rescanned, err := s.dispatcher.RescanErrored(c.Request.Context(), analyzer, c.Param("scan_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rescanned": rescanned})
}

func (s *Server) handlePruneDuplicates(c *gin.Context) {
	analyzer := c.DefaultQuery("analyzer", model.AnalyzerLandscape)
	pruned, err := s.dispatcher.PruneDuplicates(c.Request.Context(), analyzer, c.Param("scan_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}

func (s *Server) handleQueryTasks(c *gin.Context) {
	analyzer := c.DefaultQuery("analyzer", model.AnalyzerLandscape)
	ctx := c.Request.Context()
	switch {
	case c.Query("task_id") != "":
		docs, err := s.dispatcher.TasksByTask(ctx, analyzer, c.Query("task_id"))
		respondDocs(c, docs, err)
	case c.Query("scan_id") != "":
		docs, err := s.dispatcher.TasksByScan(ctx, analyzer, c.Query("scan_id"))
		respondDocs(c, docs, err)
	case c.Query("domain") != "":
		docs, err := s.dispatcher.TasksByDomain(ctx, analyzer, c.Query("domain"))
		respondDocs(c, docs, err)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of task_id, scan_id or domain is required"})
	}
}

func (s *Server) handleGetTag(c *gin.Context) {
	tag, ok, err := s.dispatcher.GetTag(c.Request.Context(), c.Param("tag_name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		return
	}
	c.JSON(http.StatusOK, tag)
}

type tagRequest struct {
	ScanIDs []string `json:"scan_ids" binding:"required"`
}

func (s *Server) handleTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.dispatcher.TagScans(c.Request.Context(), c.Param("tag_name"), req.ScanIDs...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "tagged"})
}

func (s *Server) handleUntag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.dispatcher.UntagScans(c.Request.Context(), c.Param("tag_name"), req.ScanIDs...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "untagged"})
}

func respondDocs(c *gin.Context, docs interface{}, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": docs})
}

func bindIntQuery(c *gin.Context, name string, out *int) error {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("query parameter %s must be an integer", name)
	}
	*out = v
	return nil
}

func knownAnalyzer(name string) bool {
	for _, a := range model.KnownAnalyzers {
		if a == name {
			return true
		}
	}
	return false
}
