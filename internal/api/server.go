// Package api provides the HTTP API for observing the labor market.
// GET endpoints are public (read-only observation).
// POST and DELETE endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/talgya/labormarket/internal/agents"
	"github.com/talgya/labormarket/internal/config"
	"github.com/talgya/labormarket/internal/engine"
	"github.com/talgya/labormarket/internal/jobs"
	"github.com/talgya/labormarket/internal/persistence"
)

// Server serves the simulation over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // nil disables history and snapshots
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// Requests per minute per IP on public endpoints. 0 disables limiting.
	RateLimit int

	e *echo.Echo
}

// Handler builds the router. Start calls it; tests use it directly.
func (s *Server) Handler() *echo.Echo {
	if s.e != nil {
		return s.e
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	v1 := e.Group("/api/v1")

	// Public endpoints (GET, read-only).
	public := v1.Group("")
	if s.RateLimit > 0 {
		public.Use(NewRateLimiter(s.RateLimit, time.Minute).Middleware())
	}
	public.GET("/status", s.handleStatus)
	public.GET("/stats", s.handleStats)
	public.GET("/stats/history", s.handleStatsHistory)
	public.GET("/adverts", s.handleAdverts)
	public.GET("/jobs", s.handleJobs)
	public.GET("/jobs/:id", s.handleJob)
	public.GET("/agents/:id", s.handleAgent)
	public.GET("/events", s.handleEvents)
	public.GET("/runs", s.handleRuns)
	public.GET("/speed", s.handleGetSpeed)

	// Admin endpoints.
	admin := v1.Group("", s.adminOnly)
	admin.POST("/speed", s.handleSetSpeed)
	admin.POST("/jobs", s.handleCreateJob)
	admin.DELETE("/jobs/:id", s.handleDeleteJob)
	admin.POST("/snapshot", s.handleSnapshot)

	s.e = e
	return e
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	e := s.Handler()
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.e == nil {
		return nil
	}
	return s.e.Shutdown(ctx)
}

// adminOnly requires a bearer token matching AdminKey.
func (s *Server) adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.AdminKey == "" {
			return echo.NewHTTPError(http.StatusForbidden, "admin endpoints disabled (no LABORMARKET_ADMIN_KEY set)")
		}
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

func (s *Server) handleStatus(c echo.Context) error {
	snap := s.Sim.Snapshot()
	status := map[string]any{
		"name":            "labormarket",
		"tick":            snap.Tick,
		"sim_time":        snap.SimTime,
		"speed":           s.Eng.Speed(),
		"running":         s.Eng.Running(),
		"population":      snap.Population,
		"employed":        snap.Employed,
		"employment_rate": snap.Records.EmploymentRate,
		"open_roles":      snap.Adverts,
		"jobs":            snap.Jobs,
		"births":          snap.Records.Births,
		"deaths":          snap.Records.Deaths,
		"hires":           snap.Records.Hires,
	}
	if s.DB != nil {
		status["run_id"] = s.DB.RunID()
		if last, err := s.DB.GetMeta("last_tick"); err == nil {
			status["last_saved_tick"] = last
		}
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Sim.Snapshot())
}

func (s *Server) handleStatsHistory(c echo.Context) error {
	if s.DB == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database not available")
	}

	limit := queryLimit(c, 30, 1000)
	rows, err := s.DB.StatsHistory(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "stats history unavailable")
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleAdverts(c echo.Context) error {
	ads := s.Sim.Adverts()

	if j := c.QueryParam("job"); j != "" {
		id, err := strconv.ParseUint(j, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid job id")
		}
		filtered := ads[:0]
		for _, a := range ads {
			if a.Job == jobs.JobID(id) {
				filtered = append(filtered, a)
			}
		}
		ads = filtered
	}
	return c.JSON(http.StatusOK, ads)
}

func (s *Server) handleJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Sim.JobViews())
}

func (s *Server) handleJob(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid job id")
	}
	v, ok := s.Sim.JobView(jobs.JobID(id))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (s *Server) handleAgent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid agent id")
	}
	a, ok := s.Sim.AgentView(agents.AgentID(id))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":        a.ID,
		"name":      a.Name,
		"age":       a.Age,
		"born_tick": a.BornTick,
		"employed":  !a.Has(agents.TagUnemployed),
	})
}

// handleEvents serves the in-memory recent events, or with ?source=journal
// the events already written to the run journal (newest first).
func (s *Server) handleEvents(c echo.Context) error {
	limit := queryLimit(c, 50, 500)

	var events []engine.Event
	switch c.QueryParam("source") {
	case "", "memory":
		events = s.Sim.RecentEvents(limit)
	case "journal":
		if s.DB == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database not available")
		}
		var err error
		events, err = s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("journal events query failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "events unavailable")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "source must be memory or journal")
	}

	if cat := c.QueryParam("category"); cat != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []engine.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleRuns(c echo.Context) error {
	if s.DB == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database not available")
	}
	runs, err := s.DB.Runs()
	if err != nil {
		slog.Error("runs query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "runs unavailable")
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetSpeed(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSetSpeed(c echo.Context) error {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Speed < 0 || req.Speed > 1000 {
		return echo.NewHTTPError(http.StatusBadRequest, "speed must be 0-1000")
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	return c.JSON(http.StatusOK, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleCreateJob(c echo.Context) error {
	var req config.JobConfig
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	j, err := req.Build()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id := s.Sim.AddJob(j)
	slog.Info("job added", "job", id, "name", j.Name, "roles", len(j.Roles))
	return c.JSON(http.StatusCreated, map[string]any{"id": id, "name": j.Name})
}

func (s *Server) handleDeleteJob(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid job id")
	}
	if !s.Sim.RemoveJob(jobs.JobID(id)) {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	slog.Info("job removed", "job", id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSnapshot(c echo.Context) error {
	if s.DB == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database not available")
	}
	if err := s.DB.Flush(s.Sim); err != nil {
		slog.Error("snapshot save failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "snapshot failed")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tick":    s.Sim.Snapshot().Tick,
		"message": "snapshot saved",
	})
}

// queryLimit reads ?limit=, falling back to def when missing or outside (0, hi].
func queryLimit(c echo.Context, def, hi int) int {
	if l := c.QueryParam("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= hi {
			return n
		}
	}
	return def
}
