package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"careermap/internal/engine"
	"careermap/internal/models"
)

type Handler struct {
	mu       sync.RWMutex
	table    *engine.Table
	sessions *sessionStore
	logger   *slog.Logger
}

// NewHandler serves table. A nil table is allowed: every data route answers
// 503 until SetData publishes one.
func NewHandler(table *engine.Table, maxSessions int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		table:    table,
		sessions: newSessionStore(maxSessions),
		logger:   logger,
	}
}

// SetData publishes the aggregation table once loading has finished.
func (h *Handler) SetData(table *engine.Table) {
	h.mu.Lock()
	h.table = table
	h.mu.Unlock()
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)
	api.GET("/experience-classes", h.GetExperienceClasses)

	api.GET("/states", h.GetStates, h.requireData)
	api.GET("/totals", h.GetTotals, h.requireData)
	api.GET("/careerareas/ranking", h.GetRanking, h.requireData)
	api.POST("/sessions", h.CreateSession, h.requireData)
	api.GET("/sessions/:id", h.GetSession, h.requireData)
	api.PUT("/sessions/:id/experience", h.SetExperience, h.requireData)
	api.POST("/sessions/:id/careerareas/:area/toggle", h.ToggleCareerArea, h.requireData)
	api.DELETE("/sessions/:id", h.DeleteSession, h.requireData)
}

const tableKey = "table"

func (h *Handler) currentTable() *engine.Table {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.table
}

func (h *Handler) requireData(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		t := h.currentTable()
		if t == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "data is still loading")
		}
		c.Set(tableKey, t)
		return next(c)
	}
}

func tableOf(c echo.Context) *engine.Table {
	return c.Get(tableKey).(*engine.Table)
}

func classParam(c echo.Context) (models.ExperienceClass, error) {
	e, ok := models.ParseExperienceClass(c.QueryParam("class"))
	if !ok {
		return e, echo.NewHTTPError(http.StatusBadRequest, "unknown experience class "+strconv.Quote(c.QueryParam("class")))
	}
	return e, nil
}

// --- HANDLERS ---

func (h *Handler) GetHealth(c echo.Context) error {
	t := h.currentTable()
	if t == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Health{Status: "loading"})
	}
	return c.JSON(http.StatusOK, models.Health{
		Status:      "ready",
		States:      len(t.States()),
		CareerAreas: len(t.Areas()),
		Sessions:    h.sessions.count(),
	})
}

func (h *Handler) GetExperienceClasses(c echo.Context) error {
	labels := make([]string, len(models.ExperienceClasses))
	for i, e := range models.ExperienceClasses {
		labels[i] = e.String()
	}
	return c.JSON(http.StatusOK, labels)
}

func (h *Handler) GetStates(c echo.Context) error {
	return c.JSON(http.StatusOK, tableOf(c).States())
}

// GetTotals returns CombinedStateVector for ?class= (default All).
func (h *Handler) GetTotals(c echo.Context) error {
	t := tableOf(c)
	e, err := classParam(c)
	if err != nil {
		return err
	}
	v, err := t.Combined(e)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	states := t.States()
	out := make([]models.StateCount, len(v))
	for i, n := range v {
		out[i] = models.StateCount{State: states[i], Count: n}
	}
	return c.JSON(http.StatusOK, out)
}

// GetRanking returns the static bar layout. Without ?class= it is the
// combined ranking used as the baseline order.
func (h *Handler) GetRanking(c echo.Context) error {
	t := tableOf(c)
	etag := t.ETag()
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}

	if c.QueryParam("class") == "" {
		return c.JSON(http.StatusOK, t.CombinedRanking())
	}
	e, err := classParam(c)
	if err != nil {
		return err
	}
	bars, err := t.Ranking(e)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, bars)
}

func (h *Handler) CreateSession(c echo.Context) error {
	id, sess, evicted := h.sessions.create(tableOf(c))
	if evicted != "" {
		h.logger.Info("session evicted", "session", evicted)
	}
	h.logger.Debug("session created", "session", id)

	sess.mu.Lock()
	view := sess.state.View()
	sess.mu.Unlock()
	return c.JSON(http.StatusCreated, models.SessionView{ID: id, View: view})
}

func (h *Handler) GetSession(c echo.Context) error {
	return h.withSession(c, func(*engine.SelectionState) error { return nil })
}

func (h *Handler) SetExperience(c echo.Context) error {
	var req models.ExperienceRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	e, ok := models.ParseExperienceClass(req.Class)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown experience class "+strconv.Quote(req.Class))
	}
	return h.withSession(c, func(s *engine.SelectionState) error {
		return s.Dispatch(engine.SetExperience{Class: e})
	})
}

func (h *Handler) ToggleCareerArea(c echo.Context) error {
	area, err := strconv.Atoi(c.Param("area"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "career area must be an integer id")
	}
	return h.withSession(c, func(s *engine.SelectionState) error {
		return s.Dispatch(engine.ToggleArea{AreaID: area})
	})
}

func (h *Handler) DeleteSession(c echo.Context) error {
	if !h.sessions.delete(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// withSession runs fn under the session's lock so each event is applied
// atomically, then responds with the resulting view.
func (h *Handler) withSession(c echo.Context, fn func(*engine.SelectionState) error) error {
	id := c.Param("id")
	sess, ok := h.sessions.get(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess.state); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownCareerArea):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrUnknownExperienceClass):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, models.SessionView{ID: id, View: sess.state.View()})
}
