package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/sladewinter/Momentum/internal/coach"
	"github.com/sladewinter/Momentum/internal/session"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(RequestIDMiddleware)

	e.GET("/health", s.healthHandler)
	e.GET("/ws", s.websocketHandler)

	// Profile & settings
	e.GET("/profile", s.getProfileHandler)
	e.POST("/onboarding", s.onboardingHandler)
	e.PUT("/profile", s.saveSettingsHandler)
	e.DELETE("/profile", s.deleteAccountHandler)

	// Daily plans
	e.GET("/plan", s.getPlanHandler)
	e.POST("/plan/regenerate", s.regeneratePlanHandler)
	e.POST("/plan/prefetch", s.prefetchPlansHandler)
	e.POST("/plan/complete", s.completeWorkoutHandler)
	e.POST("/plan/skip", s.skipWorkoutHandler)
	e.GET("/history", s.getHistoryHandler)

	// Coaching
	e.POST("/coach/message", s.coachMessageHandler)
	e.GET("/coach/history", s.coachHistoryHandler)
	e.DELETE("/coach/history", s.clearCoachHistoryHandler)

	return e
}

// RequestIDMiddleware tags every request with an ID for log correlation.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)
		return next(c)
	}
}

// userSession resolves the caller's session from the X-User-ID header.
// Authentication itself lives outside this service; the header is the
// trusted identity boundary.
func (s *Server) userSession(c echo.Context) (*session.Session, error) {
	user := c.Request().Header.Get("X-User-ID")
	if user == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing X-User-ID header")
	}
	sess, err := s.sessions.Get(c.Request().Context(), user)
	if err != nil {
		log.Error().Err(err).Str("user", user).Msg("Failed to load session")
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load session")
	}
	return sess, nil
}

// persist writes the session snapshot; failures are logged, not surfaced,
// since the in-memory state is already authoritative for this process.
func (s *Server) persist(c echo.Context, sess *session.Session) {
	if err := s.sessions.Persist(c.Request().Context(), sess); err != nil {
		log.Error().Err(err).Str("user", sess.Username).Msg("Failed to persist session")
	}
}

func offsetParam(c echo.Context) int {
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil {
		return 0
	}
	return offset
}

// --- Health ---

func (s *Server) healthHandler(c echo.Context) error {
	report := map[string]any{"status": "up"}

	if vm, err := mem.VirtualMemory(); err == nil {
		report["mem_used_percent"] = vm.UsedPercent
	}
	if counts, err := cpu.Counts(true); err == nil {
		report["cpu_count"] = counts
	}
	if s.db != nil {
		report["database"] = s.db.Health()
	} else {
		report["database"] = map[string]string{"status": "disabled"}
	}

	return c.JSON(http.StatusOK, report)
}

// --- Profile & settings ---

func (s *Server) getProfileHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.GetProfile())
}

// onboardingHandler stores the initial profile. Unlike a settings save there
// is nothing to invalidate yet, so no cascade runs.
func (s *Server) onboardingHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	var p session.Profile
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid profile payload"})
	}
	p.Onboarded = true
	sess.UpdateProfile(p)
	s.persist(c, sess)
	return c.JSON(http.StatusOK, sess.GetProfile())
}

// saveSettingsHandler replaces the profile and cascades the wipe of plans,
// history, and coach conversation.
func (s *Server) saveSettingsHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	var p session.Profile
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid profile payload"})
	}
	p.Onboarded = true
	sess.SaveSettings(p)
	s.persist(c, sess)
	s.hub.NotifyRefresh(sess.Username)
	return c.JSON(http.StatusOK, sess.GetProfile())
}

func (s *Server) deleteAccountHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(c.Request().Context(), sess.Username); err != nil {
		log.Error().Err(err).Str("user", sess.Username).Msg("Failed to delete account state")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete account"})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Plans ---

func (s *Server) getPlanHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	offset := offsetParam(c)

	p, genErr := s.coach.EnsurePlan(c.Request().Context(), sess, offset)
	if genErr != nil {
		// EnsurePlan already substituted the fallback; surface only that the
		// plan is degraded.
		log.Warn().Err(genErr).Int("offset", offset).Msg("Serving fallback plan")
	}
	s.persist(c, sess)

	return c.JSON(http.StatusOK, map[string]any{
		"offset":   offset,
		"date":     session.DateKey(offset),
		"plan":     p,
		"fallback": p.IsFallback(),
	})
}

func (s *Server) regeneratePlanHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	offset := offsetParam(c)

	p, err := s.coach.Regenerate(c.Request().Context(), sess, offset)
	if err != nil {
		log.Error().Err(err).Int("offset", offset).Msg("Plan regeneration failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "plan generation failed, existing plan kept"})
	}
	s.persist(c, sess)
	s.hub.NotifyRefresh(sess.Username)

	return c.JSON(http.StatusOK, map[string]any{
		"offset": offset,
		"date":   session.DateKey(offset),
		"plan":   p,
	})
}

type prefetchRequest struct {
	Offsets []int `json:"offsets"`
}

func (s *Server) prefetchPlansHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	var req prefetchRequest
	if err := c.Bind(&req); err != nil || len(req.Offsets) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "offsets list required"})
	}
	if err := s.coach.PrefetchPlans(c.Request().Context(), sess, req.Offsets); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "prefetch interrupted"})
	}
	s.persist(c, sess)
	return c.JSON(http.StatusOK, map[string]int{"prefetched": len(req.Offsets)})
}

// completeWorkoutHandler marks today's workout done and logs the day's meals
// into history in the same step.
func (s *Server) completeWorkoutHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	offset := offsetParam(c)
	sess.MarkWorkoutComplete(offset)
	sess.LogMeals(offset)
	s.persist(c, sess)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) skipWorkoutHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	sess.MarkWorkoutSkipped(offsetParam(c))
	s.persist(c, sess)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getHistoryHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	h := sess.HistorySnapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"workouts":    h.RecentWorkouts(),
		"meals":       h.RecentMeals(),
		"adjustments": h.RecentAdjustments(),
	})
}

// --- Coaching ---

type coachMessageRequest struct {
	Message string `json:"message"`
	Offset  int    `json:"offset"`
}

func (s *Server) coachMessageHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	var req coachMessageRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message required"})
	}

	if !s.limiter.allow(sess.Username) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "slow down a little"})
	}

	result, err := s.coach.Chat(c.Request().Context(), sess, req.Offset, req.Message)
	if err != nil {
		if errors.Is(err, coach.ErrTurnInProgress) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "previous message still processing"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	s.persist(c, sess)
	if result.State == coach.StateApplied {
		s.hub.NotifyRefresh(sess.Username)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) coachHistoryHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Messages())
}

func (s *Server) clearCoachHistoryHandler(c echo.Context) error {
	sess, err := s.userSession(c)
	if err != nil {
		return err
	}
	sess.ClearCoach()
	s.persist(c, sess)
	return c.NoContent(http.StatusNoContent)
}
