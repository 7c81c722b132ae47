package analyses

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blog-analyzer-backend/internal/report"
	"blog-analyzer-backend/internal/shared/server/middleware"
	"blog-analyzer-backend/internal/shared/server/respond"
	"blog-analyzer-backend/internal/shared/server/sse"
	"blog-analyzer-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the per-session lifecycles.
type Handler struct {
	Sessions  *Registry
	Heartbeat time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(sessions *Registry) *Handler {
	return &Handler{Sessions: sessions, Heartbeat: sse.DefaultHeartbeat}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.submit)
	rg.GET("/analyses/current", h.current)
	rg.DELETE("/analyses/current", h.reset)
	rg.GET("/analyses/current/report", h.report)
	rg.GET("/analyses/current/events", h.events)
}

type submitRequest struct {
	BlogURL string `json:"blogUrl"`
}

func (h *Handler) submit(c *gin.Context) {
	var body submitRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "request body must be JSON", nil)
		return
	}

	req, err := Validate(body.BlogURL)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyInput):
			respond.Error(c, http.StatusBadRequest, ErrorCodeEmptyInput, err.Error(), []map[string]string{
				{"field": "blogUrl", "issue": "required"},
			})
		case errors.Is(err, ErrInvalidURL):
			respond.Error(c, http.StatusBadRequest, ErrorCodeInvalidURL, err.Error(), []map[string]string{
				{"field": "blogUrl", "issue": "scheme"},
			})
		default:
			respond.Error(c, http.StatusBadRequest, respond.CodeBadRequest, "invalid request", nil)
		}
		return
	}

	lc := h.Sessions.Get(middleware.SessionIDFromContext(c))
	prev := lc.State()
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	st := lc.Submit(ctx, req)

	c.Set("analysisId", st.ID())
	c.Set("statusTransition", string(prev.Status())+"->"+string(st.Status()))
	respond.Accepted(c, st)
}

func (h *Handler) current(c *gin.Context) {
	st := h.lookupState(c)
	if id := st.ID(); id != "" {
		c.Set("analysisId", id)
	}
	respond.OK(c, st)
}

func (h *Handler) reset(c *gin.Context) {
	lc := h.Sessions.Get(middleware.SessionIDFromContext(c))
	prev := lc.State()
	st := lc.Reset()
	if id := prev.ID(); id != "" {
		c.Set("analysisId", id)
	}
	c.Set("statusTransition", string(prev.Status())+"->"+string(st.Status()))
	respond.OK(c, st)
}

func (h *Handler) report(c *gin.Context) {
	st := h.lookupState(c)
	res, ok := st.Result()
	if !ok {
		respond.Error(c, http.StatusConflict, respond.CodeNotReady, "report is not ready", gin.H{
			"status": st.Status(),
		})
		return
	}
	c.Set("analysisId", st.ID())
	respond.OK(c, report.NewView(res))
}

// lookupState reads the session's state without creating a Lifecycle for
// sessions that never submitted.
func (h *Handler) lookupState(c *gin.Context) State {
	if lc, ok := h.Sessions.Lookup(middleware.SessionIDFromContext(c)); ok {
		return lc.State()
	}
	return idleState(time.Now().UTC())
}

func (h *Handler) events(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	lc := h.Sessions.Get(sessionID)
	updates, stop := lc.Subscribe()
	defer stop()

	w, err := sse.NewWriter(c.Writer)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "streaming unsupported", nil)
		return
	}

	interval := h.Heartbeat
	if interval <= 0 {
		interval = sse.DefaultHeartbeat
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := w.Send("state", st); err != nil {
				telemetry.Warn("sse.write_failed", map[string]any{
					"request_id": middleware.RequestIDFromContext(c),
					"session_id": sessionID,
					"error":      err.Error(),
				})
				return
			}
			h.Sessions.Touch(sessionID)
		case <-ticker.C:
			if err := w.Heartbeat(); err != nil {
				return
			}
			h.Sessions.Touch(sessionID)
		case <-ctx.Done():
			return
		}
	}
}
