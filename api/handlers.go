package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
)

var validate = validator.New()

const interactionNotFound = "Interaction not found"

type Handler struct {
	dispatcher Dispatcher
	repo       contractx.Repository
	db         Pinger
	now        func() time.Time
}

func NewHandler(dispatcher Dispatcher, repo contractx.Repository, db Pinger) *Handler {
	return &Handler{dispatcher: dispatcher, repo: repo, db: db, now: time.Now}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/health/ready", h.Ready)

	g := e.Group("/interactions")
	g.POST("/structured", h.CreateStructured)
	g.POST("/chat", h.Chat)
	g.GET("/", h.List)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Edit)
	g.GET("/:id/summary", h.Summary)
	g.GET("/:id/next-best-action", h.NextBestAction)
}

/* ---------------------------------- health ---------------------------------- */

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ready(c echo.Context) error {
	if h.db == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

/* ----------------------------- structured create ---------------------------- */

type StructuredInteractionRequest struct {
	HCPName           string     `json:"hcp_name" validate:"required"`
	Specialty         *string    `json:"specialty"`
	InteractionDate   *Timestamp `json:"interaction_date" validate:"required"`
	Channel           string     `json:"channel" validate:"required"`
	ProductsDiscussed *string    `json:"products_discussed"`
	Notes             *string    `json:"notes"`
}

func (h *Handler) CreateStructured(c echo.Context) error {
	var req StructuredInteractionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	req.HCPName = strings.TrimSpace(req.HCPName)
	req.Channel = strings.TrimSpace(req.Channel)
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationDetail(err))
	}

	it := &storex.Interaction{
		InteractionDate:   req.InteractionDate.Time.UTC(),
		Channel:           req.Channel,
		ProductsDiscussed: req.ProductsDiscussed,
		Notes:             req.Notes,
	}
	hcp, err := h.repo.LogInteraction(c.Request().Context(), req.HCPName, blankToNil(req.Specialty), it)
	if err != nil {
		return err
	}
	it.HCP = hcp
	return c.JSON(http.StatusOK, newInteractionResponse(it))
}

/* ----------------------------------- chat ----------------------------------- */

type ChatRequest struct {
	FreeText        string     `json:"free_text"`
	Channel         *string    `json:"channel"`
	InteractionDate *Timestamp `json:"interaction_date"`
}

type ChatResponse struct {
	Status      string           `json:"status"`
	Intent      contractx.Intent `json:"intent"`
	Degraded    bool             `json:"degraded"`
	ToolResult  any              `json:"tool_result"`
	Interaction *InteractionCard `json:"interaction,omitempty"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	text := strings.TrimSpace(req.FreeText)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "free_text must not be empty")
	}

	dctx := contractx.DispatchContext{Channel: blankToNil(req.Channel)}
	if req.InteractionDate != nil {
		date := req.InteractionDate.Time
		dctx.InteractionDate = &date
	}

	out, err := h.dispatcher.Dispatch(c.Request().Context(), contractx.DispatchRequest{
		UserInput: text,
		Context:   dctx,
	})
	if err != nil {
		return err
	}
	if out.Result == nil {
		return fmt.Errorf("%w: intent=%s", contractx.ErrEmptyResult, out.Intent)
	}

	resp := ChatResponse{
		Status:     "success",
		Intent:     out.Intent,
		Degraded:   out.Degraded,
		ToolResult: out.Result,
	}
	if logged, ok := out.Result.(contractx.LogResult); ok {
		resp.Interaction = newInteractionCard(logged, dctx.Channel == nil)
	}
	return c.JSON(http.StatusOK, resp)
}

/* ---------------------------------- reads ----------------------------------- */

func (h *Handler) List(c echo.Context) error {
	items, err := h.repo.ListInteractions(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]InteractionResponse, 0, len(items))
	for i := range items {
		out = append(out, newInteractionResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := interactionID(c)
	if err != nil {
		return err
	}
	it, err := h.repo.GetInteraction(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storex.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, interactionNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, newInteractionResponse(it))
}

/* ------------------------------ pinned intents ------------------------------ */

type EditRequest struct {
	Updates map[string]any `json:"updates" validate:"required"`
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := interactionID(c)
	if err != nil {
		return err
	}
	var req EditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationDetail(err))
	}
	return h.dispatchPinned(c, contractx.IntentEditInteraction, contractx.DispatchContext{
		InteractionID: &id,
		Updates:       req.Updates,
	})
}

func (h *Handler) Summary(c echo.Context) error {
	id, err := interactionID(c)
	if err != nil {
		return err
	}
	return h.dispatchPinned(c, contractx.IntentGenerateSummary, contractx.DispatchContext{InteractionID: &id})
}

func (h *Handler) NextBestAction(c echo.Context) error {
	id, err := interactionID(c)
	if err != nil {
		return err
	}
	return h.dispatchPinned(c, contractx.IntentRecommendNextBestAction, contractx.DispatchContext{InteractionID: &id})
}

func (h *Handler) dispatchPinned(c echo.Context, intent contractx.Intent, dctx contractx.DispatchContext) error {
	out, err := h.dispatcher.Dispatch(c.Request().Context(), contractx.DispatchRequest{
		Intent:  intent,
		Context: dctx,
	})
	if err != nil {
		return err
	}
	if out.Result == nil {
		return fmt.Errorf("%w: intent=%s", contractx.ErrEmptyResult, intent)
	}
	return c.JSON(http.StatusOK, out.Result)
}

/* --------------------------------- helpers ---------------------------------- */

func interactionID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid interaction id")
	}
	return id, nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "missing or invalid fields: " + strings.Join(fields, ", ")
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
