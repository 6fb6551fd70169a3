package counter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/wxcounter/internal/errx"
	"github.com/sundayezeilo/wxcounter/internal/httpx"
)

const (
	// SourceHeader is set by the WeChat cloud gateway on requests it forwards.
	SourceHeader = "X-WX-Source"
	// OpenIDHeader carries the caller's openid, injected by the same gateway.
	OpenIDHeader = "X-WX-OpenID"
)

// countRequest is the body of POST /api/count. Action stays untyped so that
// a non-string value decodes fine and maps to Unknown.
type countRequest struct {
	Action any `json:"action"`
}

// Handler provides HTTP handlers for the counter endpoints.
type Handler struct {
	service         Service
	logger          *slog.Logger
	indexPage       []byte
	rejectUntrusted bool
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service   Service
	Logger    *slog.Logger
	IndexPage []byte
	// RejectUntrusted makes WxOpenID answer 403 when the gateway source
	// header is missing, instead of leaving the request unanswered.
	RejectUntrusted bool
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:         cfg.Service,
		logger:          logger,
		indexPage:       cfg.IndexPage,
		rejectUntrusted: cfg.RejectUntrusted,
	}
}

// Index serves the static landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	httpx.WriteHTML(w, http.StatusOK, h.indexPage)
}

// SubmitCount handles POST /api/count.
func (h *Handler) SubmitCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	action, err := decodeAction(r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	n, err := h.service.Submit(ctx, action)
	if err != nil {
		h.handleStoreError(ctx, w, err, action)
		return
	}

	if action.Mutates() {
		logger.InfoContext(ctx, "counter updated",
			"action", action.String(),
			"count", n,
		)
	}

	httpx.WriteData(w, n)
}

// GetCount handles GET /api/count.
func (h *Handler) GetCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Count(r.Context())
	if err != nil {
		h.handleStoreError(r.Context(), w, err, Unknown)
		return
	}
	httpx.WriteData(w, n)
}

// WxOpenID echoes the openid injected by the WeChat gateway.
//
// The endpoint is only reachable through that gateway in production. A
// request without the source header is left unanswered until the client
// gives up, unless the handler was built with RejectUntrusted.
func (h *Handler) WxOpenID(w http.ResponseWriter, r *http.Request) {
	const op = "counter.handler.WxOpenID"
	ctx := r.Context()

	if r.Header.Get(SourceHeader) != "" {
		httpx.WriteText(w, http.StatusOK, r.Header.Get(OpenIDHeader))
		return
	}

	if h.rejectUntrusted {
		h.logger.WarnContext(ctx, "rejected request without gateway source header",
			"request_id", httpx.GetRequestID(ctx),
			"remote_addr", r.RemoteAddr,
		)
		httpx.WriteKindError(w, errx.E(op, errx.Forbidden,
			errors.New("request did not come through the WeChat gateway")))
		return
	}

	h.logger.DebugContext(ctx, "leaving request without gateway source header unanswered",
		"request_id", httpx.GetRequestID(ctx),
		"remote_addr", r.RemoteAddr,
	)
	<-ctx.Done()
}

func (h *Handler) handleStoreError(ctx context.Context, w http.ResponseWriter, err error, action Action) {
	h.logger.ErrorContext(ctx, "record store failure",
		"request_id", httpx.GetRequestID(ctx),
		"action", action.String(),
		"error", err.Error(),
		"error_kind", errx.KindOf(err),
		"operation", errx.OpOf(err),
	)
	httpx.WriteKindError(w, err)
}

// decodeAction reads the action field from a JSON or URL-encoded body.
// A missing body is the same as a missing field.
func decodeAction(r *http.Request) (Action, error) {
	if httpx.IsForm(r) {
		v, err := httpx.FormValue(r, "action")
		if err != nil {
			return Unknown, err
		}
		return ParseAction(v), nil
	}

	req, err := httpx.DecodeJSON[countRequest](r)
	if errors.Is(err, httpx.ErrEmptyBody) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, err
	}
	return ParseAction(req.Action), nil
}
