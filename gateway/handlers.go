package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Handler contains HTTP request handlers
type Handler struct {
	gateway  *Gateway
	upgrader *websocket.Upgrader
}

// NewHandler creates a new handler
func NewHandler(gw *Gateway, bufferSize int) *Handler {
	return &Handler{
		gateway: gw,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  bufferSize,
			WriteBufferSize: bufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// Cross-origin policy is enforced by the CORS middleware
				return true
			},
		},
	}
}

// HandleReadSymbol handles GET /api/v1/symbols/{name}/value
func (h *Handler) HandleReadSymbol(w http.ResponseWriter, r *http.Request) {
	symbolName := chi.URLParam(r, "name")
	if symbolName == "" {
		WriteError(w, NewInvalidRequestError("symbol name is required"))
		return
	}

	result, err := h.gateway.ReadSymbol(r.Context(), symbolName)
	if err != nil {
		WriteError(w, err)
		return
	}

	if !result.Success {
		WriteError(w, NewSymbolNotFoundError(symbolName))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleWriteSymbol handles POST /api/v1/symbols/{name}/value
func (h *Handler) HandleWriteSymbol(w http.ResponseWriter, r *http.Request) {
	symbolName := chi.URLParam(r, "name")
	if symbolName == "" {
		WriteError(w, NewInvalidRequestError("symbol name is required"))
		return
	}

	var req WriteSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	result, err := h.gateway.WriteSymbol(r.Context(), symbolName, req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	if !result.Success {
		WriteError(w, NewWriteFailedError(symbolName, result.Error))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleBatchRead handles POST /api/v1/symbols/read
func (h *Handler) HandleBatchRead(w http.ResponseWriter, r *http.Request) {
	var req BatchReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	if len(req.Symbols) == 0 {
		WriteError(w, NewInvalidRequestError("symbols array cannot be empty"))
		return
	}

	result, err := h.gateway.BatchRead(r.Context(), req.Symbols)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleBatchWrite handles POST /api/v1/symbols/write
func (h *Handler) HandleBatchWrite(w http.ResponseWriter, r *http.Request) {
	var req BatchWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	if len(req.Writes) == 0 {
		WriteError(w, NewInvalidRequestError("writes map cannot be empty"))
		return
	}

	result, err := h.gateway.BatchWrite(r.Context(), req.Writes)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleGetSymbolInfo handles GET /api/v1/symbols/{name}
func (h *Handler) HandleGetSymbolInfo(w http.ResponseWriter, r *http.Request) {
	symbolName := chi.URLParam(r, "name")
	if symbolName == "" {
		WriteError(w, NewInvalidRequestError("symbol name is required"))
		return
	}

	result, err := h.gateway.GetSymbolInfo(r.Context(), symbolName)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	result := h.gateway.GetHealth()
	WriteJSON(w, http.StatusOK, result)
}

// HandleInfo handles GET /api/v1/info
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	result, err := h.gateway.GetInfo(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleGetVersion handles GET /api/v1/version
func (h *Handler) HandleGetVersion(w http.ResponseWriter, r *http.Request) {
	result := h.gateway.GetVersion(r.Context())
	if !result.Success {
		WriteError(w, NewInternalError(result.Error))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleGetState handles GET /api/v1/state
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	result := h.gateway.GetState(r.Context())
	if !result.Success {
		WriteError(w, NewInternalError(result.Error))
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// HandleControl handles POST /api/v1/control
func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	if req.Command == "" {
		WriteError(w, NewInvalidRequestError("command is required"))
		return
	}

	result := h.gateway.Control(r.Context(), req.Command)
	if !result.Success {
		WriteError(w, NewInternalError(result.Error))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleWebSocket handles GET /ws/subscribe, upgrading the connection for
// real-time symbol notifications
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.gateway.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.gateway.HandleWebSocket(conn)
}
