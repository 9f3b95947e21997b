package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dvloznov/tally-ledger/internal/agent"
	"github.com/dvloznov/tally-ledger/internal/api/middleware"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"google.golang.org/genai"
)

// FunctionsHandler serves the ledger operations as model function-calling tools.
// A client fetches the declarations for its GenerateContentConfig and posts back
// each FunctionCall the model emits.
type FunctionsHandler struct {
	library agent.Library
}

// NewFunctionsHandler answers function calls through d.
func NewFunctionsHandler(d *ledger.Dispatcher) *FunctionsHandler {
	return &FunctionsHandler{library: agent.NewLibrary(d)}
}

// ListFunctions handles GET /api/functions
func (h *FunctionsHandler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"functions": agent.Declarations()})
}

// Call handles POST /api/functions with a genai.FunctionCall body. Operation
// failures come back inside the FunctionResponse so the model can react to them.
func (h *FunctionsHandler) Call(w http.ResponseWriter, r *http.Request) {
	var call genai.FunctionCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(call.Name) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.library(r.Context(), &call))
}
