// Package handlers serves the ledger operations and the reconcile job queue over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/tally-ledger/internal/api/middleware"
	"github.com/dvloznov/tally-ledger/internal/jobs"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/dvloznov/tally-ledger/internal/render"
	"github.com/gorilla/mux"
)

// LedgerHandler routes HTTP requests through the operation table.
type LedgerHandler struct {
	dispatcher *ledger.Dispatcher
}

// NewLedgerHandler creates a handler over d.
func NewLedgerHandler(d *ledger.Dispatcher) *LedgerHandler {
	return &LedgerHandler{dispatcher: d}
}

// ListTransactions handles GET /api/transactions?year=&month=&partner=
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, ledger.OpListTransactions, queryArgs(r, "year", "month", "partner"))
}

// GetLedger handles GET /api/ledger?filter_by_year=&filter_by_quarter=&filter_by_month=&columns=
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, ledger.OpGetLedger, queryArgs(r, "filter_by_year", "filter_by_quarter", "filter_by_month", "columns"))
}

// GetOutstanding handles GET /api/outstanding?year=
func (h *LedgerHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, ledger.OpGetOutstanding, queryArgs(r, "year"))
}

// GetOutstandingItems handles GET /api/outstanding/items?year=&partner=
func (h *LedgerHandler) GetOutstandingItems(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, ledger.OpGetOutstandingItems, queryArgs(r, "year", "partner"))
}

// CreateTransaction handles POST /api/transactions
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeArgs(w, r)
	if !ok {
		return
	}
	h.dispatchStatus(w, r, ledger.OpCreateTransaction, args, http.StatusCreated)
}

// UpdateTransaction handles PATCH /api/transactions/{id}
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeArgs(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if bodyID, ok := args["id"]; ok && bodyID != id {
		middleware.WriteError(w, http.StatusBadRequest, "id in body does not match the path")
		return
	}
	args["id"] = id
	h.dispatch(w, r, ledger.OpUpdateTransaction, args)
}

// Dispatch handles POST /api/operations/{op} with the arguments as a JSON object.
func (h *LedgerHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	op, err := ledger.ParseOperation(mux.Vars(r)["op"])
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	args, ok := decodeArgs(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, op, args)
}

// ListOperations handles GET /api/operations
func (h *LedgerHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"operations": h.dispatcher.Operations()})
}

func (h *LedgerHandler) dispatch(w http.ResponseWriter, r *http.Request, op ledger.Operation, args ledger.Args) {
	h.dispatchStatus(w, r, op, args, http.StatusOK)
}

func (h *LedgerHandler) dispatchStatus(w http.ResponseWriter, r *http.Request, op ledger.Operation, args ledger.Args, status int) {
	format := render.FormatJSON
	if name := r.URL.Query().Get("format"); name != "" {
		var err error
		if format, err = render.ParseFormat(name); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := h.dispatcher.Dispatch(r.Context(), op, args)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	// CSV and text only make sense for reports; everything else is JSON.
	if res.Report != nil && format != render.FormatJSON {
		out, err := render.Bytes(format, res.Report)
		if err != nil {
			writeLedgerError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.WriteHeader(status)
		_, _ = w.Write(out)
		return
	}

	body := map[string]any{
		"operation": res.Operation,
		"message":   res.Message,
	}
	if res.Report != nil {
		body["report"] = render.JSONValue(res.Report)
	}
	if res.Transaction != nil {
		body["transaction"] = render.TransactionValue(res.Transaction)
	}
	middleware.WriteJSON(w, status, body)
}

// StatusFor maps a ledger error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrUnknownPartner),
		errors.Is(err, ledger.ErrUnknownOperation),
		errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case ledger.IsCallerError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeLedgerError reports caller errors verbatim and hides store failures.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Ledger operation failed")
		middleware.WriteError(w, status, "Internal server error")
		return
	}
	middleware.WriteError(w, status, err.Error())
}

// queryArgs copies the named, non-empty query parameters.
func queryArgs(r *http.Request, names ...string) ledger.Args {
	q := r.URL.Query()
	args := ledger.Args{}
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			args[name] = v
		}
	}
	return args
}

// decodeArgs reads a JSON object body. Numbers stay json.Number so amounts keep
// their exact decimal text.
func decodeArgs(w http.ResponseWriter, r *http.Request) (ledger.Args, bool) {
	args := ledger.Args{}
	if r.Body == nil || r.ContentLength == 0 {
		return args, true
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return args, true
}

// JobsHandler enqueues reconcile jobs and reports their state.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	now       func() time.Time
}

// NewJobsHandler creates a jobs handler. now supplies the default year.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore, now func() time.Time) *JobsHandler {
	if now == nil {
		now = time.Now
	}
	return &JobsHandler{publisher: publisher, store: store, now: now}
}

// Reconcile handles POST /api/reconcile with {"partner": "...", "year": 2024}.
func (h *JobsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Partner string `json:"partner"`
		Year    int    `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Partner) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "partner is required")
		return
	}
	if req.Year == 0 {
		req.Year = h.now().Year()
	}
	if req.Year < 1 || req.Year > 9999 {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("year %d out of range", req.Year))
		return
	}

	log := logger.FromContext(r.Context())
	job := &jobs.ReconcileJob{Partner: req.Partner, Year: req.Year}
	if err := h.publisher.PublishReconcile(r.Context(), job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue reconcile job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue reconcile job")
		return
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("partner", job.Partner).
		Int("year", job.Year).
		Msg("Reconcile job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs?partner=&year=&status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := jobs.JobFilter{
		Partner: q.Get("partner"),
		Status:  jobs.ParseStatus(q.Get("status")),
	}
	for name, dst := range map[string]*int{"year": &filter.Year, "limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid "+name)
				return
			}
			*dst = n
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}
