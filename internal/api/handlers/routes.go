package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/tally-ledger/internal/api/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NewRouter registers every API route behind the shared middleware.
func NewRouter(ledgerHandler *LedgerHandler, jobsHandler *JobsHandler, functionsHandler *FunctionsHandler, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/transactions", ledgerHandler.ListTransactions).Methods(http.MethodGet)
	router.HandleFunc("/api/transactions", ledgerHandler.CreateTransaction).Methods(http.MethodPost)
	router.HandleFunc("/api/transactions/{id}", ledgerHandler.UpdateTransaction).Methods(http.MethodPatch)

	router.HandleFunc("/api/ledger", ledgerHandler.GetLedger).Methods(http.MethodGet)
	router.HandleFunc("/api/outstanding", ledgerHandler.GetOutstanding).Methods(http.MethodGet)
	router.HandleFunc("/api/outstanding/items", ledgerHandler.GetOutstandingItems).Methods(http.MethodGet)

	router.HandleFunc("/api/operations", ledgerHandler.ListOperations).Methods(http.MethodGet)
	router.HandleFunc("/api/operations/{op}", ledgerHandler.Dispatch).Methods(http.MethodPost)

	router.HandleFunc("/api/functions", functionsHandler.ListFunctions).Methods(http.MethodGet)
	router.HandleFunc("/api/functions", functionsHandler.Call).Methods(http.MethodPost)

	router.HandleFunc("/api/reconcile", jobsHandler.Reconcile).Methods(http.MethodPost)
	router.HandleFunc("/api/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
	router.HandleFunc("/api/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	router.Use(
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.RequestID(log),
		middleware.CORS,
	)
	return router
}
