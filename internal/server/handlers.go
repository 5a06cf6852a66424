package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rickgao/price-feed/internal/failure"
	"github.com/rickgao/price-feed/internal/model"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(HealthBody))
}

// handleMarket serves one live provider page verbatim, nulls included.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		s.fail(w, r, failure.Newf(failure.Validation, "list market", "page must be an integer"))
		return
	}

	entries, err := s.fetcher.FetchPage(r.Context(), q.Get("currency"), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = model.Page{}
	}

	if s.cfg.PersistLivePages && s.store != nil && !entries.Empty() {
		if _, err := s.store.StorePage(context.WithoutCancel(r.Context()), entries); err != nil {
			s.logger.Warn("persist live page failed",
				"request_id", RequestID(r.Context()),
				"page", page,
				"error", err,
			)
		}
	}

	writeJSON(w, http.StatusOK, entries)
}

// handleLatest serves the newest stored row for a symbol.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup.LatestBySymbol(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// fail renders err with its kind's status and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		fe = failure.New(failure.Store, "", err)
	}

	status := fe.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, fe.Public())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
