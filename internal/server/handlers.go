package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/matcher"
	"github.com/underdogdevs/mentormatch/internal/profile"
	"github.com/underdogdevs/mentormatch/internal/ranking"
	"github.com/underdogdevs/mentormatch/internal/search"
	"github.com/underdogdevs/mentormatch/internal/store"
)

var errBadRequest = errors.New("bad request")

type response struct {
	Result any `json:"result"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// matchView is the wire shape of one match.
type matchView struct {
	ProfileID    string         `json:"profile_id"`
	Score        float64        `json:"score"`
	Introduction string         `json:"introduction,omitempty"`
	Profile      profile.Record `json:"profile"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, matcher.ErrProfileNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrInvalidRole),
		errors.Is(err, profile.ErrInvalidProfile),
		errors.Is(err, ranking.ErrInvalidCount),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.requestLogger(r).Error("request failed", zap.Error(err))
		detail = http.StatusText(status)
	}
	writeError(w, status, detail)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Result: s.version})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Result: "ok"})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.Collections(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Result: infos})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	var filter store.Filter
	if err := decodeOptional(r.Body, &filter); err != nil {
		s.fail(w, r, err)
		return
	}

	records, err := s.store.QueryAll(r.Context(), r.PathValue("first"), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []profile.Record{}
	}
	writeJSON(w, http.StatusOK, response{Result: records})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"), 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	results, err := s.searcher.Search(r.Context(), r.PathValue("first"), query.Get("search"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Result: search.Records(results)})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("n_matches")
	if raw == "" {
		s.fail(w, r, errors.Join(errBadRequest, errors.New("n_matches is required")))
		return
	}
	n, err := intParam(raw, 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	matches, err := s.matcher.Match(r.Context(), r.PathValue("second"), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchView{
			ProfileID:    m.Profile.ID,
			Score:        m.Score,
			Introduction: m.Introduction,
			Profile:      m.Record,
		})
	}
	writeJSON(w, http.StatusOK, response{Result: views})
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(errBadRequest, err)
	}
	return v, nil
}

// decodeOptional decodes a JSON body into dst, treating an empty body as absent.
func decodeOptional(body io.Reader, dst any) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.Join(errBadRequest, err)
}
