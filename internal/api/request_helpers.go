package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/api/shared"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/logger"
)

// getUserIDFromContext returns the authenticated user set by the auth middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", nil)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", nil)
	}
	return id, nil
}

// requireUserID writes a 401 response and returns false when the request is
// not authenticated.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return userID, true
}

// handleUserIDAndPathUUID extracts the user id and the named path UUID. It
// writes the error response and returns false when either is missing.
func handleUserIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}

// Query parameter parsing. Each helper returns a *domain.ValidationError
// naming the parameter when the value is malformed.

func queryInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", nil)
	}
	return n, nil
}

func queryBool(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be true or false", nil)
	}
	return &b, nil
}

// queryTime accepts RFC 3339 timestamps and plain dates (midnight UTC).
func queryTime(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(name, "must be an RFC 3339 timestamp or a YYYY-MM-DD date", nil)
}

// queryList splits repeated and comma-separated values.
func queryList(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// pageParams reads limit and offset.
func pageParams(q url.Values) (limit, offset int, err error) {
	if limit, err = queryInt(q, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// parseTaskFilter builds a listing filter from query parameters.
func parseTaskFilter(q url.Values) (domain.TaskFilter, error) {
	var f domain.TaskFilter
	var err error

	for _, raw := range queryList(q, "status") {
		s, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return f, err
		}
		f.Statuses = append(f.Statuses, s)
	}
	for _, raw := range queryList(q, "priority") {
		p, err := domain.ParseTaskPriority(raw)
		if err != nil {
			return f, err
		}
		f.Priorities = append(f.Priorities, p)
	}

	f.Category = strings.TrimSpace(q.Get("category"))
	f.LabelName = strings.TrimSpace(q.Get("label_name"))
	f.Search = strings.TrimSpace(q.Get("search"))
	f.OrderBy = strings.TrimSpace(q.Get("ordering"))

	timeParams := []struct {
		name string
		dst  **time.Time
	}{
		{"due_date_after", &f.DueAfter},
		{"due_date_before", &f.DueBefore},
		{"created_after", &f.CreatedAfter},
		{"created_before", &f.CreatedBefore},
	}
	for _, p := range timeParams {
		if *p.dst, err = queryTime(q, p.name); err != nil {
			return f, err
		}
	}

	boolParams := []struct {
		name string
		dst  **bool
	}{
		{"has_labels", &f.HasLabels},
		{"has_comments", &f.HasComments},
		{"has_due_date", &f.HasDueDate},
		{"is_overdue", &f.IsOverdue},
	}
	for _, p := range boolParams {
		if *p.dst, err = queryBool(q, p.name); err != nil {
			return f, err
		}
	}

	if f.Limit, f.Offset, err = pageParams(q); err != nil {
		return f, err
	}
	return f, nil
}
