package gqlserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/attic-labs/graphql"
	"github.com/attic-labs/graphql/gqlerrors"
	"github.com/rs/zerolog"
)

type request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Handler executes GraphQL requests against a schema.
type Handler struct {
	Schema graphql.Schema
	Log    zerolog.Logger
}

func NewHandler(b Backend, log zerolog.Logger) (*Handler, error) {
	schema, err := NewSchema(b)
	if err != nil {
		return nil, err
	}
	return &Handler{Schema: schema, Log: log}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req request
	switch r.Method {
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	res := graphql.Do(graphql.Params{
		Schema:         h.Schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	ev := h.Log.Info()
	if len(res.Errors) > 0 {
		ev = h.Log.Warn().Str("error", res.Errors[0].Message).Int("errors", len(res.Errors))
	}
	ev.Str("op", req.OperationName).Dur("took", time.Since(start)).Msg("graphql")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(graphql.Result{
		Errors: []gqlerrors.FormattedError{{Message: msg}},
	})
}

// Mux mounts h at /graphql.
func Mux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	return mux
}
