package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/spektr-org/sockenstudie/engine"
	"github.com/spektr-org/sockenstudie/helpers"
	"github.com/spektr-org/sockenstudie/schema"
	"github.com/spektr-org/sockenstudie/votes"
)

// Voter identity: an explicit header wins over the cookie.
const (
	VoterHeader = "X-Voter-ID"
	VoterCookie = "voter"
)

const maxGroupLen = 64

// ── Read endpoints ──────────────────────────────────────────────────────────

type healthResponse struct {
	Status   string    `json:"status"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped"`
	LoadedAt time.Time `json:"loadedAt"`
	Error    string    `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds, loadErr := s.state()
	resp := healthResponse{
		Status:   "ok",
		Rows:     len(ds.data.Rows),
		Skipped:  ds.data.Skipped,
		LoadedAt: ds.loadedAt,
	}
	if loadErr != nil {
		resp.Status = "degraded"
		resp.Error = loadErr.Error()
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.schema)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	ds, _ := s.state()
	groups := ds.groups
	if groups == nil {
		groups = []string{}
	}
	render.JSON(w, r, map[string]any{
		"all":    s.allTag(),
		"groups": groups,
	})
}

type snapshotResponse struct {
	Group    string          `json:"group"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	group, err := s.groupParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, snapshotResponse{Group: group, Snapshot: s.snapshot(group)})
}

type chartsResponse struct {
	Group  string        `json:"group"`
	Charts engine.Charts `json:"charts"`
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	group, err := s.groupParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, chartsResponse{Group: group, Charts: s.engine.Charts(s.snapshot(group))})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	group, err := s.groupParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"group": group,
		"lines": s.engine.Summary(s.snapshot(group)),
	})
}

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	group, err := s.groupParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	tables := s.engine.Tables(s.snapshot(group))
	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = helpers.WriteTablesCSV(&buf, tables, ';')
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = helpers.WriteTablesXLSX(&buf, tables)
	default:
		s.renderError(w, r, errInvalidParameter.withDetails("format must be csv or xlsx"))
		return
	}
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	name := filenameUnsafe.ReplaceAllString(strings.ToLower(group), "_")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sockenstudie-%s.%s"`, name, format))
	_, _ = w.Write(buf.Bytes())
}

type reloadResponse struct {
	Rows    int                    `json:"rows"`
	Skipped int                    `json:"skipped"`
	Missing []schema.MissingColumn `json:"missing,omitempty"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		s.renderError(w, r, errLoadFailed.withDetails(err.Error()))
		return
	}
	ds, _ := s.state()
	render.JSON(w, r, reloadResponse{
		Rows:    len(ds.data.Rows),
		Skipped: ds.data.Skipped,
		Missing: ds.missing,
	})
}

// groupParam reads ?group=, defaulting to the survey's first "all" tag.
func (s *Server) groupParam(r *http.Request) (string, error) {
	group := strings.TrimSpace(r.URL.Query().Get("group"))
	if group == "" {
		return s.allTag(), nil
	}
	if len(group) > maxGroupLen {
		return "", errInvalidParameter.withDetails("group is too long")
	}
	return group, nil
}

func (s *Server) allTag() string {
	if tags := s.schema.AllTags; len(tags) > 0 {
		return tags[0]
	}
	return engine.DefaultAllTag
}

// ── Votes ───────────────────────────────────────────────────────────────────

// voterID resolves the caller's identity, minting a cookie on first contact.
func voterID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(VoterHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(VoterCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VoterCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type votesResponse struct {
	Counts votes.Counts `json:"counts"`
	Voted  string       `json:"voted,omitempty"`
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	voter := voterID(w, r)
	counts, err := s.votes.Counts(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	voted, err := s.votes.VoteOf(r.Context(), voter)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, votesResponse{Counts: counts, Voted: voted})
}

func (s *Server) handlePodium(w http.ResponseWriter, r *http.Request) {
	n := s.podiumSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 50 {
			s.renderError(w, r, errInvalidParameter.withDetails("n must be between 1 and 50"))
			return
		}
		n = v
	}
	counts, err := s.votes.Counts(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	ds, _ := s.state()
	places := votes.Podium(ds.images, counts, n)
	if places == nil {
		places = []votes.Place{}
	}
	render.JSON(w, r, map[string]any{"podium": places})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	s.vote(w, r, "cast", s.votes.CastVote)
}

func (s *Server) handleRetractVote(w http.ResponseWriter, r *http.Request) {
	s.vote(w, r, "retract", s.votes.RetractVote)
}

type voteFunc func(ctx context.Context, voter, subject string) (votes.Result, error)

func (s *Server) vote(w http.ResponseWriter, r *http.Request, action string, fn voteFunc) {
	subject := chi.URLParam(r, "subject")
	ds, _ := s.state()
	if !ds.subjects[subject] {
		s.renderError(w, r, errUnknownSubject.withDetails(subject))
		return
	}

	res, err := fn(r.Context(), voterID(w, r), subject)
	if err != nil {
		s.metrics.Votes.WithLabelValues(action, "error").Inc()
		s.renderError(w, r, err)
		return
	}
	s.metrics.Votes.WithLabelValues(action, voteResult(res.Accepted, res.Reason)).Inc()

	if !res.Accepted {
		render.Status(r, http.StatusConflict)
	}
	render.JSON(w, r, res)
}
