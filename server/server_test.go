package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/sockenstudie/helpers"
	"github.com/spektr-org/sockenstudie/schema"
	"github.com/spektr-org/sockenstudie/votes"
)

const testSchemaYAML = `
name: Test
columns: {group: grp, name: name}
allTags: [all, alle]
sections:
  - id: teilA
    kind: scale
    keys: [a1]
  - id: teilB
    kind: frequency
    keys: [b1]
  - id: zeichnungen
    kind: images
    fileKey: file
`

const testCSV = "grp;name;a1;b1;file\n" +
	"A;Ada;4;0;ada.png\n" +
	"B;Ben;2;1;ben.png\n" +
	"a;Cem;3;0;\n"

type fixture struct {
	srv      *Server
	http     *httptest.Server
	register *votes.Memory
	registry *prometheus.Registry
}

func newFixture(t *testing.T, loader Loader) *fixture {
	t.Helper()
	cfg, err := schema.Parse([]byte(testSchemaYAML), schema.FormatYAML)
	require.NoError(t, err)

	if loader == nil {
		loader = func(context.Context) (*helpers.Dataset, error) {
			return helpers.ParseCSV([]byte(testCSV))
		}
	}
	reg := votes.NewMemory(nil)
	registry := prometheus.NewRegistry()
	srv, err := New(Options{
		Schema:         cfg,
		Loader:         loader,
		Votes:          reg,
		AllowedOrigins: []string{"*"},
		Registry:       registry,
	})
	require.NoError(t, err)
	_ = srv.Reload(context.Background())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{srv: srv, http: ts, register: reg, registry: registry}
}

func (f *fixture) do(t *testing.T, method, path, voter string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.http.URL+path, nil)
	require.NoError(t, err)
	if voter != "" {
		req.Header.Set(VoterHeader, voter)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestNewRequiresSchema(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h := decode[healthResponse](t, body)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 3, h.Rows)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestSnapshotAllAndFiltered(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		query       string
		group       string
		respondents int
		median      float64
	}{
		{query: "", group: "all", respondents: 3, median: 3},
		{query: "?group=ALLE", group: "ALLE", respondents: 3, median: 3},
		{query: "?group=a", group: "a", respondents: 2, median: 3.5},
		{query: "?group=B", group: "B", respondents: 1, median: 2},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			resp, body := f.do(t, http.MethodGet, "/api/snapshot"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			got := decode[snapshotResponse](t, body)
			assert.Equal(t, tt.group, got.Group)
			assert.Equal(t, tt.respondents, got.Snapshot.RespondentCount)
			require.Len(t, got.Snapshot.Scales["teilA"], 1)
			require.NotNil(t, got.Snapshot.Scales["teilA"][0].Median)
			assert.Equal(t, tt.median, *got.Snapshot.Scales["teilA"][0].Median)
		})
	}
}

func TestSnapshotUnknownGroupIsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	_, body := f.do(t, http.MethodGet, "/api/snapshot?group=lehrer", "")
	got := decode[snapshotResponse](t, body)
	assert.Zero(t, got.Snapshot.RespondentCount)
	require.Len(t, got.Snapshot.Scales["teilA"], 1)
	assert.Nil(t, got.Snapshot.Scales["teilA"][0].Median)
	assert.Empty(t, got.Snapshot.Frequencies["teilB"][0])
}

func TestSnapshotGroupTooLong(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/api/snapshot?group="+strings.Repeat("x", 65), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := decode[APIError](t, body)
	assert.Equal(t, "INVALID_PARAMETER", apiErr.ErrorCode)
}

func TestLoadFailureServesEmptySnapshot(t *testing.T) {
	f := newFixture(t, func(context.Context) (*helpers.Dataset, error) {
		return nil, errors.New("bucket unreachable")
	})

	_, body := f.do(t, http.MethodGet, "/health", "")
	h := decode[healthResponse](t, body)
	assert.Equal(t, "degraded", h.Status)
	assert.Contains(t, h.Error, "bucket unreachable")

	resp, body := f.do(t, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[snapshotResponse](t, body)
	assert.Zero(t, got.Snapshot.RespondentCount)
	assert.Contains(t, got.Snapshot.Scales, "teilA")
	assert.Contains(t, got.Snapshot.Images, "zeichnungen")

	resp, body = f.do(t, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "LOAD_FAILED", decode[APIError](t, body).ErrorCode)
}

func TestReloadSwapsDataset(t *testing.T) {
	data := testCSV
	f := newFixture(t, func(context.Context) (*helpers.Dataset, error) {
		return helpers.ParseCSV([]byte(data))
	})

	data = "grp;a1\nA;5\n"
	resp, body := f.do(t, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[reloadResponse](t, body)
	assert.Equal(t, 1, got.Rows)
	assert.NotEmpty(t, got.Missing, "b1 and file are gone")

	_, body = f.do(t, http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, 1, decode[snapshotResponse](t, body).Snapshot.RespondentCount)
}

func TestGroupsAndSchema(t *testing.T) {
	f := newFixture(t, nil)

	_, body := f.do(t, http.MethodGet, "/api/groups", "")
	groups := decode[map[string]any](t, body)
	assert.Equal(t, "all", groups["all"])
	assert.Equal(t, []any{"a", "b"}, groups["groups"])

	_, body = f.do(t, http.MethodGet, "/api/schema", "")
	cfg := decode[schema.Config](t, body)
	assert.Equal(t, "Test", cfg.Name)
	assert.Len(t, cfg.Sections, 3)
}

func TestChartsAndSummary(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodGet, "/api/charts?group=a", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	charts := decode[chartsResponse](t, body)
	require.Len(t, charts.Charts.Scales["teilA"], 1)
	require.Len(t, charts.Charts.Frequencies["teilB"], 1)

	_, body = f.do(t, http.MethodGet, "/api/summary", "")
	summary := decode[map[string]any](t, body)
	lines, ok := summary["lines"].([]any)
	require.True(t, ok)
	assert.Equal(t, "Respondents: 3", lines[0])
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodGet, "/api/export?group=B", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "sockenstudie-b.csv")
	assert.Contains(t, string(body), "a1")

	resp, _ = f.do(t, http.MethodGet, "/api/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	resp, _ = f.do(t, http.MethodGet, "/api/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVotes(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodPost, "/api/votes/ada_png", "v1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[votes.Result](t, body)
	assert.True(t, res.Accepted)
	assert.Equal(t, 1, res.Counts["ada_png"])

	resp, body = f.do(t, http.MethodPost, "/api/votes/ben_png", "v1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, votes.ReasonAlreadyVoted, decode[votes.Result](t, body).Reason)

	resp, _ = f.do(t, http.MethodPost, "/api/votes/nobody_png", "v1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = f.do(t, http.MethodGet, "/api/votes", "v1")
	state := decode[votesResponse](t, body)
	assert.Equal(t, "ada_png", state.Voted)
	assert.Equal(t, 1, state.Counts["ada_png"])

	_, body = f.do(t, http.MethodGet, "/api/votes/podium", "")
	podium := decode[map[string][]votes.Place](t, body)
	require.Len(t, podium["podium"], 2, "zero-vote drawings fill the remaining places")
	assert.Equal(t, "Ada", podium["podium"][0].Image.Respondent)
	assert.Equal(t, 1, podium["podium"][0].Votes)

	resp, body = f.do(t, http.MethodDelete, "/api/votes/ada_png", "v1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[votes.Result](t, body).Counts["ada_png"])

	resp, body = f.do(t, http.MethodDelete, "/api/votes/ada_png", "v1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, votes.ReasonNoVote, decode[votes.Result](t, body).Reason)

	_, body = f.do(t, http.MethodGet, "/api/votes/podium", "")
	assert.Empty(t, decode[map[string][]votes.Place](t, body)["podium"])

	resp, _ = f.do(t, http.MethodGet, "/api/votes/podium?n=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoterCookieMinted(t *testing.T) {
	f := newFixture(t, nil)
	resp, _ := f.do(t, http.MethodGet, "/api/votes", "")

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == VoterCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Len(t, cookie.Value, 36)
	assert.True(t, cookie.HttpOnly)
}

func TestVotesDisabled(t *testing.T) {
	cfg, err := schema.Parse([]byte(testSchemaYAML), schema.FormatYAML)
	require.NoError(t, err)
	srv, err := New(Options{Schema: cfg})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/votes", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[APIError](t, rec.Body.Bytes()).ErrorCode)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodGet, "/api/snapshot?group=a", "")
	f.do(t, http.MethodGet, "/api/snapshot?group=zzz", "")
	f.do(t, http.MethodPost, "/api/votes/ada_png", "v1")

	_, body := f.do(t, http.MethodGet, "/metrics", "")
	text := string(body)
	assert.Contains(t, text, `sockenstudie_aggregations_total{group="a"} 1`)
	assert.Contains(t, text, `sockenstudie_aggregations_total{group="other"} 1`)
	assert.Contains(t, text, "sockenstudie_rows_loaded 3")
	assert.Contains(t, text, `sockenstudie_votes_total{action="cast",result="accepted"} 1`)
	assert.Contains(t, text, "sockenstudie_aggregation_duration_seconds_count 2")
}

func TestVoteStream(t *testing.T) {
	f := newFixture(t, nil)

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/api/votes/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() StreamMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := read()
	assert.Equal(t, "counts", first.Type)
	assert.Empty(t, first.Counts)

	_, err = f.register.CastVote(context.Background(), "v1", "ben_png")
	require.NoError(t, err)

	next := read()
	assert.Equal(t, 1, next.Counts["ben_png"])
}

func TestRecovererRendersAPIError(t *testing.T) {
	h := Recoverer(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode[APIError](t, rec.Body.Bytes()).ErrorCode)
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}
