package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/duongdatdev/miniisland-2.0-sub000/protocol"
	game "github.com/duongdatdev/miniisland-2.0-sub000/src"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

type fakeSource struct {
	tick atomic.Uint64
	grid *tilemap.Grid
	lb   []protocol.LeaderboardEntry
	none bool
}

func (f *fakeSource) Snapshot() *game.Snapshot {
	if f.none {
		return nil
	}
	return &game.Snapshot{
		Tick:     f.tick.Load(),
		MapID:    "lobby",
		Mode:     "lobby",
		Username: "alice",
		Entities: []game.EntityView{{ID: "m1", Kind: "monster"}, {ID: "m2", Kind: "monster"}},
	}
}

func (f *fakeSource) Leaderboard() []protocol.LeaderboardEntry { return f.lb }
func (f *fakeSource) Grid() *tilemap.Grid                      { return f.grid }

func newSource(t *testing.T) *fakeSource {
	t.Helper()
	g, err := tilemap.ParseLayout("..#..;..#..;.....", 32)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	src := &fakeSource{grid: g, lb: []protocol.LeaderboardEntry{{Username: "bob", Score: 30}}}
	src.tick.Store(7)
	return src
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	src := newSource(t)
	r := NewRouter(src, []string{"*"}, nil)

	rec := get(t, r, "/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != HealthOk || resp.Tick != 7 || resp.Entities["monster"] != 2 {
		t.Errorf("health = %+v", resp)
	}

	src.none = true
	if rec := get(t, r, "/v1/health"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without snapshot = %d", rec.Code)
	}
}

func TestSnapshotJSONAndMsgpack(t *testing.T) {
	r := NewRouter(newSource(t), nil, nil)

	rec := get(t, r, "/v1/snapshot")
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var js game.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&js); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if js.Username != "alice" || len(js.Entities) != 2 {
		t.Errorf("json snapshot = %+v", js)
	}

	for _, rec := range []*httptest.ResponseRecorder{
		get(t, r, "/v1/snapshot?format=msgpack"),
		get(t, r, "/v1/snapshot", "Accept", "application/msgpack"),
	} {
		if ct := rec.Header().Get("Content-Type"); ct != "application/msgpack" {
			t.Errorf("content type = %q", ct)
		}
		var mp game.Snapshot
		if err := msgpack.Unmarshal(rec.Body.Bytes(), &mp); err != nil {
			t.Fatalf("msgpack decode: %v", err)
		}
		if mp.Tick != 7 || mp.Entities[1].ID != "m2" {
			t.Errorf("msgpack snapshot = %+v", mp)
		}
	}
}

func TestLeaderboardAndMap(t *testing.T) {
	r := NewRouter(newSource(t), nil, nil)

	var lb []protocol.LeaderboardEntry
	if err := json.NewDecoder(get(t, r, "/v1/leaderboard").Body).Decode(&lb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lb) != 1 || lb[0].Username != "bob" {
		t.Errorf("leaderboard = %v", lb)
	}

	body, _ := io.ReadAll(get(t, r, "/v1/map").Body)
	if !strings.HasPrefix(string(body), "..#..") {
		t.Errorf("map = %q", body)
	}
}

func TestPathProbe(t *testing.T) {
	r := NewRouter(newSource(t), nil, nil)

	for _, mode := range []string{"astar", "bfs"} {
		rec := get(t, r, "/v1/path?from=0,0&to=4,0&mode="+mode)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", mode, rec.Code)
		}
		var resp PathResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		// Around the wall through the open bottom row.
		if resp.Length != 9 || resp.Mode != mode {
			t.Errorf("%s: path = %+v", mode, resp)
		}
		if resp.Path[0] != [2]int{0, 0} || resp.Path[len(resp.Path)-1] != [2]int{4, 0} {
			t.Errorf("%s: endpoints = %v", mode, resp.Path)
		}
	}

	for _, q := range []string{"from=0&to=4,0", "from=0,0&to=x,1", "from=0,0&to=4,0&mode=dijkstra"} {
		if rec := get(t, r, "/v1/path?"+q); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}

	rec := get(t, r, "/v1/path?from=0,0&to=2,0")
	var resp PathResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Length != 0 || resp.Path == nil {
		t.Errorf("path into a wall = %+v, want an empty list", resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := NewRouter(newSource(t), []string{"http://localhost:5173"}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1/snapshot", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestWatchHealthFollowsTicks(t *testing.T) {
	src := newSource(t)
	_, hs := NewHealthServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: HealthService})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		return resp.Status
	}
	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v", got)
	}

	go WatchHealth(ctx, hs, src, 5*time.Millisecond)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
				src.tick.Add(1)
			}
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for check() != healthpb.HealthCheckResponse_SERVING {
		if time.Now().After(deadline) {
			t.Fatalf("health never became SERVING")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
