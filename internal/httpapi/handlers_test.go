package httpapi

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/avdanilov/dogwalk-server/internal/app"
	"github.com/avdanilov/dogwalk-server/internal/geom"
	"github.com/avdanilov/dogwalk-server/internal/model"
	"github.com/avdanilov/dogwalk-server/internal/retirement"
	"github.com/avdanilov/dogwalk-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	game := model.NewGame(func() *rand.Rand { return rand.New(rand.NewSource(1)) })
	m := model.NewMap("map1", "Test Map", 1, 3)
	m.AddRoad(model.NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))
	m.LootTypes = []model.LootType{{Value: 10}}
	m.BuildRoadIndexes()
	if err := game.AddMap(m); err != nil {
		t.Fatalf("AddMap: %v", err)
	}
	game.RetirementMs = 60000

	application := app.NewApplication(game, app.NewPlayers(), retirement.NewMemoryStore())
	return New(application, t.TempDir())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func TestHandleMaps_ListsRegisteredMaps(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/maps", nil, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out []mapSummaryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].ID != "map1" {
		t.Errorf("expected [map1], got %+v", out)
	}
}

func TestHandleMapByID_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/maps/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleJoin_RequiresJSONContentType(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/join",
		joinRequest{UserName: "rex", MapID: "map1"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a JSON content type, got %d", rec.Code)
	}
}

func TestHandleJoin_Success(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/join",
		joinRequest{UserName: "rex", MapID: "map1"}, jsonHeaders())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out joinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.AuthToken) != 32 {
		t.Errorf("expected a 32-char token, got %q", out.AuthToken)
	}
}

func TestHandleJoin_EmptyNameRejected(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/join",
		joinRequest{UserName: "", MapID: "map1"}, jsonHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an empty username, got %d", rec.Code)
	}
}

func TestHandleJoin_UnknownMapRejected(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/join",
		joinRequest{UserName: "rex", MapID: "nope"}, jsonHeaders())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown map, got %d", rec.Code)
	}
}

func TestHandleJoin_WrongMethodSetsAllowHeader(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/game/join", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Errorf("expected Allow: POST, got %q", rec.Header().Get("Allow"))
	}
}

func joinAndGetToken(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/join",
		joinRequest{UserName: "rex", MapID: "map1"}, jsonHeaders())
	var out joinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	return out.AuthToken
}

func TestHandleState_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/game/state", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestHandleState_ReturnsJoinedDog(t *testing.T) {
	s := newTestServer(t)
	token := joinAndGetToken(t, s)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/game/state", nil,
		map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Players map[string]dogStateDTO `json:"players"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Players) != 1 {
		t.Errorf("expected 1 dog in state, got %d", len(out.Players))
	}
}

func TestHandleAction_InvalidMoveRejected(t *testing.T) {
	s := newTestServer(t)
	token := joinAndGetToken(t, s)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/player/action",
		actionRequest{Move: "sideways"},
		map[string]string{"Authorization": "Bearer " + token, "Content-Type": "application/json"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid move, got %d", rec.Code)
	}
}

func TestHandleAction_ValidMoveAccepted(t *testing.T) {
	s := newTestServer(t)
	token := joinAndGetToken(t, s)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/player/action",
		actionRequest{Move: string(model.MoveRight)},
		map[string]string{"Authorization": "Bearer " + token, "Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleTick_RejectsWhenAutoTickEnabled(t *testing.T) {
	s := newTestServer(t)
	s.App.SetAutoTickEnabled(true)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/tick",
		tickRequest{TimeDelta: 100}, jsonHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 when auto-tick is enabled, got %d", rec.Code)
	}
}

func TestHandleTick_AdvancesSimulation(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/game/tick",
		tickRequest{TimeDelta: 100}, jsonHeaders())
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRecords_DefaultsAndClamps(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/game/records?maxItems=999", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for maxItems over 100, got %d", rec.Code)
	}
}

func TestHandleRecords_EmptyLeaderboard(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/game/records", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected an empty leaderboard, got %+v", out)
	}
}

func TestWrap_SetsCORSHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/maps", nil, nil)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS header on every response, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("expected no-cache on API responses, got %q", rec.Header().Get("Cache-Control"))
	}
}
