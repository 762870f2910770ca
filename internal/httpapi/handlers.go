package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/avdanilov/dogwalk-server/internal/app"
	"github.com/avdanilov/dogwalk-server/internal/model"
)

type roadDTO struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeDTO struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type mapDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Roads       []roadDTO        `json:"roads"`
	Buildings   []buildingDTO    `json:"buildings"`
	Offices     []officeDTO      `json:"offices"`
	LootTypes   []model.LootType `json:"lootTypes"`
	DogSpeed    float64          `json:"dogSpeed"`
	BagCapacity int              `json:"bagCapacity"`
}

type mapSummaryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toMapDTO(m *model.Map) mapDTO {
	roads := make([]roadDTO, 0, len(m.Roads))
	for _, r := range m.Roads {
		dto := roadDTO{X0: r.Start.X, Y0: r.Start.Y}
		if r.IsHorizontal() {
			x1 := r.End.X
			dto.X1 = &x1
		} else {
			y1 := r.End.Y
			dto.Y1 = &y1
		}
		roads = append(roads, dto)
	}

	buildings := make([]buildingDTO, 0, len(m.Buildings))
	for _, b := range m.Buildings {
		buildings = append(buildings, buildingDTO{X: b.Position.X, Y: b.Position.Y, W: b.Width, H: b.Height})
	}

	offices := make([]officeDTO, 0, len(m.Offices))
	for _, o := range m.Offices {
		offices = append(offices, officeDTO{ID: o.ID, X: o.Position.X, Y: o.Position.Y, OffsetX: o.OffsetX, OffsetY: o.OffsetY})
	}

	return mapDTO{
		ID:          m.ID,
		Name:        m.Name,
		Roads:       roads,
		Buildings:   buildings,
		Offices:     offices,
		LootTypes:   m.LootTypes,
		DogSpeed:    m.DogSpeed,
		BagCapacity: m.BagCapacity,
	}
}

func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	maps := s.App.ListMaps()
	out := make([]mapSummaryDTO, 0, len(maps))
	for _, m := range maps {
		out = append(out, mapSummaryDTO{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMapByID(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/maps/")
	if id == "" {
		writeBadRequest(w, "missing map id")
		return
	}
	m, ok := s.App.FindMap(id)
	if !ok {
		writeMapNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, toMapDTO(m))
}

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

type joinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if !requireJSONBody(w, r) {
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidArgument(w, "malformed request body")
		return
	}
	if req.MapID == "" {
		writeInvalidArgument(w, "mapId is required")
		return
	}

	result, err := s.App.JoinGame(req.MapID, req.UserName)
	if err != nil {
		var notFound *model.ErrMapNotFound
		switch {
		case errors.As(err, &notFound):
			writeMapNotFound(w, req.MapID)
		case errors.Is(err, app.ErrInvalidArgument):
			writeInvalidArgument(w, "userName is required")
		default:
			writeInvalidArgument(w, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, joinResponse{AuthToken: string(result.Token), PlayerID: result.PlayerID})
}

type playerSummaryDTO struct {
	Name string `json:"name"`
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request, player *app.Player) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	var out map[string]playerSummaryDTO
	s.App.Locked(func() {
		dogs := player.Session.Dogs()
		out = make(map[string]playerSummaryDTO, len(dogs))
		for id, dog := range dogs {
			out[strconv.FormatUint(id, 10)] = playerSummaryDTO{Name: dog.Name}
		}
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"players": out})
}

type dogStateDTO struct {
	Pos   [2]float64 `json:"pos"`
	Speed [2]float64 `json:"speed"`
	Dir   string     `json:"dir"`
	Bag   []bagItemDTO `json:"bag"`
	Score int        `json:"score"`
}

type bagItemDTO struct {
	ID   uint64 `json:"id"`
	Type int    `json:"type"`
}

type lostObjectDTO struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, player *app.Player) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	players := make(map[string]dogStateDTO)
	lostObjects := make(map[string]lostObjectDTO)
	s.App.Locked(func() {
		dogs := player.Session.Dogs()
		for id, dog := range dogs {
			bag := make([]bagItemDTO, 0, dog.Bag.Size())
			for _, item := range dog.Bag.Items() {
				bag = append(bag, bagItemDTO{ID: item.ID, Type: item.TypeIndex})
			}
			players[strconv.FormatUint(id, 10)] = dogStateDTO{
				Pos:   [2]float64{dog.Position.X, dog.Position.Y},
				Speed: [2]float64{dog.Speed.X, dog.Speed.Y},
				Dir:   string(dog.Direction),
				Bag:   bag,
				Score: dog.Score,
			}
		}

		loots := player.Session.Loots()
		for id, loot := range loots {
			lostObjects[strconv.FormatUint(id, 10)] = lostObjectDTO{
				Type: loot.TypeIndex,
				Pos:  [2]float64{loot.Position.X, loot.Position.Y},
			}
		}
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"players":     players,
		"lostObjects": lostObjects,
	})
}

type actionRequest struct {
	Move string `json:"move"`
}

func (req actionRequest) valid() bool {
	switch model.Move(req.Move) {
	case model.MoveUp, model.MoveDown, model.MoveLeft, model.MoveRight, model.MoveStop:
		return true
	default:
		return false
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, player *app.Player) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if !requireJSONBody(w, r) {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		writeInvalidArgument(w, "move must be one of U, D, L, R or empty")
		return
	}

	s.App.Locked(func() {
		player.Dog.SetMove(model.Move(req.Move))
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

type tickRequest struct {
	TimeDelta int64 `json:"timeDelta"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if s.App.AutoTickEnabled() {
		writeInvalidArgument(w, "auto-tick is enabled; manual /game/tick is disabled")
		return
	}
	if !requireJSONBody(w, r) {
		return
	}

	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeDelta <= 0 {
		writeInvalidArgument(w, "timeDelta must be a positive integer")
		return
	}

	s.App.Tick(r.Context(), req.TimeDelta)
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

type recordDTO struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	start := 0
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeInvalidArgument(w, "start must be a non-negative integer")
			return
		}
		start = parsed
	}

	maxItems := 100
	if v := r.URL.Query().Get("maxItems"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || parsed > 100 {
			writeInvalidArgument(w, "maxItems must be between 0 and 100")
			return
		}
		maxItems = parsed
	}

	rows, err := s.App.Records(r.Context(), start, maxItems)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "saveIoError", err.Error())
		return
	}

	out := make([]recordDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordDTO{Name: row.Name, Score: row.Score, PlayTime: float64(row.PlayTimeMs) / 1000.0})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "github.com/avdanilov/dogwalk-server",
		"version": "dev",
	})
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	allow := strings.Join(methods, ", ")
	writeInvalidMethod(w, allow)
	return false
}

func requireJSONBody(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		writeInvalidArgument(w, "Content-Type must be application/json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
