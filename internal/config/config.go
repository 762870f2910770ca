// Package config loads the JSON map/game configuration file. Its resulting
// data model (a populated *model.Game) is all that matters to the rest of
// the server; the loader itself is a one-shot, one-file reader, not a
// general settings layer, so it stays on encoding/json rather than reaching
// for a config library that would have nothing left to layer.
package config

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/avdanilov/dogwalk-server/internal/geom"
	"github.com/avdanilov/dogwalk-server/internal/lootgen"
	"github.com/avdanilov/dogwalk-server/internal/model"
)

// Error is a ConfigError (§7): the config file is missing or malformed.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("config %q: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

type roadJSON struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeJSON struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type mapJSON struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Roads       []roadJSON       `json:"roads"`
	Buildings   []buildingJSON   `json:"buildings"`
	Offices     []officeJSON     `json:"offices"`
	LootTypes   []model.LootType `json:"lootTypes"`
	DogSpeed    *float64         `json:"dogSpeed"`
	BagCapacity *int             `json:"bagCapacity"`
}

type lootGeneratorJSON struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

type rootJSON struct {
	Maps                []mapJSON         `json:"maps"`
	DefaultDogSpeed     float64           `json:"defaultDogSpeed"`
	DefaultBagCapacity  int               `json:"defaultBagCapacity"`
	LootGeneratorConfig lootGeneratorJSON `json:"lootGeneratorConfig"`
	DogRetirementTime   float64           `json:"dogRetirementTime"`
}

// LoadFile reads path and builds a fully-populated *model.Game: every map
// registered, road indexes built, defaults applied to maps that don't
// override them. rngFactory mints the per-session RNG the game root hands
// to each session it lazily creates.
func LoadFile(path string, rngFactory func() *rand.Rand) (*model.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var root rootJSON
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if len(root.Maps) == 0 {
		return nil, &Error{Path: path, Err: fmt.Errorf("no maps declared")}
	}

	game := model.NewGame(rngFactory)
	game.DefaultSpeed = root.DefaultDogSpeed
	game.DefaultBagCapacity = root.DefaultBagCapacity
	game.LootGeneratorCfg = lootgen.Config{
		Period:      root.LootGeneratorConfig.Period,
		Probability: root.LootGeneratorConfig.Probability,
	}
	game.RetirementMs = int64(root.DogRetirementTime * 1000)

	for _, mj := range root.Maps {
		dogSpeed := game.DefaultSpeed
		if mj.DogSpeed != nil {
			dogSpeed = *mj.DogSpeed
		}
		bagCapacity := game.DefaultBagCapacity
		if mj.BagCapacity != nil {
			bagCapacity = *mj.BagCapacity
		}

		m := model.NewMap(mj.ID, mj.Name, dogSpeed, bagCapacity)
		m.LootTypes = mj.LootTypes

		for _, rj := range mj.Roads {
			start := geom.Point{X: rj.X0, Y: rj.Y0}
			switch {
			case rj.X1 != nil:
				m.AddRoad(model.NewHorizontalRoad(start, *rj.X1))
			case rj.Y1 != nil:
				m.AddRoad(model.NewVerticalRoad(start, *rj.Y1))
			default:
				continue // malformed road entry, skip like the original loader does
			}
		}

		for _, bj := range mj.Buildings {
			m.AddBuilding(model.Building{Position: geom.Point{X: bj.X, Y: bj.Y}, Width: bj.W, Height: bj.H})
		}

		for _, oj := range mj.Offices {
			office := model.Office{
				ID:       oj.ID,
				Position: geom.Point{X: oj.X, Y: oj.Y},
				OffsetX:  oj.OffsetX,
				OffsetY:  oj.OffsetY,
			}
			if err := m.AddOffice(office); err != nil {
				return nil, &Error{Path: path, Err: err}
			}
		}

		m.BuildRoadIndexes()

		if err := game.AddMap(m); err != nil {
			return nil, &Error{Path: path, Err: err}
		}
	}

	return game, nil
}
