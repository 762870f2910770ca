// Package snapshot serializes and restores the full live game state to a
// single opaque binary file, crash-consistently. The framing (a fixed magic
// header + version, then fixed-width records with length-prefixed strings)
// follows the same shape as the teacher's replay codec
// (internal/infrastructure/storage/writer.go and reader.go): a header
// written with one binary.Write, followed by manual length-prefixed writes
// for the variable-length pieces.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avdanilov/dogwalk-server/internal/app"
	"github.com/avdanilov/dogwalk-server/internal/geom"
	"github.com/avdanilov/dogwalk-server/internal/model"
)

const (
	magicHeader = "DWSS"
	version1    = uint32(1)
)

// IoError wraps any failure reading or writing a snapshot (§7 SaveIoError).
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("snapshot %q: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// fileHeader is written whole via binary.Write - no slices or strings, only
// fixed-size fields, exactly the constraint the teacher's ReplayFileHeader
// is built around.
type fileHeader struct {
	Magic             [4]byte
	Version           uint32
	NextPlayerCounter uint32
	AutoTickEnabled   uint8
	RandomizeSpawn    uint8
	SessionCount      uint32
	PlayerCount       uint32
}

// sessionHeader precedes each session's loot records.
type sessionHeader struct {
	NextDogID  uint64
	NextLootID uint64
	LootCount  uint32
}

// dogHeader precedes a dog's bag records and its name.
type dogHeader struct {
	ID             uint64
	PosX, PosY     float64
	SpeedX, SpeedY float64
	Direction      uint8
	DefaultSpeed   float64
	BagCapacity    uint32
	BagCount       uint32
	Score          int32
	InGameMs       int64
	IdleMs         int64
}

var directionCode = map[model.Direction]uint8{
	model.DirNorth: 0,
	model.DirSouth: 1,
	model.DirWest:  2,
	model.DirEast:  3,
	model.DirNone:  4,
}

var directionByCode = map[uint8]model.Direction{
	0: model.DirNorth,
	1: model.DirSouth,
	2: model.DirWest,
	3: model.DirEast,
	4: model.DirNone,
}

// State is everything a snapshot round-trips: every live player across
// every session (keyed by its session, with that session's loots and id
// counters embedded once rather than duplicated per player), the token
// registry, and the two operator-controlled flags that survive a restart.
type State struct {
	Game            *model.Game
	Players         *app.Players
	AutoTickEnabled bool
	RandomizeSpawn  bool
}

// Save encodes state and atomically replaces path: the encoded bytes go to
// a sibling temp file first, which is then renamed onto path, so a crash
// mid-write never corrupts the previous snapshot.
func Save(path string, state State) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return &IoError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if err := encode(tmp, state); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &IoError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &IoError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &IoError{Path: path, Err: err}
	}
	return nil
}

// Load restores state from path into game/players, which must already have
// every map registered (maps are config-loaded data, not part of the
// snapshot). If path does not exist, Load is a no-op and returns
// found=false with a nil error. Restored flags are returned since the caller (not this package)
// owns the running auto-tick/randomize-spawn state.
func Load(path string, game *model.Game, players *app.Players) (found bool, autoTick bool, randomizeSpawn bool, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return false, false, false, nil
		}
		return false, false, false, &IoError{Path: path, Err: openErr}
	}
	defer f.Close()

	autoTick, randomizeSpawn, decodeErr := decode(f, game, players)
	if decodeErr != nil {
		return false, false, false, &IoError{Path: path, Err: decodeErr}
	}
	return true, autoTick, randomizeSpawn, nil
}

func encode(w io.Writer, state State) error {
	sessions := state.Game.Sessions()
	sessionIndex := make(map[*model.Session]uint32, len(sessions))
	orderedSessions := make([]*model.Session, 0, len(sessions))
	for _, s := range sessions {
		sessionIndex[s] = uint32(len(orderedSessions))
		orderedSessions = append(orderedSessions, s)
	}

	tokens := state.Players.Tokens()

	hdr := fileHeader{
		Version:           version1,
		NextPlayerCounter: state.Players.NextPlayerCounter,
		SessionCount:      uint32(len(orderedSessions)),
		PlayerCount:       uint32(len(tokens)),
	}
	copy(hdr.Magic[:], magicHeader)
	if state.AutoTickEnabled {
		hdr.AutoTickEnabled = 1
	}
	if state.RandomizeSpawn {
		hdr.RandomizeSpawn = 1
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range orderedSessions {
		if err := writeString(w, s.ID); err != nil {
			return err
		}
		if err := writeString(w, s.Map.ID); err != nil {
			return err
		}

		loots := s.Loots()
		sh := sessionHeader{NextDogID: s.NextDogID(), NextLootID: s.NextLootID(), LootCount: uint32(len(loots))}
		if err := binary.Write(w, binary.LittleEndian, &sh); err != nil {
			return fmt.Errorf("write session header: %w", err)
		}
		for _, loot := range loots {
			if err := binary.Write(w, binary.LittleEndian, loot.ID); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, int32(loot.TypeIndex)); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, loot.Position.X); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, loot.Position.Y); err != nil {
				return err
			}
		}
	}

	for token, player := range tokens {
		if err := writeToken(w, token); err != nil {
			return err
		}
		sessionIdx, ok := sessionIndex[player.Session]
		if !ok {
			return fmt.Errorf("player %q references an unregistered session", player.Name())
		}
		if err := binary.Write(w, binary.LittleEndian, sessionIdx); err != nil {
			return err
		}
		if err := writeDog(w, player.Dog); err != nil {
			return err
		}
	}

	return nil
}

func writeDog(w io.Writer, d *model.Dog) error {
	dh := dogHeader{
		ID:           d.ID,
		PosX:         d.Position.X,
		PosY:         d.Position.Y,
		SpeedX:       d.Speed.X,
		SpeedY:       d.Speed.Y,
		Direction:    directionCode[d.Direction],
		DefaultSpeed: d.DefaultSpeed,
		BagCapacity:  uint32(d.Bag.Capacity()),
		BagCount:     uint32(d.Bag.Size()),
		Score:        int32(d.Score),
		InGameMs:     d.InGameMs,
		IdleMs:       d.IdleMs,
	}
	if err := writeString(w, d.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, &dh); err != nil {
		return fmt.Errorf("write dog header: %w", err)
	}
	for _, item := range d.Bag.Items() {
		if err := binary.Write(w, binary.LittleEndian, item.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(item.TypeIndex)); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("string too long to snapshot: %d bytes", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func writeToken(w io.Writer, token app.Token) error {
	var buf [32]byte
	copy(buf[:], token)
	_, err := w.Write(buf[:])
	return err
}

func decode(r io.Reader, game *model.Game, players *app.Players) (autoTick bool, randomizeSpawn bool, err error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return false, false, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != magicHeader {
		return false, false, fmt.Errorf("bad magic header")
	}
	if hdr.Version != version1 {
		return false, false, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	players.NextPlayerCounter = hdr.NextPlayerCounter
	autoTick = hdr.AutoTickEnabled != 0
	randomizeSpawn = hdr.RandomizeSpawn != 0

	sessionsByIndex := make([]*model.Session, 0, hdr.SessionCount)
	for i := uint32(0); i < hdr.SessionCount; i++ {
		sessionID, err := readString(r)
		if err != nil {
			return false, false, err
		}
		mapID, err := readString(r)
		if err != nil {
			return false, false, err
		}

		var sh sessionHeader
		if err := binary.Read(r, binary.LittleEndian, &sh); err != nil {
			return false, false, fmt.Errorf("read session header: %w", err)
		}

		session, err := game.FindOrCreateSession(mapID)
		if err != nil {
			return false, false, fmt.Errorf("session %q: %w", sessionID, err)
		}

		for j := uint32(0); j < sh.LootCount; j++ {
			var id uint64
			var typeIndex int32
			var x, y float64
			if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
				return false, false, err
			}
			if err := binary.Read(r, binary.LittleEndian, &typeIndex); err != nil {
				return false, false, err
			}
			if err := binary.Read(r, binary.LittleEndian, &x); err != nil {
				return false, false, err
			}
			if err := binary.Read(r, binary.LittleEndian, &y); err != nil {
				return false, false, err
			}
			session.AddLoot(&model.Loot{ID: id, TypeIndex: int(typeIndex), Position: geom.Point2D{X: x, Y: y}})
		}
		session.RestoreCounters(sh.NextDogID, sh.NextLootID)

		sessionsByIndex = append(sessionsByIndex, session)
	}

	for i := uint32(0); i < hdr.PlayerCount; i++ {
		token, err := readToken(r)
		if err != nil {
			return false, false, err
		}
		var sessionIdx uint32
		if err := binary.Read(r, binary.LittleEndian, &sessionIdx); err != nil {
			return false, false, err
		}
		if int(sessionIdx) >= len(sessionsByIndex) {
			return false, false, fmt.Errorf("player references out-of-range session %d", sessionIdx)
		}
		session := sessionsByIndex[sessionIdx]

		dog, err := readDog(r)
		if err != nil {
			return false, false, err
		}
		session.RestoreDog(dog)
		players.Restore(token, &app.Player{Dog: dog, Session: session})
	}

	return autoTick, randomizeSpawn, nil
}

func readDog(r io.Reader) (*model.Dog, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	var dh dogHeader
	if err := binary.Read(r, binary.LittleEndian, &dh); err != nil {
		return nil, fmt.Errorf("read dog header: %w", err)
	}

	items := make([]model.LootItem, 0, dh.BagCount)
	for i := uint32(0); i < dh.BagCount; i++ {
		var id uint64
		var typeIndex int32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &typeIndex); err != nil {
			return nil, err
		}
		items = append(items, model.LootItem{ID: id, TypeIndex: int(typeIndex)})
	}

	dog := &model.Dog{
		ID:           dh.ID,
		Name:         name,
		Position:     geom.Point2D{X: dh.PosX, Y: dh.PosY},
		Speed:        geom.Vec2D{X: dh.SpeedX, Y: dh.SpeedY},
		Direction:    directionByCode[dh.Direction],
		DefaultSpeed: dh.DefaultSpeed,
		Bag:          model.NewBag(int(dh.BagCapacity)),
		Score:        int(dh.Score),
		InGameMs:     dh.InGameMs,
		IdleMs:       dh.IdleMs,
	}
	dog.Bag.Restore(items, int(dh.BagCapacity))
	return dog, nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readToken(r io.Reader) (app.Token, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", err
	}
	return app.Token(buf[:]), nil
}
