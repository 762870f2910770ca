package app

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sync"
	"testing"

	"github.com/avdanilov/dogwalk-server/internal/geom"
	"github.com/avdanilov/dogwalk-server/internal/model"
	"github.com/avdanilov/dogwalk-server/internal/retirement"
	"github.com/avdanilov/dogwalk-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// fakeStore is a retirement.Store whose Save can be made to fail a fixed
// number of times before succeeding, to exercise the buffer-and-retry path.
type fakeStore struct {
	failuresLeft int
	saved        []string
}

func (f *fakeStore) Save(_ context.Context, name string, _ int, _ int64) error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return errors.New("store unavailable")
	}
	f.saved = append(f.saved, name)
	return nil
}

func (f *fakeStore) Top(_ context.Context, _, _ int) ([]retirement.RetiredPlayer, error) {
	return nil, nil
}

func newTestGame(t *testing.T) *model.Game {
	t.Helper()
	g := model.NewGame(func() *rand.Rand { return rand.New(rand.NewSource(1)) })
	m := model.NewMap("m1", "Test", 1, 3)
	m.AddRoad(model.NewHorizontalRoad(geom.Point{X: 0, Y: 0}, 10))
	m.LootTypes = []model.LootType{{Value: 10}}
	m.BuildRoadIndexes()
	if err := g.AddMap(m); err != nil {
		t.Fatalf("AddMap: %v", err)
	}
	g.RetirementMs = 1000
	return g
}

func TestApplication_JoinGameRejectsEmptyName(t *testing.T) {
	a := NewApplication(newTestGame(t), NewPlayers(), &fakeStore{})
	if _, err := a.JoinGame("m1", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for an empty name, got %v", err)
	}
}

func TestApplication_JoinGameUnknownMap(t *testing.T) {
	a := NewApplication(newTestGame(t), NewPlayers(), &fakeStore{})
	if _, err := a.JoinGame("nope", "rex"); err == nil {
		t.Error("expected an error joining an unregistered map")
	}
}

func TestApplication_JoinGameSucceeds(t *testing.T) {
	a := NewApplication(newTestGame(t), NewPlayers(), &fakeStore{})
	result, err := a.JoinGame("m1", "rex")
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a non-empty token")
	}

	player, err := a.Players.ByToken(result.Token)
	if err != nil {
		t.Fatalf("expected the minted token to resolve to a player: %v", err)
	}
	if player.Dog.ID != result.PlayerID {
		t.Errorf("expected player id %d, got %d", result.PlayerID, player.Dog.ID)
	}
}

func TestApplication_SetPlayerActionUnknownToken(t *testing.T) {
	a := NewApplication(newTestGame(t), NewPlayers(), &fakeStore{})
	if err := a.SetPlayerAction("bogus", model.MoveUp); err == nil {
		t.Error("expected an error for an unrecognized token")
	}
}

func TestApplication_TickRetiresIdleDogAndSaves(t *testing.T) {
	store := &fakeStore{}
	a := NewApplication(newTestGame(t), NewPlayers(), store)

	result, err := a.JoinGame("m1", "rex")
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	// Dog never moves, so it accumulates idle time and should retire once
	// the tick reaches the game's retirement threshold (1000ms).
	a.Tick(context.Background(), 1000)

	if _, err := a.Players.ByToken(result.Token); err == nil {
		t.Error("expected the retired player's token to be removed")
	}
	if len(store.saved) != 1 || store.saved[0] != "rex" {
		t.Errorf("expected the retired dog saved once, got %+v", store.saved)
	}
}

func TestApplication_TickBuffersFailedSaveAndRetries(t *testing.T) {
	store := &fakeStore{failuresLeft: 1}
	a := NewApplication(newTestGame(t), NewPlayers(), store)

	if _, err := a.JoinGame("m1", "rex"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}

	ctx := context.Background()
	a.Tick(ctx, 1000) // retires the dog; the save fails and is buffered
	if len(store.saved) != 0 {
		t.Fatalf("expected the failed save to not be recorded yet, got %+v", store.saved)
	}

	a.Tick(ctx, 1) // no new retirements; should retry the buffered save
	if len(store.saved) != 1 || store.saved[0] != "rex" {
		t.Errorf("expected the buffered save to succeed on retry, got %+v", store.saved)
	}
}

// TestApplication_ConcurrentJoinAndTick hammers JoinGame, SetPlayerAction
// and Tick from many goroutines at once, the way net/http's per-request
// goroutines and the auto-ticker goroutine actually call into Application.
// Before mu existed, this panicked under `go test -race` (and, often
// enough, without it too) with "fatal error: concurrent map writes" on
// Game.sessions or Players.byToken/byDogID.
func TestApplication_ConcurrentJoinAndTick(t *testing.T) {
	store := &fakeStore{}
	a := NewApplication(newTestGame(t), NewPlayers(), store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result, err := a.JoinGame("m1", "dog")
			if err != nil {
				t.Errorf("JoinGame: %v", err)
				return
			}
			if err := a.SetPlayerAction(result.Token, model.MoveRight); err != nil {
				t.Errorf("SetPlayerAction: %v", err)
			}
			if _, _, err := a.GameState(result.Token); err != nil {
				t.Errorf("GameState: %v", err)
			}
		}(i)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Tick(ctx, 50)
		}()
	}
	wg.Wait()
}
