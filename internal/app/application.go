package app

import (
	"context"
	"sync"

	"github.com/avdanilov/dogwalk-server/internal/model"
	"github.com/avdanilov/dogwalk-server/internal/retirement"
	"github.com/avdanilov/dogwalk-server/pkg/logger"
)

// Listener is notified once per tick, after the tick pipeline has run for
// every session - the hook the periodic-save observer hangs off.
type Listener interface {
	OnTick(deltaMs int64)
}

// Application is the facade the HTTP layer talks to: it wires the game
// registry, the player/token registry and the retirement store together
// into the use cases the API needs, the way the reference implementation's
// Application class wires its own use-case objects.
//
// net/http serves each request on its own goroutine, and the auto-ticker
// (cmd/gameserver/main.go) drives Tick from a second, independent goroutine.
// mu is the Go stand-in for the reference implementation's single
// boost::asio::strand (src/main.cpp) - the "coarse mutex guarding the full
// game-state root" spec.md §5 offers as the alternative to a dedicated
// dispatch thread. Every use case that reads or writes session/player state
// takes it, so a join can never race a tick's map mutation.
type Application struct {
	Game    *model.Game
	Players *Players
	Store   retirement.Store

	mu sync.Mutex

	autoTickEnabled bool
	randomizeSpawn  bool

	listener Listener

	// failedSaves buffers retirement records that couldn't be persisted,
	// retried at the start of every subsequent tick. The reference
	// implementation drops the dog on DB failure and loses the record;
	// this is the deliberate fix (see DESIGN.md, Open Questions).
	failedSaves []pendingSave
}

type pendingSave struct {
	name       string
	score      int
	playTimeMs int64
}

// NewApplication wires the facade over an already-populated game registry.
func NewApplication(game *model.Game, players *Players, store retirement.Store) *Application {
	return &Application{Game: game, Players: players, Store: store}
}

// SetListener installs the tick observer (e.g. the periodic-save hook).
func (a *Application) SetListener(l Listener) { a.listener = l }

// AutoTickEnabled, SetAutoTickEnabled, RandomizeSpawn and SetRandomizeSpawn
// are deliberately unlocked. Both flags are only ever written during
// cmd/gameserver/main.go's single-threaded bootstrap (flag parsing and
// snapshot restore), before the HTTP server or auto-ticker goroutine
// start, and the periodic-save listener reads them from inside an
// already-locked Tick call (see Tick below) - taking mu here too would
// self-deadlock on that path. Neither flag is part of the joins/movement/
// tick/action/state-read set spec.md §5 requires serialized.
func (a *Application) AutoTickEnabled() bool     { return a.autoTickEnabled }
func (a *Application) SetAutoTickEnabled(v bool) { a.autoTickEnabled = v }
func (a *Application) RandomizeSpawn() bool      { return a.randomizeSpawn }
func (a *Application) SetRandomizeSpawn(v bool)  { a.randomizeSpawn = v }

// ListMaps returns every registered map. Maps are immutable after load (see
// internal/model.Game), so this is a safe unlocked read - nothing ever
// writes to a.Game.maps/mapByID once config.LoadFile returns.
func (a *Application) ListMaps() []*model.Map { return a.Game.Maps() }

// FindMap looks up a map by id. Unlocked for the same reason as ListMaps.
func (a *Application) FindMap(id string) (*model.Map, bool) { return a.Game.FindMap(id) }

// Authenticate resolves a bearer token to its player. HTTP handlers must
// call this instead of reaching into Players.ByToken directly, so token
// lookup is serialized against JoinGame's Players.Add and Tick's
// Players.Delete on retirement.
func (a *Application) Authenticate(token Token) (*Player, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Players.ByToken(token)
}

// Locked runs fn while holding the game-state mutex. HTTP handlers use it
// to read a player's dog/session state and build a response atomically, so
// a concurrent Tick can never mutate a dogs/loots map mid-iteration.
func (a *Application) Locked(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// JoinResult is what a successful join hands back to the client.
type JoinResult struct {
	Token    Token
	PlayerID uint64
}

// JoinGame creates (or reuses) the session for mapID, spawns a dog named
// name in it, and mints a token for the resulting player.
func (a *Application) JoinGame(mapID, name string) (JoinResult, error) {
	if name == "" {
		return JoinResult{}, ErrInvalidArgument
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.Game.FindOrCreateSession(mapID)
	if err != nil {
		return JoinResult{}, err
	}
	dog := session.AddDog(name, a.randomizeSpawn)
	player := &Player{Dog: dog, Session: session}
	token := a.Players.Add(player)
	return JoinResult{Token: token, PlayerID: dog.ID}, nil
}

// ListPlayers returns every dog sharing the caller's session.
func (a *Application) ListPlayers(token Token) (map[uint64]*model.Dog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	player, err := a.Players.ByToken(token)
	if err != nil {
		return nil, err
	}
	return player.Session.Dogs(), nil
}

// GameState returns the caller's session's live dogs and loots.
func (a *Application) GameState(token Token) (dogs map[uint64]*model.Dog, loots map[uint64]*model.Loot, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	player, err := a.Players.ByToken(token)
	if err != nil {
		return nil, nil, err
	}
	return player.Session.Dogs(), player.Session.Loots(), nil
}

// SetPlayerAction applies a commanded heading to the caller's dog.
func (a *Application) SetPlayerAction(token Token, move model.Move) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	player, err := a.Players.ByToken(token)
	if err != nil {
		return err
	}
	player.Dog.SetMove(move)
	return nil
}

// Tick advances every live session by deltaMs, persists any dogs retired
// along the way, and notifies the listener. Held across the whole pipeline,
// including the retirement store's blocking pool-acquire, so the tick stays
// atomic from the perspective of any API call serialized on mu - the one
// place spec.md §5 allows the core to wait on a true shared resource.
func (a *Application) Tick(ctx context.Context, deltaMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.retryFailedSaves(ctx)

	for _, session := range a.Game.Sessions() {
		retired := session.Update(deltaMs)
		for _, dog := range retired {
			a.retireDog(ctx, dog)
		}
	}

	if a.listener != nil {
		a.listener.OnTick(deltaMs)
	}
}

func (a *Application) retireDog(ctx context.Context, dog *model.Dog) {
	if player, ok := a.Players.ByDogID(dog.ID); ok {
		a.Players.Delete(player)
	}
	if err := a.Store.Save(ctx, dog.Name, dog.Score, dog.InGameMs); err != nil {
		logger.Log.WithError(err).WithField("dog", dog.Name).Warn("retirement save failed, buffering for retry")
		a.failedSaves = append(a.failedSaves, pendingSave{name: dog.Name, score: dog.Score, playTimeMs: dog.InGameMs})
	}
}

func (a *Application) retryFailedSaves(ctx context.Context) {
	if len(a.failedSaves) == 0 {
		return
	}
	remaining := a.failedSaves[:0]
	for _, p := range a.failedSaves {
		if err := a.Store.Save(ctx, p.name, p.score, p.playTimeMs); err != nil {
			remaining = append(remaining, p)
		}
	}
	a.failedSaves = remaining
}

// Records returns a leaderboard page. Locked alongside the other use cases
// even though it only reaches the retirement store, not session state: §5
// puts "state read" on the same serialized queue as joins/ticks/actions.
func (a *Application) Records(ctx context.Context, offset, limit int) ([]retirement.RetiredPlayer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Store.Top(ctx, offset, limit)
}
