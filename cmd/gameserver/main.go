package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"flag"
	mathrand "math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdanilov/dogwalk-server/internal/app"
	"github.com/avdanilov/dogwalk-server/internal/config"
	"github.com/avdanilov/dogwalk-server/internal/httpapi"
	"github.com/avdanilov/dogwalk-server/internal/retirement"
	"github.com/avdanilov/dogwalk-server/internal/snapshot"
	"github.com/avdanilov/dogwalk-server/pkg/logger"
)

// retirementPoolCapacity is the fixed number of Postgres connections kept
// open for the retirement sink - spec.md doesn't expose this as a CLI
// knob, so it is a constant the way the reference implementation picks a
// fixed thread/connection count for its pool.
const retirementPoolCapacity = 4

func init() {
	logger.Init()
}

func main() {
	var configFile, wwwRoot, stateFile string
	var tickPeriodMs, saveStatePeriodMs int64
	var randomizeSpawnDogs bool

	flag.StringVar(&configFile, "config-file", "", "path to the JSON game config (required)")
	flag.StringVar(&wwwRoot, "www-root", "", "path to the static frontend root (required)")
	flag.StringVar(&stateFile, "state-file", "", "path to the persisted snapshot file")
	flag.Int64Var(&tickPeriodMs, "tick-period", 0, "ms between automatic ticks; 0 disables auto-tick")
	flag.Int64Var(&saveStatePeriodMs, "save-state-period", 0, "ms between periodic snapshot saves; 0 disables periodic saving")
	flag.BoolVar(&randomizeSpawnDogs, "randomize-spawn-dogs", false, "spawn dogs at a random point on a random road instead of the first road's start")
	flag.Parse()

	if configFile == "" || wwwRoot == "" {
		logger.Log.Fatal("--config-file and --www-root are required")
	}

	dbURL := os.Getenv(retirement.DBURLEnvName)
	if dbURL == "" {
		logger.Log.Fatalf("%s environment variable is required", retirement.DBURLEnvName)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	game, err := config.LoadFile(configFile, newSessionRNG)
	if err != nil {
		logger.Log.Fatalf("failed to load config: %v", err)
	}

	store, err := retirement.NewPostgresStore(ctx, dbURL, retirementPoolCapacity)
	if err != nil {
		logger.Log.Fatalf("failed to connect to retirement store: %v", err)
	}
	defer store.Close(ctx)

	players := app.NewPlayers()
	application := app.NewApplication(game, players, store)
	application.SetRandomizeSpawn(randomizeSpawnDogs)

	if stateFile != "" {
		found, autoTick, restoredRandomize, err := snapshot.Load(stateFile, game, players)
		if err != nil {
			logger.Log.Fatalf("failed to restore snapshot %q: %v", stateFile, err)
		}
		if found {
			logger.Log.Infof("restored snapshot from %s", stateFile)
			application.SetAutoTickEnabled(autoTick)
			application.SetRandomizeSpawn(randomizeSpawnDogs || restoredRandomize)
		}
	}
	if tickPeriodMs > 0 {
		application.SetAutoTickEnabled(true)
	}

	var saver *snapshot.PeriodicSaver
	if stateFile != "" && saveStatePeriodMs > 0 {
		saver = snapshot.NewPeriodicSaver(stateFile, saveStatePeriodMs, func() snapshot.State {
			return snapshot.State{
				Game:            game,
				Players:         players,
				AutoTickEnabled: application.AutoTickEnabled(),
				RandomizeSpawn:  application.RandomizeSpawn(),
			}
		})
		application.SetListener(saver)
	}

	server := httpapi.New(application, wwwRoot)
	httpServer := &http.Server{Addr: listenAddr(), Handler: server.Handler()}

	go func() {
		logger.Log.Infof("dogwalk-server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("server start error: %v", err)
		}
	}()

	var ticker *time.Ticker
	tickDone := make(chan struct{})
	if tickPeriodMs > 0 {
		ticker = time.NewTicker(time.Duration(tickPeriodMs) * time.Millisecond)
		go func() {
			for {
				select {
				case <-ticker.C:
					application.Tick(ctx, tickPeriodMs)
				case <-tickDone:
					return
				}
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Log.Info("shutting down...")

	if ticker != nil {
		ticker.Stop()
		close(tickDone)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if stateFile != "" {
		if err := snapshot.Save(stateFile, snapshot.State{
			Game:            game,
			Players:         players,
			AutoTickEnabled: application.AutoTickEnabled(),
			RandomizeSpawn:  application.RandomizeSpawn(),
		}); err != nil {
			logger.Log.WithError(err).Error("final snapshot save failed")
		} else {
			logger.Log.Info("final snapshot saved")
		}
	}

	logger.Log.Info("done.")
}

func listenAddr() string {
	port := os.Getenv("GAME_SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

// newSessionRNG mints a math/rand source seeded from crypto/rand, one per
// session, matching spec.md's "inject the RNG as a dependency" guidance
// while still giving each session an unpredictable spawn/loot stream in
// production. Tests inject their own deterministic factory instead.
func newSessionRNG() *mathrand.Rand {
	var seedBytes [8]byte
	if _, err := rand.Read(seedBytes[:]); err != nil {
		logger.Log.WithError(err).Warn("crypto/rand unavailable for session seed, falling back to time-based seed")
		return mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	}
	seed := int64(binary.BigEndian.Uint64(seedBytes[:]))
	return mathrand.New(mathrand.NewSource(seed))
}
