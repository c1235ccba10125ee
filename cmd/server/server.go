package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/spf13/cobra"

	"github.com/deepdelve/dungeon-api/internal/clients/identity"
	internalerrors "github.com/deepdelve/dungeon-api/internal/errors"
	"github.com/deepdelve/dungeon-api/internal/handlers/ws"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/dungeon"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/floorlayout"
	"github.com/deepdelve/dungeon-api/internal/orchestrators/lifecycle"
	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
	"github.com/deepdelve/dungeon-api/internal/pkg/idgen"
	"github.com/deepdelve/dungeon-api/internal/pkg/scheduler"
	"github.com/deepdelve/dungeon-api/internal/redis"
	"github.com/deepdelve/dungeon-api/internal/registry"
	"github.com/deepdelve/dungeon-api/internal/repositories/dungeonnodes"
	"github.com/deepdelve/dungeon-api/internal/repositories/enemies"
	"github.com/deepdelve/dungeon-api/internal/repositories/floornodes"
	"github.com/deepdelve/dungeon-api/internal/repositories/items"
	"github.com/deepdelve/dungeon-api/internal/repositories/players"
)

var (
	httpPort     int
	redisAddr    string
	maxDepth     int
	reinitialize bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the dungeon server",
	Long:  `Start the HTTP/websocket server with all configured services.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&httpPort, "port", 8080, "HTTP server port")
	serverCmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address")
	serverCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "depth at which boss levels become certain (0 = default)")
	serverCmd.Flags().BoolVar(&reinitialize, "reinitialize", false, "wipe and regenerate the dungeon on startup")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal, gracefully stopping")
		cancel()
	}()

	redisClient, err := redis.NewClient(redisAddr, &redis.Options{})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	dungeonNodeRepo, err := dungeonnodes.NewRedis(&dungeonnodes.RedisConfig{Client: redisClient})
	if err != nil {
		return fmt.Errorf("failed to create dungeon node repository: %w", err)
	}
	floorNodeRepo, err := floornodes.NewRedis(&floornodes.RedisConfig{Client: redisClient})
	if err != nil {
		return fmt.Errorf("failed to create floor node repository: %w", err)
	}
	enemyRepo, err := enemies.NewRedis(&enemies.RedisConfig{Client: redisClient})
	if err != nil {
		return fmt.Errorf("failed to create enemy repository: %w", err)
	}
	itemRepo, err := items.NewRedis(&items.RedisConfig{Client: redisClient})
	if err != nil {
		return fmt.Errorf("failed to create item repository: %w", err)
	}
	playerRepo, err := players.NewRedis(&players.RedisConfig{Client: redisClient})
	if err != nil {
		return fmt.Errorf("failed to create player repository: %w", err)
	}

	layoutSvc, err := floorlayout.NewOrchestrator(&floorlayout.Config{
		FloorNodeRepo: floorNodeRepo,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return fmt.Errorf("failed to create floor layout service: %w", err)
	}

	dungeonSvc, err := dungeon.NewOrchestrator(&dungeon.Config{
		DungeonNodeRepo: dungeonNodeRepo,
		FloorLayout:     layoutSvc,
		Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
		MaxDepth:        maxDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to create dungeon service: %w", err)
	}

	reg := registry.New()
	sched := scheduler.NewTicking()
	defer sched.Close()

	manager, err := lifecycle.NewManager(&lifecycle.Config{
		EnemyRepo:   enemyRepo,
		ItemRepo:    itemRepo,
		Tiles:       layoutSvc,
		Broadcaster: reg,
		Scheduler:   sched,
		Clock:       clock.New(),
		IDGenerator: idgen.NewPrefixed("ent_"),
		Roller:      dice.DefaultRoller,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return fmt.Errorf("failed to create lifecycle manager: %w", err)
	}
	defer manager.Close()
	reg.SetEnemySource(manager)

	gateway, err := ws.New(&ws.Config{
		Dungeon:     dungeonSvc,
		FloorLayout: layoutSvc,
		Lifecycle:   manager,
		Registry:    reg,
		PlayerRepo:  playerRepo,
		Identity:    identity.NewInsecure(),
		Clock:       clock.New(),
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	if err := ensureDungeon(ctx, dungeonSvc); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           gateway.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed, closing", "error", err.Error())
			_ = srv.Close()
		}
		slog.Info("server stopped")
		return nil
	case err := <-errChan:
		return err
	}
}

// ensureDungeon initializes the dungeon when it doesn't exist yet, or when
// a wipe was requested.
func ensureDungeon(ctx context.Context, svc dungeon.Service) error {
	if !reinitialize {
		_, err := svc.GetSpawnFloor(ctx, &dungeon.GetSpawnFloorInput{})
		if err == nil {
			slog.Info("dungeon already initialized")
			return nil
		}
		if !internalerrors.IsFailedPrecondition(err) {
			return fmt.Errorf("failed to check dungeon state: %w", err)
		}
	}

	if _, err := svc.Initialize(ctx, &dungeon.InitializeInput{}); err != nil {
		return fmt.Errorf("failed to initialize dungeon: %w", err)
	}
	return nil
}
