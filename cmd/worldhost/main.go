package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/worldhost/internal/config"
	"github.com/l1jgo/worldhost/internal/core/event"
	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/handler"
	"github.com/l1jgo/worldhost/internal/messaging"
	"github.com/l1jgo/worldhost/internal/metrics"
	gonet "github.com/l1jgo/worldhost/internal/net"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/persist"
	"github.com/l1jgo/worldhost/internal/scripting"
	"github.com/l1jgo/worldhost/internal/system"
	"github.com/l1jgo/worldhost/internal/world"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             worldhost  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        多人世界 · Go 遊戲伺服器           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := max(3, 46-displayWidth(title)-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(3, 42-displayWidth(label)-len(numStr))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if err := packet.SetCharset(cfg.Client.Charset); err != nil {
		return fmt.Errorf("client charset: %w", err)
	}

	printBanner(cfg.Server.Name, cfg.Server.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Storage
	printSection("資料庫")
	var (
		accounts handler.AccountStore
		journal  system.SessionJournal
	)
	if cfg.Database.DSN != "" {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		applied, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("資料庫遷移完成 (%d)", applied))
		accounts = persist.NewAccountRepo(db, cfg.Account.AutoCreate)
		journal = persist.NewSessionLogRepo(db)
	} else {
		accounts = persist.NewMemoryAccounts(cfg.Account.AutoCreate)
		printOK("未設定資料庫，使用記憶體帳號")
	}
	fmt.Println()

	// 2. Static content
	printSection("資料載入")
	worldLevels, err := data.LoadWorldLevelTable(cfg.Data.WorldLevelPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load world levels: %w", err)
		}
		log.Warn("找不到世界等級表，怪物等級不做調整", zap.String("path", cfg.Data.WorldLevelPath))
	}
	printStat("世界等級", worldLevels.Count())

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	scenes, err := luaEngine.LoadScenes(cfg.Data.SceneScriptDir)
	if err != nil {
		return fmt.Errorf("load scenes: %w", err)
	}
	printStat("場景", scenes.Count())
	if scenes.Scene(cfg.Scene.DefaultSceneID) == nil {
		log.Warn("預設場景沒有群組資料", zap.Uint32("scene", cfg.Scene.DefaultSceneID))
	}
	tables := &data.Tables{Scenes: scenes, WorldLevels: worldLevels}
	fmt.Println()

	// 3. World events
	bus := event.NewBus()
	natsConn, stopNats, err := connectNats(cfg.Nats, log)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer stopNats()
	if natsConn != nil {
		messaging.NewEventPublisher(natsConn, cfg.Nats.SubjectPrefix, log).Attach(bus)
		printOK("世界事件發佈至 NATS")
	}

	// 4. World state and handlers
	worldState := world.NewState(world.Config{
		SceneID:          cfg.Scene.DefaultSceneID,
		WorldLevel:       cfg.Scene.WorldLevel,
		GroupLoadRange:   cfg.Scene.GroupLoadRange,
		GroupUnloadRange: cfg.Scene.GroupUnloadRange,
	}, tables, handler.NewPacketNotifier(log), bus, log)

	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Accounts: accounts,
		Config:   cfg,
		Log:      log,
		World:    worldState,
	}
	handler.RegisterAll(pktReg, deps)

	// 5. Network
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.ServerOptions{
		InQueueSize:   cfg.Network.InQueueSize,
		OutQueueSize:  cfg.Network.OutQueueSize,
		PacketsPerSec: cfg.PacketsPerSecond(),
		WriteTimeout:  cfg.Network.WriteTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	var httpServer *http.Server
	if cfg.Network.HTTPBindAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", netServer)
		if cfg.Metrics.Enabled {
			mux.Handle(cfg.Metrics.Path, metrics.Handler())
		}
		httpServer = &http.Server{
			Addr:              cfg.Network.HTTPBindAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP 伺服器錯誤", zap.Error(err))
			}
		}()
	}

	// 6. Systems
	store := gonet.NewSessionStore()
	runner := coresys.NewRunner()
	runner.Observe(func(p coresys.Phase, elapsed time.Duration) {
		metrics.TickPhaseDuration.WithLabelValues(p.String()).Observe(elapsed.Seconds())
	})
	runner.Register(system.NewInputSystem(netServer, pktReg, store, deps, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewSchedulerSystem(worldState))
	runner.Register(system.NewSceneRefreshSystem(worldState, cfg.Scene.RefreshIntervalTicks))
	runner.Register(system.NewAuthoritySystem(worldState))
	runner.Register(system.NewOutputSystem(store))
	var persistSys *system.PersistenceSystem
	if journal != nil {
		persistSys = system.NewPersistenceSystem(journal, bus, cfg.Database.JournalFlushTicks, log)
		runner.Register(persistSys)
	}
	runner.Register(system.NewWorldCleanupSystem(worldState, cfg.Scene.CleanupIntervalTicks, log))

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	if addr := netServer.Addr(); addr != nil {
		printReady(fmt.Sprintf("TCP 監聽位址 %s", addr.String()))
	}
	if httpServer != nil {
		printReady(fmt.Sprintf("WebSocket 監聽位址 %s/ws", cfg.Network.HTTPBindAddress))
	}
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			shutdown(worldState, runner, persistSys, netServer, httpServer, log)
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// shutdown closes every world, delivers the resulting events, flushes the
// session journal and stops the listeners.
func shutdown(ws *world.State, runner *coresys.Runner, persistSys *system.PersistenceSystem, netServer *gonet.Server, httpServer *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	netServer.Shutdown()
	ws.Shutdown(ctx)
	runner.TickPhase(coresys.PhasePreUpdate, 0)
	runner.TickPhase(coresys.PhaseOutput, 0)
	if persistSys != nil {
		persistSys.Flush()
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("HTTP 伺服器關閉失敗", zap.Error(err))
		}
	}
}

// connectNats returns a client connection for world events, or nil when
// NATS is disabled. The returned stop func releases everything it started.
func connectNats(cfg config.NatsConfig, log *zap.Logger) (*nats.Conn, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	if cfg.Embedded {
		srv, err := messaging.NewNatsServer(log,
			messaging.WithHost(cfg.Host),
			messaging.WithPort(cfg.Port),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := srv.Start(); err != nil {
			return nil, nil, err
		}
		return srv.Conn(), srv.Shutdown, nil
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("worldhost"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
	}
	log.Info("已連線 NATS", zap.String("url", cfg.URL))
	return conn, func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
