// Demo binary: records a few games against a real sqlite store and prints
// the resulting stats, leaderboard, and daily challenges. With -listen it
// also serves a small JSON API plus a /ws stream of live events.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shooterstats/achievements"
	"shooterstats/adapters/memcache"
	"shooterstats/adapters/rediscache"
	"shooterstats/adapters/sqlstore"
	ws "shooterstats/adapters/websocket"
	"shooterstats/analytics"
	"shooterstats/cache"
	"shooterstats/challenges"
	"shooterstats/config"
	"shooterstats/core"
	"shooterstats/engine"
	"shooterstats/realtime"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (optional)")
	listen := flag.String("listen", "", "serve the JSON API on this address instead of running the demo scenario")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	registry := achievements.Default()
	catalog, err := challenges.NewCatalog(challenges.Targets{
		DailyScore: cfg.Game.DailyScoreTarget,
		DailyKills: cfg.Game.DailyKillsTarget,
		DailyGames: cfg.Game.DailyGamesTarget,
	})
	if err != nil {
		slog.Error("building challenge catalog", "error", err)
		os.Exit(1)
	}

	storeCfg := cfg.Storage
	storeCfg.WinThreshold = cfg.Game.WinThreshold
	if storeCfg.Driver == sqlstore.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(storeCfg.DSN), 0o750); err != nil {
			slog.Error("creating data directory", "error", err)
			os.Exit(1)
		}
	}
	store, err := sqlstore.New(storeCfg, registry, catalog)
	if err != nil {
		slog.Error("opening store", "error", err, "driver", storeCfg.Driver)
		os.Exit(1)
	}

	statsCache, err := buildCache(cfg.Cache)
	if err != nil {
		slog.Error("building cache", "error", err, "backend", cfg.Cache.Backend)
		os.Exit(1)
	}

	bus := engine.NewEventBus(engine.DispatchSync)
	svc := engine.NewStatsService(store, statsCache, bus)
	defer svc.Close()

	metrics := analytics.NewMetrics()
	analytics.Bridge(bus, metrics)

	slog.Info("shooterstats ready",
		"environment", cfg.Environment,
		"driver", storeCfg.Driver,
		"cache", cfg.Cache.Backend)

	if *listen != "" {
		serve(*listen, svc, bus)
		return
	}
	runScenario(svc, metrics)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	out := os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func buildCache(cfg config.CacheConfig) (cache.StatsCache, error) {
	switch cfg.Backend {
	case "memory":
		return memcache.New(cfg.TTL), nil
	case "redis":
		redisCfg := cfg.Redis
		redisCfg.TTL = cfg.TTL
		return rediscache.New(redisCfg)
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// runScenario exercises the whole pipeline once: three players, a handful
// of games, then every read surface.
func runScenario(svc *engine.StatsService, metrics *analytics.Metrics) {
	ctx := context.Background()

	players := []core.UserProfile{
		{UserID: 1, Username: "nova", FirstName: "Nova"},
		{UserID: 2, Username: "vega"},
		{UserID: 3, FirstName: "Rook", IsPremium: true},
	}
	for _, p := range players {
		if err := svc.RegisterUser(ctx, p); err != nil {
			slog.Error("register user", "error", err, "user_id", p.UserID)
			os.Exit(1)
		}
	}

	games := []core.GameResult{
		{UserID: 1, Score: 450, Level: 4, Difficulty: core.DifficultyNormal, DurationSeconds: 120, EnemiesKilled: 30, AccuracyPercent: 72},
		{UserID: 1, Score: 1200, Level: 7, Difficulty: core.DifficultyHard, DurationSeconds: 300, EnemiesKilled: 80, AccuracyPercent: 85},
		{UserID: 2, Score: 1200, Level: 5, Difficulty: core.DifficultyHard, DurationSeconds: 240, EnemiesKilled: 65, AccuracyPercent: 90},
		{UserID: 3, Score: 90, Level: 1, Difficulty: core.DifficultyEasy, DurationSeconds: 45, EnemiesKilled: 5, AccuracyPercent: 40},
	}
	for _, g := range games {
		out, err := svc.RecordGame(ctx, g)
		if err != nil {
			slog.Error("record game", "error", err, "user_id", g.UserID)
			os.Exit(1)
		}
		slog.Info("game recorded",
			"user_id", g.UserID,
			"score", g.Score,
			"new_record", out.IsNewRecord,
			"rank", out.Rank,
			"unlocked", len(out.Unlocked),
			"challenges_completed", len(out.CompletedChallenges))
	}

	board, err := svc.TopPlayers(ctx, 10)
	if err != nil {
		slog.Error("leaderboard", "error", err)
		os.Exit(1)
	}
	for _, e := range board {
		fmt.Printf("#%d %-12s score=%d games=%d\n", e.Rank, e.Name, e.Score, e.GamesPlayed)
	}

	for _, p := range players {
		stats, ok, err := svc.GetUserStats(ctx, p.UserID, true)
		if err != nil || !ok {
			continue
		}
		rows, _ := svc.GetDailyChallenges(ctx, p.UserID)
		fmt.Printf("%s: best=%d games=%d avg_acc=%.1f streak=%d challenges=%d\n",
			p.DisplayName(), stats.BestScore, stats.GamesPlayed, stats.AvgAccuracy,
			stats.CurrentWinStreak, len(rows))
	}

	global, err := svc.GetGlobalStats(ctx)
	if err == nil {
		fmt.Printf("global: users=%d games=%d avg_score=%.1f max=%d\n",
			global.TotalUsers, global.TotalGames, global.AvgScore, global.MaxScore)
	}
	today := core.DayKey(time.Now())
	fmt.Printf("today: games=%d active_players=%d\n",
		metrics.GamesPlayed(today), metrics.ActivePlayers(today))
}

// serve exposes the service as a small JSON API with a live event stream on
// /ws. Intended for local poking, not production ingress.
func serve(addr string, svc *engine.StatsService, bus *engine.EventBus) {
	hub := realtime.NewHub()
	forward := func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) }
	bus.Subscribe(core.EventGameRecorded, forward)
	bus.Subscribe(core.EventHighScore, forward)
	bus.Subscribe(core.EventAchievementUnlocked, forward)
	bus.Subscribe(core.EventChallengeCompleted, forward)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.Handler(hub))

	mux.HandleFunc("/games", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var result core.GameResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := svc.RecordGame(r.Context(), result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		board, err := svc.TopPlayers(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, board)
	})

	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			http.Error(w, "bad user id", http.StatusBadRequest)
			return
		}
		user := core.UserID(id)
		resource := "stats"
		if len(parts) > 2 {
			resource = parts[2]
		}
		switch resource {
		case "stats":
			stats, ok, err := svc.GetUserStats(r.Context(), user, true)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if !ok {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, stats)
		case "rank":
			rank, ok, err := svc.GetUserRank(r.Context(), user)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"rank": rank, "ranked": ok})
		case "achievements":
			keys, err := svc.GetUserAchievements(r.Context(), user)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, keys)
		case "challenges":
			rows, err := svc.GetDailyChallenges(r.Context(), user)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, rows)
		case "games":
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			games, err := svc.RecentGames(r.Context(), user, limit)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, games)
		default:
			http.NotFound(w, r)
		}
	})

	slog.Info("listening", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
