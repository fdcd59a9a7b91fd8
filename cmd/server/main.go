package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"pollhub/config"
	"pollhub/controllers"
	"pollhub/db"
	"pollhub/internal/live"
	"pollhub/internal/ratelimit"
	"pollhub/middlewares"
	"pollhub/routes"
	"pollhub/services"
	"pollhub/utils"

	"github.com/casbin/casbin/v2/persist"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "./config/config.yml", "Path to config file")
	flag.Parse()

	middlewares.InitLogger("info", "pollhub")

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		middlewares.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	middlewares.InitLogger(cfg.Log.Level, "pollhub")
	log := middlewares.Logger
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB using the URI from the configuration
	store := db.NewStore(cfg.Database.URI, cfg.Database.Name)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = store.Connect(connectCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Disconnect(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}
	log.Info().Str("database", store.DatabaseName()).Msg("connected to MongoDB")

	health := map[string]controllers.Pinger{"mongo": store}

	// Redis is optional: without it live events and rate limits stay local
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, continuing with local fallbacks")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
		defer rdb.Close()
		health["redis"] = controllers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	var adapter persist.Adapter
	if cfg.RBAC.UseMongoAdapter {
		adapter, err = middlewares.NewMongoAdapter(cfg.Database.URI)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create casbin adapter")
		}
	}
	enforcer, err := middlewares.NewEnforcer(adapter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise RBAC")
	}

	tokens, err := utils.NewTokenService(cfg.JWT.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token service")
	}

	hub := live.NewHub(rdb, cfg.Server.AllowedOrigins)
	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Error().Err(err).Msg("live hub stopped")
		}
	}()

	limiter := ratelimit.New(rdb, ratelimit.Config{Limit: cfg.Security.WriteRateLimit, Window: time.Minute})
	if runner, ok := limiter.(ratelimit.Runner); ok {
		go runner.Run(ctx)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middlewares.NewMetrics(reg)

	// Repositories and services
	debateRepo := db.NewDebateRepo(store)
	questionRepo := db.NewQuestionRepo(store)
	voting := services.NewVotingService(debateRepo, db.NewVoteRepo(store), hub)
	debates := services.NewDebateService(debateRepo, voting)
	auth := services.NewAdminAuthService(db.NewAdminRepo(store), tokens, services.SuperAdminCredentials{
		Username: cfg.SuperAdmin.Username,
		Password: cfg.SuperAdmin.Password,
	})
	errorLogs := services.NewErrorLogService(db.NewErrorLogRepo(store))
	salt := cfg.Security.IPHashSalt

	router := routes.NewRouter(routes.Deps{
		Debate: &controllers.DebateController{
			Debates:  debates,
			Voting:   voting,
			Opinions: services.NewOpinionService(debateRepo, hub),
			Hub:      hub,
			Metrics:  metrics,
			Salt:     salt,
		},
		Survey: &controllers.SurveyController{
			Surveys:      services.NewSurveyService(db.NewSurveyRepo(store), db.NewResponseRepo(store), tokens),
			Salt:         salt,
			CookieSecure: cfg.Server.CookieSecure,
		},
		Question: &controllers.QuestionController{
			Questions: services.NewQuestionService(questionRepo),
			Comments:  services.NewCommentService(questionRepo, db.NewCommentRepo(store)),
			Salt:      salt,
		},
		Board: &controllers.BoardController{
			Requests:  services.NewRequestService(db.NewRequestRepo(store)),
			Guestbook: services.NewGuestbookService(db.NewGuestbookRepo(store)),
		},
		Admin: &controllers.AdminController{
			Auth:         auth,
			ErrorLogs:    errorLogs,
			Debates:      debates,
			CookieSecure: cfg.Server.CookieSecure,
		},
		Auth:           auth,
		Enforcer:       enforcer,
		Limiter:        limiter,
		Metrics:        metrics,
		ErrorLog:       errorLogs,
		Health:         health,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Salt:           salt,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
