package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/maxviazov/author-feed-service/internal/auth"
	"github.com/maxviazov/author-feed-service/internal/cache"
	"github.com/maxviazov/author-feed-service/internal/config"
	"github.com/maxviazov/author-feed-service/internal/handler"
	"github.com/maxviazov/author-feed-service/internal/i18n"
	"github.com/maxviazov/author-feed-service/internal/middleware"
	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/repository"
	"github.com/maxviazov/author-feed-service/internal/repository/memory"
	"github.com/maxviazov/author-feed-service/internal/repository/postgres"
	"github.com/maxviazov/author-feed-service/internal/service"
	"github.com/maxviazov/author-feed-service/internal/task"
)

type serveOptions struct {
	inMemory bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap(root)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.inMemory, "memory", false, "use the in-process store with demo data instead of PostgreSQL")
	return cmd
}

// stores groups the repository implementations the services are built on.
type stores struct {
	authors repository.AuthorRepository
	follows repository.FollowRepository
	posts   repository.PostRepository
	tx      repository.TxManager
	pinger  repository.Pinger
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger, inMemory bool) (stores, error) {
	if inMemory {
		s := memory.NewStore()
		if err := seedDemo(ctx, s, log); err != nil {
			return stores{}, err
		}
		return stores{
			authors: s.Authors(), follows: s.Follows(), posts: s.Posts(), tx: s.Tx(),
			pinger: s, close: func() {},
		}, nil
	}
	db, err := repository.New(ctx, cfg, &log)
	if err != nil {
		return stores{}, fmt.Errorf("postgres connection failed: %w", err)
	}
	pool := db.Pool()
	return stores{
		authors: postgres.NewAuthorRepository(pool),
		follows: postgres.NewFollowRepository(pool),
		posts:   postgres.NewPostRepository(pool),
		tx:      postgres.NewTxManager(pool),
		pinger:  postgres.NewPinger(pool),
		close:   db.Close,
	}, nil
}

// seedDemo gives an in-memory run two authors and a post so every route has data.
func seedDemo(ctx context.Context, s *memory.Store, log zerolog.Logger) error {
	writer, err := s.Authors().Create(ctx, model.Author{Username: "ada", DisplayName: "Ada", Bio: "writes about Go"})
	if err != nil {
		return err
	}
	reader, err := s.Authors().Create(ctx, model.Author{Username: "grace", DisplayName: "Grace"})
	if err != nil {
		return err
	}
	if _, err := s.Posts().Create(ctx, model.Post{AuthorID: writer.ID, Title: "Hello, feed", Excerpt: "<p>first post</p>"}); err != nil {
		return err
	}
	log.Info().
		Str("writer_id", writer.ID.String()).
		Str("reader_id", reader.ID.String()).
		Msg("in-memory store seeded; mint tokens with `author-feed token --author <id>`")
	return nil
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts *serveOptions) error {
	st, err := openStores(ctx, cfg, log, opts.inMemory)
	if err != nil {
		return err
	}
	defer st.close()

	redisClient := cache.NewRedisClient(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}
	c := cache.NewWithFallback(ctx, redisClient, log)
	if m, ok := c.(*cache.Memory); ok {
		defer m.Close()
	}
	keys := cache.Keys{Prefix: cfg.Redis.KeyPrefix}

	tr, err := i18n.New(handler.BindingValidator())
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}
	log.Debug().Strs("locales", tr.Locales()).Msg("translations loaded")
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	follows := service.NewFollowService(st.authors, st.follows, st.tx, c, keys, tr, log)
	posts := service.NewPostService(st.posts, st.authors, c, keys, log)
	authors := service.NewAuthorService(st.authors, log)
	engagement := service.NewEngagementService(st.posts, c, keys, log)

	limiter := middleware.NewRateLimiter(cfg.HTTP.FollowRatePerMinute, cfg.HTTP.FollowBurst)
	defer limiter.Stop()

	if cfg.App.Env == "prod" || cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.Metrics(),
	)
	handler.Register(r, handler.Deps{
		DB:            st.pinger,
		Cache:         c,
		Posts:         posts,
		Authors:       authors,
		Follows:       follows,
		Auth:          middleware.NewAuth(issuer),
		Translator:    tr,
		FollowLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("cache", string(cache.KindOf(c))).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Scheduler.Enabled {
		sched := task.NewScheduler(log)
		if err := sched.RegisterEngagementJobs(cfg.Scheduler, engagement); err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// flush whatever views were buffered since the last scheduled sync
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if n, err := engagement.SyncViewCounts(flushCtx); err != nil {
		log.Warn().Err(err).Msg("final view sync failed")
	} else if n > 0 {
		log.Info().Int("posts", n).Msg("final view sync done")
	}
	log.Info().Msg("service stopped")
	return nil
}
