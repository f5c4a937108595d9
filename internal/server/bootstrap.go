package server

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/database"
	"github.com/yanote/notes/backend/go-services/internal/note/repository"
	"github.com/yanote/notes/backend/go-services/internal/note/service"
	"github.com/yanote/notes/backend/go-services/internal/oidc"
	"github.com/yanote/notes/backend/go-services/internal/sessions"
	"github.com/yanote/notes/backend/go-services/internal/storage"
	"github.com/yanote/notes/backend/go-services/internal/tokens"
	"github.com/yanote/notes/backend/go-services/internal/users"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

const mongoConnectAttempts = 5

// App is a fully wired set of Deps plus the connections that must be closed on shutdown.
type App struct {
	Deps
	closers []func(context.Context) error
}

// Close releases database and cache connections in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}
}

// Bootstrap connects the backends selected by cfg and builds the services on top of them.
// Redis, MinIO and Keycloak are optional: when unreachable the app starts without them and
// /ready reports the gap.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Deps: Deps{
		Config:         cfg,
		AccessVerifier: tokens.NewVerifier(cfg.JWT.Secret),
	}}

	app.Redis = connectRedis(ctx, cfg)
	if app.Redis != nil {
		app.closers = append(app.closers, func(context.Context) error { return app.Redis.Close() })
	}
	app.Blacklist = sessions.NewBlacklist(app.Redis)

	var store service.ObjectStore
	if s, err := storage.NewMinIOStorage(ctx, cfg.MinIO); err == nil {
		store = s
		logger.Infof("note exports enabled (bucket=%s)", cfg.MinIO.Bucket)
	} else {
		logger.Warnf("note exports disabled: %v", err)
	}

	var sessionRepo sessions.Repository
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return db.Close() })
		if err := database.Migrate(ctx, db); err != nil {
			app.Close(ctx)
			return nil, err
		}
		app.Notes = service.NewPostgresService(db, store)
		// notes follow their author through ON DELETE CASCADE
		app.Users = users.NewService(users.NewPostgresUserRepository(db))
		app.StorePing = db.PingContext

	case config.BackendMongo:
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		app.closers = append(app.closers, client.Disconnect)
		mdb := client.Database(cfg.MongoDB.Database)
		if app.Notes, err = service.NewMongoService(ctx, mdb.Collection("notes"), store); err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("notes collection: %w", err)
		}
		app.Users = users.NewService(users.NewMongoUserRepository(mdb.Collection("users")))
		app.Users.OnDelete(deleteNotesOf(app.Notes))
		app.StorePing = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		if app.Redis == nil {
			if sessionRepo, err = sessions.NewMongoRepository(ctx, mdb.Collection("sessions")); err != nil {
				app.Close(ctx)
				return nil, fmt.Errorf("sessions collection: %w", err)
			}
		}

	case config.BackendMemory:
		app.Notes = service.New(repository.NewMemoryRepo(), store)
		app.Users = users.NewService(users.NewMemoryUserRepository())
		app.Users.OnDelete(deleteNotesOf(app.Notes))

	default:
		app.Close(ctx)
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	switch {
	case app.Redis != nil:
		sessionRepo = sessions.NewRedisRepository(app.Redis, "session:")
		logger.Infof("using Redis for session storage")
	case sessionRepo == nil:
		logger.Warnf("no Redis or Mongo for sessions; refresh sessions are kept in memory")
		sessionRepo = sessions.NewMemoryRepository()
	}
	app.Sessions = sessions.NewService(sessionRepo)

	app.IDVerifier = idVerifier(ctx, cfg.Keycloak)
	logger.Infof("bootstrap: backend=%s redis=%v exports=%v oidc=%v", cfg.Backend, app.Redis != nil, store != nil, app.IDVerifier != nil)
	return app, nil
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	addr := cfg.RedisAddr()
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to Redis: %s", addr)
	return client
}

// idVerifier picks the id token verifier used at login: OIDC discovery against the realm,
// or the unsigned-token parser when ALLOW_INSECURE_TOKEN is set.
func idVerifier(ctx context.Context, kc config.KeycloakConfig) middleware.Verifier {
	if kc.AllowInsecure {
		logger.Warnf("enabling insecure OIDC verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	if kc.URL == "" || kc.Realm == "" || kc.ClientID == "" {
		logger.Warnf("Keycloak not configured; login is unavailable")
		return nil
	}
	ver, err := oidc.NewVerifier(ctx, kc.Issuer(), kc.ClientID)
	if err != nil {
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
		return nil
	}
	return ver
}

// deleteNotesOf cascades account deletion to notes on stores without foreign keys.
func deleteNotesOf(notes service.Service) users.DeleteHook {
	return func(ctx context.Context, userID string) error {
		removed, err := notes.DeleteByAuthor(ctx, userID)
		if err != nil {
			return err
		}
		logger.Infof("removed %d notes of user %s", removed, userID)
		return nil
	}
}
