package main

import (
	"context"
	"fmt"

	"github.com/pario-ai/rex/pkg/brain"
	"github.com/pario-ai/rex/pkg/config"
	"github.com/pario-ai/rex/pkg/credential"
	"github.com/pario-ai/rex/pkg/log"
	"github.com/pario-ai/rex/pkg/orchestrator"
	"github.com/pario-ai/rex/pkg/remote"
	"github.com/pario-ai/rex/pkg/storage"
	"github.com/pario-ai/rex/pkg/storage/file"
	"github.com/pario-ai/rex/pkg/storage/memory"
	redisstore "github.com/pario-ai/rex/pkg/storage/redis"
	"github.com/pario-ai/rex/pkg/storage/sqlite"
	"github.com/pario-ai/rex/pkg/tracker"
)

// app is everything a command needs, opened once per invocation.
type app struct {
	cfg     *config.Config
	blobs   storage.BlobStore
	brain   *brain.Store
	creds   *credential.Store
	tracker *tracker.SQLiteTracker
	orch    *orchestrator.Orchestrator
}

// openApp wires storage, brain, credential, tracker and remote client.
// Storage failures degrade to an in-memory session instead of aborting.
func openApp(ctx context.Context, cfg *config.Config) *app {
	blobs, err := openBlobs(ctx, cfg.Storage)
	if err != nil {
		log.Warnw("storage unavailable, continuing in memory only", "backend", cfg.Storage.Backend, "error", err)
		blobs = memory.New()
	}

	b, err := brain.Load(ctx, blobs)
	if err != nil {
		log.Warnw("brain could not be loaded, starting empty", "error", err)
	}
	creds, err := credential.Load(ctx, blobs, cfg.Remote.DefaultModel)
	if err != nil {
		log.Warnw("credential could not be loaded, using defaults", "error", err)
	}

	a := &app{cfg: cfg, blobs: blobs, brain: b, creds: creds}
	session := orchestrator.Session{
		Brain:       b,
		Credentials: creds,
		Remote:      newRemote(cfg.Remote),
	}
	if cfg.Tracker.Enabled {
		tr, err := tracker.New(cfg.Tracker.DBPath)
		if err != nil {
			log.Warnw("usage tracking disabled", "error", err)
		} else {
			a.tracker = tr
			session.Tracker = tr
		}
	}
	a.orch = orchestrator.New(session)
	return a
}

func (a *app) Close() {
	if a.tracker != nil {
		_ = a.tracker.Close()
	}
	_ = a.blobs.Close()
}

func openBlobs(ctx context.Context, sc config.StorageConfig) (storage.BlobStore, error) {
	switch sc.Backend {
	case config.BackendSQLite:
		return sqlite.New(sc.Path)
	case config.BackendFile:
		return file.New(sc.Path)
	case config.BackendRedis:
		return redisstore.New(ctx, redisstore.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Prefix:   sc.Redis.Prefix,
		})
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}

func newRemote(rc config.RemoteConfig) *remote.Client {
	temperature := rc.Temperature
	return remote.New(remote.Options{
		URL:         rc.URL,
		Source:      rc.Source,
		MaxTokens:   rc.MaxTokens,
		Temperature: &temperature,
		Timeout:     rc.Timeout,
	})
}
