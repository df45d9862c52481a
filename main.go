// Command taskboard serves and edits a single-user task board.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/config"
	"taskboard/domain"
	"taskboard/storage"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs once the config is resolved.
type app struct {
	cfg    config.Config
	log    *log.Logger
	store  *storage.Storage
	redis  *redis.Client
	closer func() error
}

func newRootCmd() *cobra.Command {
	var (
		storeFlag string
		dataFlag  string
		a         = &app{}
	)

	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Single-user task board with local persistence",
		Long: `taskboard keeps a three-column board (To Do, In Progress, Done) in a
local store and edits it from the command line or over HTTP.

Examples:
  # Show the board
  taskboard show

  # Add a task and move it along
  taskboard add todo "Write tests" --priority high
  taskboard move 1 done

  # Serve the HTTP API backed by SQLite
  STORE=sqlite taskboard serve`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("store") {
				cfg.Store = storeFlag
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataFlag
			}
			cfg = cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.open(cfg)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&storeFlag, "store", config.StoreFile, "snapshot store: file, sqlite or redis")
	root.PersistentFlags().StringVar(&dataFlag, "data-dir", ".taskboard", "directory of the file and sqlite stores")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newMoveCmd(a))
	root.AddCommand(newRmCmd(a))
	return root
}

func (a *app) open(cfg config.Config) error {
	a.cfg = cfg
	a.log = log.New()
	if cfg.Debug {
		a.log.SetLevel(log.DebugLevel)
	}

	var backend storage.Backend
	switch cfg.Store {
	case config.StoreFile:
		f, err := storage.NewFile(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("file store: %w", err)
		}
		backend = f
	case config.StoreSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return fmt.Errorf("sqlite store: %w", err)
		}
		backend = db
		a.closer = db.Close
	case config.StoreRedis:
		opts, err := storage.ParseRedisConnection(cfg.RedisConn)
		if err != nil {
			return fmt.Errorf("redis store: %w", err)
		}
		a.redis = redis.NewClient(opts)
		backend = storage.NewRedis(a.redis)
		a.closer = a.redis.Close
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	a.store = storage.New(backend, cfg.StateKey, a.log)
	a.log.WithFields(log.Fields{
		"store": backend.Name(),
		"key":   cfg.StateKey,
		"dir":   filepath.Clean(cfg.DataDir),
	}).Debug("store opened")
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer()
	a.closer = nil
	return err
}

func (a *app) ids() domain.IDSource {
	if a.cfg.IDSource == config.IDSourceUUID {
		return domain.UUIDIDs{}
	}
	return domain.NewClockIDs()
}

// save writes b synchronously; one-shot commands exit right after.
func (a *app) save(ctx context.Context, b domain.Board) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.SaveTimeout)
	defer cancel()
	return a.store.Save(ctx, b)
}

const shutdownTimeout = 10 * time.Second
