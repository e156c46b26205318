// Command seeder populates the database with a demo organization: users,
// a machine lineup, and a spread of issues across statuses. It is intended
// to be run offline, not as part of the main server.
//
// Flags:
//
//	--dry-run        report what would be written without touching the DB
//	--seeder-config  path to seeder YAML config file
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/comment"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/issue"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/machine"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/organization"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/user"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/watcher"
	"github.com/pinpointhq/pinpoint-backend/internal/app"
	"github.com/pinpointhq/pinpoint-backend/internal/app/seeder"
	internalauth "github.com/pinpointhq/pinpoint-backend/internal/auth"
	"github.com/pinpointhq/pinpoint-backend/internal/config"
)

func main() {
	dryRunFlag := flag.Bool("dry-run", false, "report what would be written without touching the DB")
	seederConfigFlag := flag.String("seeder-config", "", "path to seeder YAML config file")
	flag.Parse()

	// Load app config (for DB connection).
	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logger := app.NewLogger(appCfg.Log)

	seederCfg, err := seeder.LoadConfig(*seederConfigFlag)
	if err != nil {
		logger.Error("load seeder config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dryRunFlag {
		seederCfg.DryRun = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, appCfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	pipeline := seeder.NewPipeline(
		logger,
		organization.New(pool),
		user.New(pool),
		machine.New(pool),
		issue.New(pool),
		comment.New(pool),
		watcher.New(pool),
		internalauth.NewHasher(appCfg.Auth.BcryptCost),
	)

	if err := pipeline.Run(ctx, seederCfg); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
