package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/database"
	"github.com/qs3c/notemeet_server/internal/pkg/logger"
	"github.com/qs3c/notemeet_server/internal/repository"
	"github.com/qs3c/notemeet_server/internal/service"
)

var (
	dryRun  = flag.Bool("dry-run", false, "List lapsed subscriptions without changing them")
	timeout = flag.Duration("timeout", time.Minute, "Maximum time to spend on the sweep")
)

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	subs := service.NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		repository.NewUserRepository(db),
		repository.NewPlanRepository(db),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *dryRun {
		lapsed, err := subs.ListLapsed(ctx)
		if err != nil {
			log.Error("failed to list lapsed subscriptions", "error", err)
			os.Exit(1)
		}
		for _, s := range lapsed {
			log.Info("would expire subscription",
				"subscription_id", s.ID,
				"user_id", s.UserID,
				"plan_id", s.PlanID,
				"expires_at", s.ExpiresAt,
			)
		}
		log.Info("dry run finished", "count", len(lapsed))
		return
	}

	n, err := subs.ExpireLapsed(ctx)
	if err != nil {
		log.Error("sweep failed", "error", err)
		os.Exit(1)
	}
	log.Info("sweep finished", "expired", n)
}
