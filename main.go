package main

import (
	"LeadIntake/impl/core"
	"LeadIntake/internal/campaign"
	"LeadIntake/internal/config"
	"LeadIntake/internal/database"
	"LeadIntake/internal/http-server/api"
	"LeadIntake/internal/lib/logger"
	"LeadIntake/internal/lib/sl"
	"LeadIntake/internal/service/mailer"
	"LeadIntake/internal/service/notify"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting lead intake", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	registry, err := campaign.NewRegistry(conf.CampaignStores())
	if err != nil {
		lg.Error("campaign registry", sl.Err(err))
		os.Exit(1)
	}
	lg.With(
		slog.Bool("multi", conf.Campaigns.Multi),
		slog.String("campaigns", strings.Join(registry.IDs(), ",")),
	).Info("campaign registry initialized")

	db := repository.NewMongoClient(conf.Mongo.Uri, registry, time.Duration(conf.Mongo.Timeout)*time.Second, lg)
	lg.With(
		sl.Secret("uri", conf.Mongo.Uri),
	).Info("mongo router initialized")

	sender, err := mailer.New(conf, lg)
	if err != nil {
		lg.Error("mail sender", sl.Err(err))
		os.Exit(1)
	}
	lg.With(
		slog.String("provider", conf.Mail.Provider),
		slog.String("from", conf.Mail.From),
		sl.Secret("api_key", conf.Mail.ApiKey),
	).Info("mail sender initialized")

	handler := core.New(lg)
	handler.SetRegistry(registry)
	handler.SetRepository(db)
	handler.SetDispatcher(notify.NewDispatcher(sender, conf.Mail.Concurrency, lg))
	handler.SetMultiCampaign(conf.Campaigns.Multi, conf.Campaigns.Default)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler).Run(ctx)
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db.Close(closeCtx)
	cancel()
	if err != nil {
		lg.Error("server start", sl.Err(err))
		os.Exit(1)
	}
	lg.Info("service stopped")
}
