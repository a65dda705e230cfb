package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"campustrade/pkg/domain/model"
	"campustrade/pkg/domain/service"
	"campustrade/pkg/infrastructure/messaging"
	"campustrade/pkg/infrastructure/metrics"
	"campustrade/pkg/infrastructure/mysql"
	"campustrade/pkg/infrastructure/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	app := &cli.App{
		Name:  appID,
		Usage: "campus second-hand marketplace order core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional dotenv file read before the environment"},
		},
		Commands: []*cli.Command{
			{
				Name:  "service",
				Usage: "serve the HTTP API, the gRPC health service and the stale order sweeper",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "skip-migrations", Usage: "do not apply database migrations on start"},
				},
				Action: runService,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "down", Usage: "roll back this many migrations instead"},
				},
				Action: runMigrate,
			},
			{
				Name:   "sweep",
				Usage:  "cancel orders left pending for longer than the configured TTL and exit",
				Action: runSweep,
			},
			{
				Name:  "healthcheck",
				Usage: "query the gRPC health service of a running instance",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "address of the gRPC health service"},
				},
				Action: runHealthcheck,
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for a user, for local testing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.DurationFlag{Name: "ttl", Value: time.Hour},
				},
				Action: runToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("campustrade failed")
	}
}

func setup(c *cli.Context) (*config, log.FieldLogger, error) {
	cfg, err := loadConfig(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	return cfg, log.WithField("app", appID), nil
}

func runService(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	if err := cfg.validateService(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if !c.Bool("skip-migrations") {
		if err := mysql.Migrate(cfg.database(), 0, logger); err != nil {
			return err
		}
	}
	db, err := mysql.Open(ctx, cfg.database())
	if err != nil {
		return err
	}
	defer db.Close()

	notifier, err := messaging.New(cfg.messaging(), logger)
	if err != nil {
		return err
	}
	defer notifier.Close()

	m := metrics.NewServerMetrics(nil)
	queue := messaging.NewAsyncDispatcher(m.InstrumentDispatcher(notifier), cfg.NotifierQueueSize, logger)
	services := newServices(mysql.NewUnitOfWork(db, logger), cfg.creditPolicy(), queue, logger)
	health := transport.NewHealthChecker(db, logger)
	sweeper := service.NewOrderSweeper(services.Orders, cfg.PendingOrderTTL, cfg.SweepInterval, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           transport.Router(services, transport.NewAuthenticator(cfg.JWTSecret), health, m, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := health.GRPCServer()
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.GRPCAddress)
	}

	killSignalChan := getKillSignalChan()
	g, gctx := errgroup.WithContext(ctx)

	// The queue outlives the HTTP server so events of draining requests are still published.
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()

	g.Go(func() error {
		logger.WithField("url", cfg.HTTPAddress).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("url", cfg.GRPCAddress).Info("Starting health service")
		return errors.Wrap(grpcSrv.Serve(lis), "grpc health server")
	})
	g.Go(func() error { return queue.Run(queueCtx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error { return health.Run(gctx, cfg.HealthInterval) })
	g.Go(func() error {
		waitForKillSignalChan(gctx, killSignalChan, logger)
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		defer stopQueue()
		grpcSrv.GracefulStop()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMigrate(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	return mysql.Migrate(cfg.database(), c.Int("down"), logger)
}

func runSweep(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	db, err := mysql.Open(c.Context, cfg.database())
	if err != nil {
		return err
	}
	defer db.Close()

	notifier, err := messaging.New(cfg.messaging(), logger)
	if err != nil {
		return err
	}
	defer notifier.Close()

	services := newServices(mysql.NewUnitOfWork(db, logger), cfg.creditPolicy(), notifier, logger)
	expired := service.NewOrderSweeper(services.Orders, cfg.PendingOrderTTL, cfg.SweepInterval, logger).SweepOnce(c.Context)
	logger.WithField("expired", expired).Info("sweep finished")
	return nil
}

func runHealthcheck(c *cli.Context) error {
	addr := c.String("addr")
	if addr == "" {
		cfg, _, err := setup(c)
		if err != nil {
			return err
		}
		addr = cfg.GRPCAddress
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()
	out, err := transport.CheckRemoteHealth(ctx, addr)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

func runToken(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}
	if err := cfg.validateService(); err != nil {
		return err
	}
	userID, err := uuid.Parse(c.String("user"))
	if err != nil {
		return errors.Wrap(err, "invalid user id")
	}

	token, err := transport.NewAuthenticator(cfg.JWTSecret).Issue(userID, c.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}

func newServices(uow model.UnitOfWork, policy service.CreditPolicy, dispatcher service.EventDispatcher, logger log.FieldLogger) transport.Services {
	inventory := service.NewInventoryLedger()
	credit := service.NewCreditLedger(uow, policy, dispatcher, logger)
	return transport.Services{
		Orders:      service.NewOrderService(uow, inventory, credit, dispatcher, logger),
		Evaluations: service.NewEvaluationService(uow, credit, dispatcher, logger),
		Returns:     service.NewReturnRequestService(uow, inventory, dispatcher, logger),
		Credit:      credit,
	}
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignalChan(ctx context.Context, killSignalChan <-chan os.Signal, logger log.FieldLogger) {
	select {
	case killSignal := <-killSignalChan:
		switch killSignal {
		case os.Interrupt:
			logger.Info("Got SIGINT...")
		case syscall.SIGTERM:
			logger.Info("Got SIGTERM...")
		}
	case <-ctx.Done():
	}
}
