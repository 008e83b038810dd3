package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/errandly/errandly/internal/api"
	"github.com/errandly/errandly/internal/blob"
	"github.com/errandly/errandly/internal/config"
	"github.com/errandly/errandly/internal/dao"
	"github.com/errandly/errandly/internal/lock"
	"github.com/errandly/errandly/internal/logging"
	"github.com/errandly/errandly/internal/migrate"
	"github.com/errandly/errandly/internal/payment"
	"github.com/errandly/errandly/internal/service"
)

var (
	Version = "v0.1.0"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	migrateFlag := flag.Bool("migrate", true, "run SQL migrations on startup")
	migrationsDir := flag.String("migrations", "migrations", "directory containing *.sql migration files")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer func() { _ = logging.L().Sync() }()

	gdb, err := dao.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("unwrap sql db: %v", err)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifeSec) * time.Second)

	if err := dao.Ping(gdb, 5, time.Second*2); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if *migrateFlag {
		abs, _ := filepath.Abs(*migrationsDir)
		if err := migrate.Run(context.Background(), sqlDB, abs); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		log.Printf("migrations applied from %s", abs)
	}

	userDao := dao.NewUserDao(gdb)
	taskDao := dao.NewTaskDao(gdb)
	messageDao := dao.NewMessageDao(gdb)

	gateway := payment.NewStripeGateway(cfg.Payment.Stripe)

	blobs, err := blob.NewS3Store(context.Background(), cfg.Blob)
	if err != nil {
		log.Fatalf("init blob store: %v", err)
	}

	users := service.NewUserService(userDao)
	tasks := service.NewTaskService(taskDao, userDao, gateway, cfg.Payment.Currency)
	messages := service.NewMessageService(messageDao, taskDao)

	var locker service.Locker = service.NoopLocker{}
	if cfg.SweepLock.Enabled {
		locker = lock.NewRedisLocker(cfg.Redis, cfg.SweepLock.Key, cfg.SweepLock.TTL.Std())
	}
	sweeper := service.NewSweeper(cfg.Sweeper.Std(), taskDao, locker)
	sweeper.Start()
	defer sweeper.Stop()

	router := api.NewRouter(&api.Server{
		Users:    users,
		Tasks:    tasks,
		Messages: messages,
		Blobs:    blobs,
		Version:  Version,
	})

	srv := &http.Server{Addr: cfg.Server.Address(), Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("errandly server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	log.Println("server exited")
}
