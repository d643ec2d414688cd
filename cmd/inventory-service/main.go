package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/profitory/internal/config"
	"github.com/MikeMC777/profitory/internal/confirm"
	_ "github.com/MikeMC777/profitory/internal/docs"
	"github.com/MikeMC777/profitory/internal/httpx"
	"github.com/MikeMC777/profitory/internal/product"
	"github.com/MikeMC777/profitory/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("[config] invalid environment")
	}
	log := config.NewLogger(cfg)
	cfg.Report(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slot, closeSlot, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		log.WithError(err).Fatal("[storage] open slot")
	}
	defer closeSlot()

	store := product.NewStore(slot, cfg.StorageKey, log)
	wipes := confirm.New(cfg.WipeTTL)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))
	registerRoutes(r, store, wipes, newLayoutState())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatalf("[grpc] listen %s", cfg.GRPCAddr)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := store.Load(gctx); err != nil {
			return errors.Wrap(err, "load inventory")
		}
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return nil
	})
	g.Go(func() error {
		log.Infof("inventory-service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		log.Infof("[grpc] health listening on %s", cfg.GRPCAddr)
		return errors.Wrap(gs.Serve(lis), "grpc server")
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hs.Shutdown()
		gs.GracefulStop()
		err := srv.Shutdown(shutdownCtx)
		if cerr := store.Close(shutdownCtx); cerr != nil && err == nil {
			err = cerr
		}
		log.Info("inventory-service stopped")
		return err
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("inventory-service exited")
	}
}
