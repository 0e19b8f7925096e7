package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/ticketbooking/api"
	"github.com/Domenick1991/ticketbooking/config"
	ticketsapi "github.com/Domenick1991/ticketbooking/internal/api/tickets_service_api"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	log        *logrus.Entry
}

// Run serves HTTP and gRPC until ctx is cancelled or either server fails,
// then shuts both down.
func Run(ctx context.Context, cfg *config.Config, log *logrus.Entry, catalogSvc catalog.CatalogUseCase, bookingSvc booking.BookingUseCase) error {
	s := NewServers(cfg, log, catalogSvc, bookingSvc)

	grpcLis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTP.Address)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTP.Address, err)
	}

	shutdownTimeout := time.Duration(cfg.HTTP.ShutdownSeconds) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return s.Serve(ctx, httpLis, grpcLis, shutdownTimeout)
}

func NewServers(cfg *config.Config, log *logrus.Entry, catalogSvc catalog.CatalogUseCase, bookingSvc booking.BookingUseCase) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(ticketsapi.UnaryLogger(log)))
	ticketsapi.RegisterTicketServiceServer(grpcSrv, ticketsapi.NewServer(catalogSvc, bookingSvc))

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{CORSOrigins: cfg.HTTP.CORSOrigins, Log: log}, catalogSvc, bookingSvc)

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (s *Servers) Serve(ctx context.Context, httpLis, grpcLis net.Listener, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", grpcLis.Addr().String()).Info("grpc server listening")
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.log.WithField("addr", httpLis.Addr().String()).Info("http server listening")
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		err := s.httpServer.Shutdown(shutdownCtx)
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			s.grpcServer.Stop()
		}
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
