package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const shutdownTimeout = 2 * time.Second

// Server handles app's grpc requests.
type Server struct {
	handler ContributorsServer
	address string
	l       logrus.FieldLogger
}

// NewServer creates new Server instance.
func NewServer(handler ContributorsServer, address string, l logrus.FieldLogger) *Server {
	return &Server{
		handler: handler,
		address: address,
		l:       l,
	}
}

// Run runs the grpc server. Waits until ctx is done, then gracefully stops.
// Streams still running after shutdown timeout are closed.
// Returns error when failing to open tcp listener.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("starting tcp listener: %w", err)
	}

	return s.serve(ctx, lis)
}

func (s *Server) serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.logUnary),
		grpc.ChainStreamInterceptor(s.logStream),
	)
	srv.RegisterService(&ServiceDesc, s.handler)

	errc := make(chan error, 1)
	go func() {
		s.l.Infof("listening on %s", lis.Addr())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.l.Info("shutting down")
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		srv.Stop()
		<-stopped
	}

	return nil
}

func (s *Server) logUnary(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logCall(info.FullMethod, start, err)

	return resp, err
}

func (s *Server) logStream(
	srv interface{},
	ss grpc.ServerStream,
	info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	start := time.Now()
	err := handler(srv, ss)
	s.logCall(info.FullMethod, start, err)

	return err
}

func (s *Server) logCall(method string, start time.Time, err error) {
	s.l.WithFields(logrus.Fields{
		"method":   method,
		"code":     status.Code(err).String(),
		"duration": time.Since(start),
	}).Debug("grpc request")
}
