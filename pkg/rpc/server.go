package rpc

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/log"
	"github.com/iowarp/context-runtime/pkg/security"
)

// Server exposes an admin.Service's control-plane surface over gRPC with
// mTLS, so a remote node can Heartbeat, forward a task whose PoolQuery
// names this node, or drive migration/monitoring from the CLI.
type Server struct {
	grpc    *grpc.Server
	handler *adminHandler
}

// NewServer builds a Server bound to svc/fabric. It loads this node's
// certificate and the cluster CA from certDir (security.GetCertDir's
// layout) and requires, but does not yet verify per-RPC, a client
// certificate -- every caller is expected to already hold one minted by
// the cluster's CertAuthority.
func NewServer(svc *admin.Service, fabric *ipc.Fabric, certDir string) (*Server, error) {
	if !security.CertExists(certDir) {
		return nil, fmt.Errorf("rpc: node certificate not found at %s", certDir)
	}

	cert, err := security.LoadCertFromFile(certDir)
	if err != nil {
		return nil, fmt.Errorf("rpc: load node certificate: %w", err)
	}
	caCert, err := security.LoadCACertFromFile(certDir)
	if err != nil {
		return nil, fmt.Errorf("rpc: load CA certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	certPool.AddCert(caCert)

	tlsConfig := &tls.Config{
		ClientAuth:   tls.RequireAndVerifyClientCert,
		Certificates: []tls.Certificate{*cert},
		ClientCAs:    certPool,
		MinVersion:   tls.VersionTLS13,
	}

	grpcServer := grpc.NewServer(grpc.Creds(credentials.NewTLS(tlsConfig)))
	handler := &adminHandler{svc: svc, fabric: fabric}
	grpcServer.RegisterService(&adminServiceDesc, handler)

	return &Server{grpc: grpcServer, handler: handler}, nil
}

// Serve blocks accepting connections on addr until Stop is called.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	return s.ServeListener(lis)
}

// ServeListener blocks serving on an already-bound listener, letting
// callers (tests, or a CLI that wants the OS-assigned port) learn the
// real address before Serve starts accepting connections.
func (s *Server) ServeListener(lis net.Listener) error {
	log.WithComponent("rpc").Info().Str("addr", lis.Addr().String()).Msg("admin transport listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight calls and shuts the server down.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
