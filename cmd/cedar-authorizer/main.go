// Command cedar-authorizer serves the three decision endpoints of spec.md
// §4.7 (/authorize, /admit, /validate) plus /healthz over TLS, backed by a
// tiered Cedar policy store (spec.md §4.5).
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/certs"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/constants"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/engine"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/metrics"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/policystore"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/webhook"
)

const selfSignedDNSName = "cedar-authorizer.cedar-authorizer.svc"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port            int
		policyDir       string
		refreshInterval time.Duration
		schemaPath      string
		tlsCertPath     string
		tlsKeyPath      string
		enableMetrics   bool
	)

	cmd := &cobra.Command{
		Use:   "cedar-authorizer",
		Short: "Serves Cedar-policy SubjectAccessReview and AdmissionReview decisions over TLS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runConfig{
				port:            port,
				policyDir:       policyDir,
				refreshInterval: refreshInterval,
				schemaPath:      schemaPath,
				tlsCertPath:     tlsCertPath,
				tlsKeyPath:      tlsKeyPath,
				enableMetrics:   enableMetrics,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", envInt(constants.EnvPort, constants.DefaultPort), "TCP port to listen on")
	cmd.Flags().StringVar(&policyDir, "policy-dir", envOr(constants.EnvPolicyDir, constants.DefaultPolicyDir), "directory DirectoryStore scans for .cedar files")
	cmd.Flags().DurationVar(&refreshInterval, "policy-refresh-interval", envDuration(constants.EnvPolicyRefreshInterval, constants.DefaultPolicyRefreshInterval), "DirectoryStore background refresh period")
	cmd.Flags().StringVar(&schemaPath, "cedar-schema", os.Getenv(constants.EnvCedarSchema), "path to a Cedar schema JSON file consumed by /validate")
	cmd.Flags().StringVar(&tlsCertPath, "tls-cert", os.Getenv(constants.EnvTLSCertPath), "path to a PEM-encoded TLS certificate; a self-signed one is generated when empty")
	cmd.Flags().StringVar(&tlsKeyPath, "tls-key", os.Getenv(constants.EnvTLSKeyPath), "path to the TLS certificate's PEM-encoded private key")
	cmd.Flags().BoolVar(&enableMetrics, "enable-metrics", false, "export OpenTelemetry metrics via OTLP gRPC")

	return cmd
}

type runConfig struct {
	port                    int
	policyDir               string
	refreshInterval         time.Duration
	schemaPath              string
	tlsCertPath, tlsKeyPath string
	enableMetrics           bool
}

func run(ctx context.Context, cfg runConfig) error {
	zapLog, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("cedar-authorizer: building logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()
	log := zapr.NewLogger(zapLog).WithName("cedar-authorizer")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.Recorder{}
	if cfg.enableMetrics {
		shutdown, err := metrics.New(ctx)
		if err != nil {
			return fmt.Errorf("cedar-authorizer: starting metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.MetricsShutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error(err, "failed to flush metrics on shutdown")
			}
		}()
		recorder = metrics.NewRecorder()
		log.Info("metrics enabled")
	}

	directoryStore, err := policystore.NewDirectoryStore(cfg.policyDir, cfg.refreshInterval, log)
	if err != nil {
		return fmt.Errorf("cedar-authorizer: starting policy directory store: %w", err)
	}
	defer directoryStore.Close()

	tiered := policystore.NewTieredPolicyStore(directoryStore)

	var schema []byte
	if cfg.schemaPath != "" {
		schema, err = os.ReadFile(cfg.schemaPath)
		if err != nil {
			return fmt.Errorf("cedar-authorizer: reading cedar schema: %w", err)
		}
		if _, err := engine.ParseSchema(schema); err != nil {
			return fmt.Errorf("cedar-authorizer: parsing cedar schema: %w", err)
		}
	}

	handler := webhook.NewHandler(tiered, schema, log, recorder)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	cert, err := loadOrGenerateCert(cfg.tlsCertPath, cfg.tlsKeyPath)
	if err != nil {
		return fmt.Errorf("cedar-authorizer: loading TLS certificate: %w", err)
	}

	server := &http.Server{
		Addr:      fmt.Sprintf(":%d", cfg.port),
		Handler:   mux,
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("cedar-authorizer: graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// loadOrGenerateCert loads a PEM cert/key pair from disk, or mints a
// short-lived self-signed one via internal/certs when no path is
// configured (local/dev bootstrap; spec.md §6 assumes TLS termination is
// this process's own responsibility, matching a raw admission webhook
// server rather than a controller-runtime-managed one).
func loadOrGenerateCert(certPath, keyPath string) (tls.Certificate, error) {
	if certPath != "" && keyPath != "" {
		return tls.LoadX509KeyPair(certPath, keyPath)
	}

	now := time.Now()
	caCertPEM, caKeyPEM, err := certs.GenerateCA(now.Add(-time.Hour), now.Add(24*time.Hour))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generating self-signed ca: %w", err)
	}
	certPEM, keyPEM, err := certs.GenerateCert(caCertPEM, caKeyPEM, now.Add(-time.Hour), now.Add(24*time.Hour), selfSignedDNSName)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generating self-signed certificate: %w", err)
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
