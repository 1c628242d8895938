package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sealane/confidential-shipment-backend/attest"
	"github.com/sealane/confidential-shipment-backend/ccs"
	"github.com/sealane/confidential-shipment-backend/cmd/flags"
	"github.com/sealane/confidential-shipment-backend/httpserver"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/journal"
	"github.com/sealane/confidential-shipment-backend/shipment"
	"github.com/sealane/confidential-shipment-backend/vault"
	"github.com/urfave/cli/v2"
)

var serverFlags = []cli.Flag{
	flags.ListenAddrFlag,
	&cli.StringFlag{
		Name:  "ccs-mode",
		Value: "simulated",
		Usage: "confidential computation service to use: 'simulated' or 'remote'",
	},
	&cli.StringFlag{
		Name:  "ccs-seal-seed",
		Value: "",
		Usage: "hex-encoded 32-byte sealing key for the simulated engine",
	},
	&cli.StringFlag{
		Name:  "ccs-seal-shares-file",
		Value: "",
		Usage: "file with hex-encoded Shamir shares of the sealing key, one per line (alternative to ccs-seal-seed)",
	},
	&cli.StringFlag{
		Name:  "ccs-endpoints",
		Value: "",
		Usage: "comma-separated host:port list of remote CCS endpoints (required if ccs-mode is 'remote')",
	},
	&cli.StringFlag{
		Name:  "ccs-dns-srv",
		Value: "",
		Usage: "DNS SRV domain to discover remote CCS endpoints (alternative to ccs-endpoints)",
	},
	&cli.StringFlag{
		Name:  "ccs-resolver-addr",
		Value: "",
		Usage: "DNS resolver address for SRV discovery (default local stub resolver)",
	},
	&cli.StringFlag{
		Name:  "attest-provider",
		Value: "dummy",
		Usage: "attestation provider for trusted-input casts: 'dummy', 'dcap' or 'remote'",
	},
	&cli.StringFlag{
		Name:  "attest-sidecar-addr",
		Value: "",
		Usage: "address of the attestation sidecar (required if attest-provider is 'remote')",
	},
	&cli.StringSliceFlag{
		Name:  "journal-uri",
		Value: cli.NewStringSlice("log://"),
		Usage: "event journal sink URI, repeatable (log://, file://, s3://, ipfs://, vault://)",
	},
}

func main() {
	app := &cli.App{
		Name:  "shipment-server",
		Usage: "Serve the confidential shipment SLA API",
		Flags: append(serverFlags, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			logger := flags.SetupLogger(cCtx)

			compute, err := setupCompute(cCtx, logger)
			if err != nil {
				logger.Error("Failed to set up confidential computation service", "err", err)
				return err
			}

			sink, err := journal.NewFactory(logger).MultiSinkFor(cCtx.StringSlice("journal-uri"))
			if err != nil {
				logger.Error("Failed to set up event journal", "err", err)
				return err
			}

			svc := shipment.NewService(vault.New(compute, logger), sink, logger)
			handler := httpserver.NewHandler(svc, logger)

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupCompute builds the Confidential Computation Service from flags:
// either the in-process simulated engine (sealing key from seed or
// Shamir shares) or a client for remote engines (endpoints listed or
// DNS SRV discovered).
func setupCompute(cCtx *cli.Context, logger *slog.Logger) (interfaces.ConfidentialCompute, error) {
	switch cCtx.String("ccs-mode") {
	case "simulated":
		logger.Info("Using simulated confidential computation engine")

		sealKey, err := loadSealKey(cCtx)
		if err != nil {
			return nil, err
		}
		return ccs.NewSimulatedEngine(sealKey, logger)

	case "remote":
		endpoints := splitNonEmpty(cCtx.String("ccs-endpoints"))
		if domain := cCtx.String("ccs-dns-srv"); domain != "" {
			discovered, err := ccs.ResolveEndpoints(domain, cCtx.String("ccs-resolver-addr"))
			if err != nil {
				return nil, err
			}
			logger.Info("Discovered CCS endpoints via DNS SRV", "domain", domain, "count", len(discovered))
			endpoints = append(endpoints, discovered...)
		}
		if len(endpoints) == 0 {
			return nil, errors.New("ccs-endpoints or ccs-dns-srv is required for remote CCS")
		}

		provider, err := setupAttestProvider(cCtx)
		if err != nil {
			return nil, err
		}
		return ccs.NewRemoteService(endpoints, provider, logger)

	default:
		return nil, fmt.Errorf("invalid ccs-mode: %s", cCtx.String("ccs-mode"))
	}
}

func loadSealKey(cCtx *cli.Context) ([]byte, error) {
	seed := cCtx.String("ccs-seal-seed")
	sharesFile := cCtx.String("ccs-seal-shares-file")

	switch {
	case seed != "":
		return ccs.ParseSealKeyHex(seed)
	case sharesFile != "":
		data, err := os.ReadFile(sharesFile)
		if err != nil {
			return nil, fmt.Errorf("reading shares file: %w", err)
		}
		return ccs.CombineSealKey(splitLines(string(data)))
	default:
		return nil, errors.New("ccs-seal-seed or ccs-seal-shares-file is required for the simulated engine")
	}
}

func setupAttestProvider(cCtx *cli.Context) (attest.Provider, error) {
	switch cCtx.String("attest-provider") {
	case "dummy":
		return attest.DummyProvider{}, nil
	case "dcap":
		return attest.DCAPProvider{}, nil
	case "remote":
		addr := cCtx.String("attest-sidecar-addr")
		if addr == "" {
			return nil, errors.New("attest-sidecar-addr is required for the remote attestation provider")
		}
		return &attest.RemoteProvider{Address: addr}, nil
	default:
		return nil, fmt.Errorf("invalid attest-provider: %s", cCtx.String("attest-provider"))
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
