package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/loan-agent/internal/config"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

func newServeCmd(configPath *string) *cobra.Command {
	var loansFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			observability.SetLevel(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if loansFile != "" {
				if err := seedLoans(ctx, a.loans, loansFile); err != nil {
					return err
				}
				a.catalog.Reload(ctx)
			}

			return serveHTTP(ctx, ":"+cfg.Port, a.handler)
		},
	}
	cmd.Flags().StringVar(&loansFile, "loans", "", "YAML or JSON file of loan products to load at startup")
	return cmd
}

func newSeedLoansCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-loans",
		Short: "Write loan products from a YAML or JSON file to the loan store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.StorageBackend != "firestore" {
				return errors.New("seed-loans needs storage_backend=firestore; use serve --loans for the memory store")
			}

			loans, closeStore, err := newLoanStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := seedLoans(cmd.Context(), loans, file); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loan products from %s saved\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "loans.yaml", "YAML or JSON list of loan products")
	return cmd
}

// readLoanFile parses a list of loan products. JSON is valid YAML, so both
// formats go through the YAML decoder.
func readLoanFile(path string) ([]domain.LoanProduct, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading loan file: %w", err)
	}

	var products []domain.LoanProduct
	if err := yaml.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parsing loan file %s: %w", path, err)
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("loan #%d (%q) has no id", i+1, p.Name)
		}
	}
	return products, nil
}

func seedLoans(ctx context.Context, store domain.LoanStore, path string) error {
	products, err := readLoanFile(path)
	if err != nil {
		return err
	}
	if err := store.SaveLoanProducts(ctx, products); err != nil {
		return fmt.Errorf("saving loans: %w", err)
	}
	observability.Logger().Info("loan products loaded", "count", len(products), "file", path)
	return nil
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger().Info("ByteBot API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	observability.Logger().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
