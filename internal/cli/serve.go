package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/actuallystonmai/predict-client/internal/mockserver"
	"github.com/actuallystonmai/predict-client/internal/mockserver/seeds"
)

func newServeCmd() *cobra.Command {
	var (
		port        int
		catalog     string
		products    int
		seed        int64
		merchants   []string
		latency     time.Duration
		failureRate float64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local stand-in of the recommendation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Port = port
			}
			if catalog == "" {
				catalog = cfg.CatalogPath
			}

			var items []mockserver.Product
			if catalog != "" {
				var err error
				items, err = seeds.LoadFile(catalog)
				if err != nil {
					return err
				}
				log.Info().Str("path", catalog).Int("products", len(items)).Msg("catalog loaded")
			} else {
				items = seeds.Generate(products, seed, time.Now())
				log.Info().Int("products", len(items)).Int64("seed", seed).Msg("catalog generated")
			}

			srv := mockserver.New(items, mockserver.Options{
				Merchants:   merchants,
				Cohort:      cfg.Cohort,
				Latency:     latency,
				FailureRate: failureRate,
				Log:         log.Sub("mockserver"),
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpSrv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           srv,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", httpSrv.Addr).Msg("mock recommender listening")
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info().Msg("mock recommender stopped")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&port, "port", 0, "listen port (default $PORT)")
	fs.StringVar(&catalog, "catalog", "", "YAML catalog file (default $PREDICT_CATALOG, generated when empty)")
	fs.IntVar(&products, "products", 200, "size of the generated catalog")
	fs.Int64Var(&seed, "seed", 42, "seed of the generated catalog")
	fs.StringSliceVar(&merchants, "merchant", nil, "accepted merchant ids (any when empty)")
	fs.DurationVar(&latency, "latency", 0, "simulated ranking latency")
	fs.Float64Var(&failureRate, "failure-rate", 0, "fraction of rankings that fail with 503")
	return cmd
}
