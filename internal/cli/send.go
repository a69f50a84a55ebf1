package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/actuallystonmai/predict-client/predict"
)

func newSession(ctx context.Context, flags *transactionFlags) (*predict.Session, func(), error) {
	storage, release, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := predict.NewSession(storage,
		predict.WithHost(flags.hostOrDefault()),
		predict.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		predict.WithLogger(log.Sub("predict").Zerolog()),
		predict.WithPlatform(runtime.Version(), runtime.GOOS+"/"+runtime.GOARCH),
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	flags.apply(s)
	return s, func() {
		s.Close()
		release()
	}, nil
}

func newURLCmd() *cobra.Command {
	var flags transactionFlags
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the request URL of a transaction without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := newSession(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			defer release()

			t, err := flags.build(nil)
			if err != nil {
				return err
			}
			u, err := s.URL(t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			for _, e := range t.Errors() {
				log.Warn().Str("kind", e.Kind).Str("command", e.Command).Msg(e.Message)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newSendCmd() *cobra.Command {
	var flags transactionFlags
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a transaction and print the recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := newSession(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			t, err := flags.build(func(r *predict.RecommendationResult) {
				mu.Lock()
				defer mu.Unlock()
				printResult(out, r)
			})
			if err != nil {
				return err
			}

			done := make(chan error, 1)
			err = s.SendTransaction(t,
				func(err error) { done <- err },
				func() { done <- nil },
			)
			if err != nil {
				return err
			}
			if err := <-done; err != nil {
				return fmt.Errorf("send transaction: %w", err)
			}
			log.Info().
				Str("session", s.SessionToken()).
				Str("visitor", s.Visitor()).
				Str("advertising_id", s.AdvertisingID()).
				Msg("transaction sent")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printResult(w io.Writer, r *predict.RecommendationResult) {
	fmt.Fprintf(w, "%s (topic %q, cohort %s): %d item(s)\n", r.FeatureID, r.Topic, r.Cohort, len(r.Products))
	for _, item := range r.Products {
		fmt.Fprintf(w, "  %s\n", item)
	}
}
