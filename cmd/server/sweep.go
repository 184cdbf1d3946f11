// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/moodlog/internal/logging"
)

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation pass and exit",
		Long: `Run one reconciliation pass and exit.

The entry store and the ledger are locked by the process that opens them,
so sweep runs only while serve is stopped. A running serve already sweeps
on SWEEP_INTERVAL_SECONDS.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res, err := newSweeper(a).RunOnce(ctx)
			if err != nil {
				logging.Error().Err(err).Msg("Reconciliation pass failed")
				return err
			}
			logging.Info().
				Int("scanned", res.Scanned).
				Int("republished", res.Republished).
				Int("skipped_outstanding", res.SkippedOutstanding).
				Int("failed", res.Failed).
				Dur("took", res.Duration).
				Msg("Reconciliation pass finished")
			return nil
		},
	}
}
