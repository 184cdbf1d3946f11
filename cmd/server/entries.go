// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/moodlog/internal/journal"
)

type entryOptions struct {
	owner       string
	id          string
	title       string
	contentFile string
	version     int64
	weatherJSON string
}

func newEntryCmd(root *rootOptions) *cobra.Command {
	opts := &entryOptions{}
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Create, update, read or list journal entries",
		Long: `Create, update, read or list journal entries.

The entry store and the ledger are locked by the process that opens them,
so entry runs only while serve is stopped. With NATS_EMBEDDED=true it also
starts its own embedded server; set NATS_EMBEDDED=false to publish to an
external one.`,
	}
	cmd.PersistentFlags().StringVar(&opts.owner, "owner", "", "owner ID of the calling user (required)")
	_ = cmd.MarkPersistentFlagRequired("owner")

	put := &cobra.Command{
		Use:   "put",
		Short: "Create an entry, or update one with --id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := opts.input(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withJournal(cmd, root, func(svc *journal.Service) (any, error) {
				return svc.CreateOrUpdateEntry(cmd.Context(), opts.owner, in)
			})
		},
	}
	put.Flags().StringVar(&opts.id, "id", "", "entry to update; empty creates a new entry")
	put.Flags().StringVar(&opts.title, "title", "", "entry title")
	put.Flags().StringVar(&opts.contentFile, "content-file", "-", "file holding the entry content, - for stdin")
	put.Flags().Int64Var(&opts.version, "expected-version", 0, "version last observed; 0 uses the current version")
	put.Flags().StringVar(&opts.weatherJSON, "weather", "", "weather snapshot as JSON, kept on create only")

	get := &cobra.Command{
		Use:   "get ENTRY_ID",
		Short: "Read one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd, root, func(svc *journal.Service) (any, error) {
				return svc.GetEntry(cmd.Context(), opts.owner, args[0])
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the owner's entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJournal(cmd, root, func(svc *journal.Service) (any, error) {
				return svc.ListEntries(cmd.Context(), opts.owner)
			})
		},
	}

	cmd.AddCommand(put, get, list)
	return cmd
}

// input builds the write request from flags and the content source.
func (o *entryOptions) input(stdin io.Reader) (journal.EntryInput, error) {
	in := journal.EntryInput{
		EntryID:         o.id,
		ExpectedVersion: o.version,
		Title:           o.title,
	}

	var (
		content []byte
		err     error
	)
	if o.contentFile == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(o.contentFile)
	}
	if err != nil {
		return in, fmt.Errorf("read content: %w", err)
	}
	in.Content = string(content)

	if o.weatherJSON != "" {
		if err := json.Unmarshal([]byte(o.weatherJSON), &in.Weather); err != nil {
			return in, fmt.Errorf("parse --weather: %w", err)
		}
	}
	return in, nil
}

// withJournal opens the app, runs fn and prints its result as JSON.
func withJournal(cmd *cobra.Command, root *rootOptions, fn func(*journal.Service) (any, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, root.cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	out, err := fn(a.journal)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
