package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"
)

type service interface {
	Resolve(ctx context.Context, query string) (domain.EnrichedRecord, error)
	ListHistory(ctx context.Context, query string, limit int) (domain.VesselKey, []domain.HistoryEntry, error)
}

type serviceFactory func(ctx context.Context, configured bool) (service, func(context.Context) error, error)

type rootOptions struct {
	configuredStores bool
}

func newRootCmd(open serviceFactory) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "vesselctl",
		Short:        "Resolve vessel positions with weather, imagery and anomaly data",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.configuredStores, "configured-stores", false,
		"use the cache and history backends from the environment instead of in-memory stores")

	cmd.AddCommand(newResolveCmd(open, opts), newHistoryCmd(open, opts))
	return cmd
}

func withService(cmd *cobra.Command, open serviceFactory, opts *rootOptions, fn func(service) error) error {
	ctx := cmd.Context()
	svc, closeFn, err := open(ctx, opts.configuredStores)
	if err != nil {
		return err
	}
	defer closeFn(context.WithoutCancel(ctx)) //nolint:errcheck // best-effort teardown
	return fn(svc)
}

func newResolveCmd(open serviceFactory, opts *rootOptions) *cobra.Command {
	var withImagery bool
	cmd := &cobra.Command{
		Use:   "resolve <name-or-mmsi>",
		Short: "Print the consolidated record for one vessel as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, opts, func(svc service) error {
				rec, err := svc.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !withImagery {
					rec.Imagery = nil
					if rec.Anomaly != nil && rec.Anomaly.Assessment != nil {
						rec.Anomaly.Assessment.OverlayImage = nil
					}
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().BoolVar(&withImagery, "with-imagery", false, "include base64 satellite and overlay images")
	return cmd
}

type historyLine struct {
	ID         string  `csv:"id"`
	CreatedAt  string  `csv:"created_at"`
	Origin     string  `csv:"origin"`
	Provenance string  `csv:"provenance"`
	Name       string  `csv:"name"`
	Latitude   float64 `csv:"latitude"`
	Longitude  float64 `csv:"longitude"`
}

func newHistoryCmd(open serviceFactory, opts *rootOptions) *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "history <name-or-mmsi>",
		Short: "List recorded resolutions for one vessel, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unsupported format %q: expected json or csv", format)
			}
			return withService(cmd, open, opts, func(svc service) error {
				_, entries, err := svc.ListHistory(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if format == "json" {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				lines := make([]historyLine, 0, len(entries))
				for _, e := range entries {
					lines = append(lines, historyLine{
						ID:         e.ID,
						CreatedAt:  e.CreatedAt.Format(time.RFC3339),
						Origin:     e.OriginMessage,
						Provenance: string(e.Record.Provenance),
						Name:       e.Record.Position.DisplayName,
						Latitude:   e.Record.Position.Latitude,
						Longitude:  e.Record.Position.Longitude,
					})
				}
				out, err := csvutil.Marshal(lines)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
