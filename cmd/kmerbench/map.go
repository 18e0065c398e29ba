package main

import (
	"bufio"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kmerbench/kmerbench/mapper"
)

func newMapCmd(logger *slog.Logger) *cobra.Command {
	var (
		k         int
		dumpIndex bool
	)

	cmd := &cobra.Command{
		Use:   "map <reference.fasta> <reads_directory>",
		Short: "Map reads to a reference by their leading k-mer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := mapper.New(k, logger)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "loading reference genome",
				slog.String("path", args[0]),
			)

			bases, err := m.LoadReference(args[0])
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "genome indexed",
				slog.Int("bases", bases),
				slog.Int("kmers", m.Index().Len()),
			)

			if _, err := m.LoadReadsFromDir(args[1]); err != nil {
				return err
			}

			mappings, err := m.MapReads(ctx)
			if err != nil {
				return fmt.Errorf("map reads: %w", err)
			}

			out := bufio.NewWriter(cmd.OutOrStdout())

			if dumpIndex {
				if _, err := m.Index().WriteTo(out); err != nil {
					return fmt.Errorf("write index: %w", err)
				}
			}

			fmt.Fprintln(out, "Mapping results:")
			if err := mapper.WriteMappings(out, mappings); err != nil {
				return fmt.Errorf("write mappings: %w", err)
			}

			return out.Flush()
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&k, "k", "k", 5, "k-mer length")
	flags.BoolVar(&dumpIndex, "dump-index", false,
		"Print the k-mer index before the mappings")

	return cmd
}
