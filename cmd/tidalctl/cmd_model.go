package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runTrain(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	res, err := rt.Service.Retrain(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ trained on %d patterns: order %d, %d contexts, %d transitions\n",
		res.Patterns, res.Stats.Order, res.Stats.Contexts, res.Stats.Transitions)
	return nil
}

func runGraph(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	g := rt.Service.Graph(graphLimit)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), g)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d nodes, %d links\n", len(g.Nodes), len(g.Links))
	for _, l := range g.Links {
		fmt.Fprintf(out, "  %-16s -> %-16s %d\n", l.Source, l.Target, l.Weight)
	}
	return nil
}

func runEvolve(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	res, err := rt.Service.Evolve(cmd.Context(), batchSize, topK)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "generated %d, failed %d, kept %d (top score %.1f)\n",
		res.Generated, res.Failed, res.Survivors, res.TopScore)
	for _, c := range res.Best {
		fmt.Fprintf(out, "  %6.1f  %s\n", c.Score, c.Pattern)
	}
	return nil
}
