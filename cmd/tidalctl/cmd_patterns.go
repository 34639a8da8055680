package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

func runGenerate(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	useAI := !rulesOnly
	res, err := rt.Service.Generate(cmd.Context(), services.GenerateInput{
		Type:       patternType,
		Density:    density,
		Complexity: complexity,
		Tempo:      tempo,
		Style:      style,
		UseAI:      &useAI,
		Intent:     intent,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, res)
	}
	fmt.Fprintln(out, res.Pattern)
	fmt.Fprintf(out, "mode %s, %d attempt(s)\n", res.Mode, res.Attempts)
	writeValidation(out, res.Validation)
	if res.Insight != "" {
		fmt.Fprintf(out, "💡 %s\n", res.Insight)
	}
	writeThoughts(out, res.Thoughts)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	res := rt.Service.Validate(args[0], style)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	writeValidation(cmd.OutOrStdout(), res)
	if !res.Valid {
		return fmt.Errorf("%d issue(s) found", len(res.Issues))
	}
	return nil
}

func runSanitize(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	fixed := rt.Service.Sanitize(args[0])
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"pattern": fixed})
	}
	fmt.Fprintln(cmd.OutOrStdout(), fixed)
	return nil
}

func runMutate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	res, err := rt.Service.Mutate(args[0], strength)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Pattern)
	writeThoughts(cmd.OutOrStdout(), res.Thoughts)
	return nil
}

func runMorph(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	res := rt.Service.Morph(args[0], args[1], ratio)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Pattern)
	return nil
}
