package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

// --- Global Command Variables ---
var (
	dataDir    string
	seed       uint64
	jsonOutput bool
	rulesOnly  bool

	patternType string
	style       string
	density     float64
	complexity  float64
	tempo       int
	intent      string
	strength    float64
	ratio       float64
	graphLimit  int
	batchSize   int
	topK        int
	bpm         int

	rootCmd = &cobra.Command{
		Use:          "tidalctl",
		Short:        "Generate, validate and evolve TidalCycles patterns",
		SilenceUsage: true,
	}

	// --- Model ---
	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Retrain the statistical model from the corpus",
		Args:  cobra.NoArgs,
		RunE:  runTrain, // Defined in cmd_model.go
	}
	graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Print the strongest transitions in the model",
		Args:  cobra.NoArgs,
		RunE:  runGraph, // Defined in cmd_model.go
	}
	evolveCmd = &cobra.Command{
		Use:   "evolve",
		Short: "Run one evolution round and grow the corpus",
		Args:  cobra.NoArgs,
		RunE:  runEvolve, // Defined in cmd_model.go
	}

	// --- Patterns ---
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a validated pattern",
		Args:  cobra.NoArgs,
		RunE:  runGenerate, // Defined in cmd_patterns.go
	}
	validateCmd = &cobra.Command{
		Use:   "validate [pattern]",
		Short: "Check a pattern against the rule registry",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate, // Defined in cmd_patterns.go
	}
	sanitizeCmd = &cobra.Command{
		Use:   "sanitize [pattern]",
		Short: "Repair common syntax slips in a pattern",
		Args:  cobra.ExactArgs(1),
		RunE:  runSanitize, // Defined in cmd_patterns.go
	}
	mutateCmd = &cobra.Command{
		Use:   "mutate [pattern]",
		Short: "Apply random musical mutations to a pattern",
		Args:  cobra.ExactArgs(1),
		RunE:  runMutate, // Defined in cmd_patterns.go
	}
	morphCmd = &cobra.Command{
		Use:   "morph [pattern-a] [pattern-b]",
		Short: "Interpolate between two patterns",
		Args:  cobra.ExactArgs(2),
		RunE:  runMorph, // Defined in cmd_patterns.go
	}

	// --- Conductor ---
	conductorCmd = &cobra.Command{
		Use:   "conductor [template]",
		Short: "Print the simulated timeline of a song template",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConductor, // Defined in cmd_conductor.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Directory holding the model, rules and corpus")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Random seed (0 = seed from the clock)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON for scripting")

	generateCmd.Flags().StringVarP(&patternType, "type", "t", "drums", "Pattern type: drums, bass, melody, chords, fx")
	generateCmd.Flags().StringVarP(&style, "style", "s", "", "Genre whose rules apply")
	generateCmd.Flags().Float64Var(&density, "density", 0.5, "Density in [0,1]")
	generateCmd.Flags().Float64Var(&complexity, "complexity", 0.5, "Complexity in [0,1]")
	generateCmd.Flags().IntVar(&tempo, "tempo", 140, "Tempo in BPM")
	generateCmd.Flags().StringVar(&intent, "intent", "", "Free-text intent such as \"darker\"")
	generateCmd.Flags().BoolVar(&rulesOnly, "rules-only", false, "Skip the statistical model")

	validateCmd.Flags().StringVarP(&style, "style", "s", "", "Genre whose rules apply")
	mutateCmd.Flags().Float64Var(&strength, "strength", 0.5, "Mutation strength in [0,1]")
	morphCmd.Flags().Float64Var(&ratio, "ratio", 0.5, "Share of the second pattern in [0,1]")
	graphCmd.Flags().IntVar(&graphLimit, "limit", 20, "Maximum nodes")
	evolveCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Candidates per round (0 = configured)")
	evolveCmd.Flags().IntVar(&topK, "top-k", 0, "Survivors kept (0 = configured)")
	conductorCmd.Flags().IntVar(&bpm, "bpm", 120, "Tempo used to time the sections")

	rootCmd.AddCommand(trainCmd, graphCmd, evolveCmd)
	rootCmd.AddCommand(generateCmd, validateCmd, sanitizeCmd, mutateCmd, morphCmd)
	rootCmd.AddCommand(conductorCmd)
}

// loadRuntime wires the engine over the files in --data-dir, seeding any
// that are missing.
func loadRuntime() (*services.Runtime, error) {
	return services.Bootstrap(services.Options{
		Paths: services.Paths{
			Model:           filepath.Join(dataDir, "markov_model.json"),
			Rules:           filepath.Join(dataDir, "theory_rules.json"),
			Corpus:          filepath.Join(dataDir, "corpus.tidal"),
			EvolutionConfig: filepath.Join(dataDir, "evolution.yaml"),
		},
		UseAI: true,
		Seed:  seed,
	})
}
