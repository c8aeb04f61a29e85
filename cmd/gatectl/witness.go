package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workingdoge/premath-sub002/pkg/witness"
)

func witnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "witness",
		Short: "witness id utilities",
	}
	cmd.AddCommand(witnessIDCmd())
	return cmd
}

func witnessIDCmd() *cobra.Command {
	var (
		class      string
		lawRef     string
		tokenPath  string
		contextStr string
	)
	cmd := &cobra.Command{
		Use:   "id",
		Short: "compute a deterministic witness id",
		Run: func(cmd *cobra.Command, args []string) {
			if class == "" || lawRef == "" {
				fatalUsage("--class and --law-ref are required")
			}
			var ctx map[string]any
			if contextStr != "" {
				if err := json.Unmarshal([]byte(contextStr), &ctx); err != nil {
					fatalUsage("parse --context: %v", err)
				}
			}
			var tp *string
			if tokenPath != "" {
				tp = &tokenPath
			}
			id, err := witness.ComputeWitnessID(class, lawRef, tp, ctx)
			if err != nil {
				fatalUsage("compute witness id: %v", err)
			}
			out, _ := json.Marshal(map[string]any{"witnessId": id})
			fmt.Fprintln(os.Stdout, string(out))
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "failure class")
	cmd.Flags().StringVar(&lawRef, "law-ref", "", "law reference, e.g. GATE-3.3")
	cmd.Flags().StringVar(&tokenPath, "token-path", "", "optional token path")
	cmd.Flags().StringVar(&contextStr, "context", "", "optional context JSON object")
	return cmd
}
