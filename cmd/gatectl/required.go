package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workingdoge/premath-sub002/pkg/gate"
	"github.com/workingdoge/premath-sub002/pkg/requiredwitness"
)

func requiredCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "required",
		Short: "build and verify required-witness chains",
	}
	cmd.AddCommand(requiredBuildCmd())
	cmd.AddCommand(requiredVerifyCmd())
	cmd.AddCommand(requiredDecideCmd())
	return cmd
}

func requiredBuildCmd() *cobra.Command {
	var (
		resultPath       string
		checkID          string
		projectionDigest string
		issuedAt         string
		outPath          string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "bind a gate result into a required-witness artifact",
		Run: func(cmd *cobra.Command, args []string) {
			if resultPath == "" {
				fatalUsage("--gate-result is required")
			}
			res := readGateResult(resultPath)
			w, err := requiredwitness.BuildRequiredWitnessV1(res, requiredwitness.BuildOptions{
				CheckID:          checkID,
				ProjectionDigest: projectionDigest,
				IssuedAtUTC:      issuedAt,
			})
			if err != nil {
				fatalUsage("build witness: %v", err)
			}
			ref, err := requiredwitness.ComputeWitnessRef(w)
			if err != nil {
				fatalUsage("compute witness ref: %v", err)
			}
			payload, err := json.Marshal(w)
			if err != nil {
				fatalUsage("marshal witness: %v", err)
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, append(payload, '\n'), 0o644); err != nil {
					fatalUsage("write --out: %v", err)
				}
			}
			fmt.Fprintln(os.Stdout, string(payload))
			logger.Info("required witness built",
				zap.String("check_id", w.CheckID),
				zap.String("witness_ref", ref))
		},
	}
	cmd.Flags().StringVar(&resultPath, "gate-result", "", "path to gate result JSON")
	cmd.Flags().StringVar(&checkID, "check-id", "", "check identifier to bind")
	cmd.Flags().StringVar(&projectionDigest, "projection-digest", "", "64-char hex digest of the projected inputs")
	cmd.Flags().StringVar(&issuedAt, "issued-at", "", "RFC3339 UTC issue time (default: now)")
	cmd.Flags().StringVar(&outPath, "out", "", "also write the witness here")
	return cmd
}

func requiredVerifyCmd() *cobra.Command {
	var (
		witnessPath string
		resultPath  string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "re-derive the chain hashes of a witness against a gate result payload",
		Run: func(cmd *cobra.Command, args []string) {
			w, payload := readWitnessAndPayload(witnessPath, resultPath)
			res := requiredwitness.VerifyRequiredWitnessV1(w, payload)
			out, err := json.Marshal(res)
			if err != nil {
				fatalUsage("marshal verify result: %v", err)
			}
			fmt.Fprintln(os.Stdout, string(out))
			if res.Status != requiredwitness.StatusVerified {
				os.Exit(exitRejected)
			}
		},
	}
	cmd.Flags().StringVar(&witnessPath, "witness", "", "path to required-witness JSON")
	cmd.Flags().StringVar(&resultPath, "gate-result", "", "path to gate result JSON")
	return cmd
}

func requiredDecideCmd() *cobra.Command {
	var (
		witnessPath string
		resultPath  string
	)
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "terminal accept/reject: chain must verify and the gate result must be accepted",
		Run: func(cmd *cobra.Command, args []string) {
			w, payload := readWitnessAndPayload(witnessPath, resultPath)
			d := requiredwitness.DecideV1(w, payload)
			out, err := json.Marshal(d)
			if err != nil {
				fatalUsage("marshal decision: %v", err)
			}
			fmt.Fprintln(os.Stdout, string(out))
			if !d.Accepted {
				os.Exit(exitRejected)
			}
		},
	}
	cmd.Flags().StringVar(&witnessPath, "witness", "", "path to required-witness JSON")
	cmd.Flags().StringVar(&resultPath, "gate-result", "", "path to gate result JSON")
	return cmd
}

func readGateResult(path string) gate.GateResult {
	b, err := os.ReadFile(path)
	if err != nil {
		fatalUsage("read gate result: %v", err)
	}
	var res gate.GateResult
	if err := json.Unmarshal(b, &res); err != nil {
		fatalUsage("parse gate result: %v", err)
	}
	return res
}

func readWitnessAndPayload(witnessPath, resultPath string) (requiredwitness.RequiredWitnessV1, []byte) {
	if witnessPath == "" || resultPath == "" {
		fatalUsage("--witness and --gate-result are required")
	}
	wb, err := os.ReadFile(witnessPath)
	if err != nil {
		fatalUsage("read witness: %v", err)
	}
	var w requiredwitness.RequiredWitnessV1
	if err := json.Unmarshal(wb, &w); err != nil {
		fatalUsage("parse witness: %v", err)
	}
	payload, err := os.ReadFile(resultPath)
	if err != nil {
		fatalUsage("read gate result: %v", err)
	}
	return w, payload
}
