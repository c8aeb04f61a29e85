package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workingdoge/premath-sub002/pkg/gatecheck"
)

// checkFile is the on-disk shape of a gate check: a type tag plus the
// fields of the corresponding variant.
type checkFile struct {
	Type     string                   `json:"type"`
	Locality *gatecheck.LocalityCheck `json:"locality,omitempty"`
	Descent  *gatecheck.DescentCheck  `json:"descent,omitempty"`
}

func gateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "run gate checks",
	}
	cmd.AddCommand(gateRunCmd())
	return cmd
}

func gateRunCmd() *cobra.Command {
	var (
		checkPath string
		worldPath string
		outPath   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one gate check against a table world and emit the gate result",
		Run: func(cmd *cobra.Command, args []string) {
			if checkPath == "" || worldPath == "" {
				fatalUsage("--check and --world are required")
			}
			check := readCheck(checkPath)
			world := readWorld(worldPath)

			res := gatecheck.Run(world, check, activeProfile())
			payload, err := json.Marshal(res)
			if err != nil {
				fatalUsage("marshal result: %v", err)
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, append(payload, '\n'), 0o644); err != nil {
					fatalUsage("write --out: %v", err)
				}
			}
			fmt.Fprintln(os.Stdout, string(payload))
			logger.Info("gate check complete",
				zap.String("profile", res.Profile),
				zap.String("result", res.Result),
				zap.Int("failures", len(res.Failures)))
			if !res.IsAccepted() {
				os.Exit(exitRejected)
			}
		},
	}
	cmd.Flags().StringVar(&checkPath, "check", "", "path to check JSON")
	cmd.Flags().StringVar(&worldPath, "world", "", "path to table world JSON")
	cmd.Flags().StringVar(&outPath, "out", "", "also write the gate result here")
	return cmd
}

func readCheck(path string) gatecheck.Check {
	b, err := os.ReadFile(path)
	if err != nil {
		fatalUsage("read check: %v", err)
	}
	var cf checkFile
	if err := json.Unmarshal(b, &cf); err != nil {
		fatalUsage("parse check: %v", err)
	}
	switch cf.Type {
	case "locality":
		if cf.Locality == nil {
			fatalUsage("check type locality requires a locality object")
		}
		return *cf.Locality
	case "descent":
		if cf.Descent == nil {
			fatalUsage("check type descent requires a descent object")
		}
		return *cf.Descent
	default:
		fatalUsage("unknown check type %q", cf.Type)
	}
	return nil
}

func readWorld(path string) *gatecheck.TableWorld {
	b, err := os.ReadFile(path)
	if err != nil {
		fatalUsage("read world: %v", err)
	}
	var w gatecheck.TableWorld
	if err := json.Unmarshal(b, &w); err != nil {
		fatalUsage("parse world: %v", err)
	}
	return &w
}
