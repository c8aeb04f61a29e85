// gatectl drives the verification kernel from the command line: computing
// witness ids, running gate checks against a table-backed world, building
// and verifying required-witness chains, and claiming issues from a JSONL
// store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// exit codes follow the CI convention: 0 accepted/ok, 1 rejected or
// verification failed, 2 usage or configuration error.
const (
	exitOK       = 0
	exitRejected = 1
	exitUsage    = 2
)

type config struct {
	Profile string `yaml:"profile"`
	Store   string `yaml:"store"`
	Agent   string `yaml:"agent"`
}

var (
	cfg     config
	cfgPath string
	profile string
	logger  *zap.Logger
)

func loadConfig() {
	cfg = config{Profile: "default", Store: ".premath/issues.jsonl", Agent: "agent-local"}
	if cfgPath == "" {
		return
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		fatalUsage("read config: %v", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		fatalUsage("parse config: %v", err)
	}
	if cfg.Profile == "" {
		cfg.Profile = "default"
	}
}

func activeProfile() string {
	if profile != "" {
		return profile
	}
	return cfg.Profile
}

func fatalUsage(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gatectl: "+format+"\n", args...)
	os.Exit(exitUsage)
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gatectl: logger:", err)
		os.Exit(exitUsage)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:           "gatectl",
		Short:         "deterministic gate verification toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to gatectl.yaml")
	root.PersistentFlags().StringVar(&profile, "profile", "", "gate profile (overrides config)")

	root.AddCommand(witnessCmd())
	root.AddCommand(gateCmd())
	root.AddCommand(requiredCmd())
	root.AddCommand(issueCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gatectl:", err)
		os.Exit(exitUsage)
	}
}
