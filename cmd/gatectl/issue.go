package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workingdoge/premath-sub002/pkg/issuestore"
)

func issueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "work the JSONL issue store",
	}
	cmd.AddCommand(issueAddCmd())
	cmd.AddCommand(issueClaimCmd())
	cmd.AddCommand(issueListCmd())
	return cmd
}

func issueAddCmd() *cobra.Command {
	var (
		title    string
		priority int
		deps     []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "append a new open issue to the store",
		Run: func(cmd *cobra.Command, args []string) {
			if title == "" {
				fatalUsage("--title is required")
			}
			iss := issuestore.Issue{
				Title:    title,
				Status:   issuestore.StatusOpen,
				Priority: priority,
			}
			for _, d := range deps {
				iss.Deps = append(iss.Deps, issuestore.Dep{IssueID: d, Kind: "blocks"})
			}
			store := issuestore.Open(cfg.Store)
			saved, err := store.Append(iss)
			if err != nil {
				fatalUsage("append issue: %v", err)
			}
			printIssue(saved)
			logger.Info("issue added", zap.String("id", saved.ID))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().IntVar(&priority, "priority", 0, "lower claims first")
	cmd.Flags().StringSliceVar(&deps, "blocked-by", nil, "issue ids that block this one")
	return cmd
}

func issueClaimCmd() *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "claim the next unblocked open issue for an agent",
		Run: func(cmd *cobra.Command, args []string) {
			if agent == "" {
				agent = cfg.Agent
			}
			store := issuestore.Open(cfg.Store)
			iss, err := store.ClaimNext(agent)
			if errors.Is(err, issuestore.ErrNothingClaimable) {
				fmt.Fprintln(os.Stderr, "gatectl: nothing claimable")
				os.Exit(exitRejected)
			}
			if err != nil {
				fatalUsage("claim: %v", err)
			}
			printIssue(iss)
			logger.Info("issue claimed",
				zap.String("id", iss.ID),
				zap.String("agent", agent))
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent id (default: config agent)")
	return cmd
}

func issueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "print every issue in the store, one JSON object per line",
		Run: func(cmd *cobra.Command, args []string) {
			store := issuestore.Open(cfg.Store)
			issues, err := store.Load()
			if err != nil {
				fatalUsage("load store: %v", err)
			}
			for _, iss := range issues {
				printIssue(iss)
			}
		},
	}
}

func printIssue(iss issuestore.Issue) {
	b, err := json.Marshal(iss)
	if err != nil {
		fatalUsage("marshal issue: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(b))
}
