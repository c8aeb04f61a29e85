package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/workingdoge/premath-sub002/pkg/witness"
)

type request struct {
	Class     string         `json:"class"`
	LawRef    string         `json:"lawRef"`
	TokenPath *string        `json:"tokenPath"`
	Context   map[string]any `json:"context"`
}

func main() {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read stdin:", err)
		os.Exit(2)
	}
	var req request
	if err := json.Unmarshal(b, &req); err != nil {
		fmt.Fprintln(os.Stderr, "invalid request json:", err)
		os.Exit(2)
	}
	id, err := witness.ComputeWitnessID(req.Class, req.LawRef, req.TokenPath, req.Context)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compute witness id:", err)
		os.Exit(1)
	}
	fmt.Print(id)
}
