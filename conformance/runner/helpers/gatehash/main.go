package main

import (
	"fmt"
	"io"
	"os"

	"github.com/workingdoge/premath-sub002/pkg/requiredwitness"
)

func main() {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read stdin:", err)
		os.Exit(2)
	}
	sum, err := requiredwitness.HashGateResultBytes(b)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash gate result:", err)
		os.Exit(1)
	}
	fmt.Print(sum)
}
