// Command reqstress analyzes requirement documents for risk: vague wording,
// missing detail, unguarded security-sensitive operations, conflicts, and
// more. Run "reqstress --help" for the command tree.
package main

import (
	"fmt"
	"os"

	"github.com/avendel/reqstress/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
