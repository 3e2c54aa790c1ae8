package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdalert "github.com/alexandrelobiancosantos/Azure-FinOps/command/alert"
	cmdanalyze "github.com/alexandrelobiancosantos/Azure-FinOps/command/analyze"
	cmdtags "github.com/alexandrelobiancosantos/Azure-FinOps/command/tags"
	cmdweb "github.com/alexandrelobiancosantos/Azure-FinOps/command/web"
)

// Azure subscription cost reporter.
// Usage:
//   azure-finops analyze [flags] <subscription-prefix> <group|tag|subscription> [grouping-key]
//   azure-finops alert [flags] <group|tag> <subscription-prefix> <grouping-key>
//   azure-finops tags [flags] <subscription-prefix>
//   azure-finops web [-addr :8080] [-data ./data]
// Notes:
// - Credentials come from the Azure CLI (az login) by default; a service
//   principal can be configured in config.yml (see CONFIG_PATH).
// - analyze compares the analysis date's cost per group against the baseline
//   mean of the preceding period and flags increases beyond the threshold.

func main() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	args := os.Args
	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "analyze":
			if err := cmdanalyze.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "alert":
			if err := cmdalert.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "tags":
			if err := cmdtags.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: azure-finops analyze [flags] <prefix> <group|tag|subscription> [key] | alert [flags] <group|tag> <prefix> <key> | tags [flags] <prefix> | web [-addr :8080] [-data ./data]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
