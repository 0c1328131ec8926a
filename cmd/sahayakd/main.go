package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyaya-labs/sahayak/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sahayakd",
		Short: "Sahayak daemon and CLI",
		Long:  "Sahayak daemon for serving the legal research API and indexing the case corpus",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IndexCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
