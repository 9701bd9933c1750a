package main

import "github.com/spf13/cobra"

const defaultTarget = "localhost:50052"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "textgend",
		Short:         "Text generation service with unary and streamed gRPC calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newStreamCmd())
	return root
}
