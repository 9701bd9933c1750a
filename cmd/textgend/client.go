package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"textgend/internal/rpcapi"
	"textgend/pkg/types"
)

func newGenerateCmd() *cobra.Command {
	var (
		target    string
		text      string
		maxLength uint32
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one unary generation and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rpcapi.NewClient(target)
			if err != nil {
				return err
			}
			defer c.Close()
			out, err := c.Generate(cmd.Context(), types.GenerateRequest{Text: text, MaxLength: maxLength})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "target", defaultTarget, "Server address")
	cmd.Flags().StringVar(&text, "text", "", "Prompt text")
	cmd.Flags().Uint32Var(&maxLength, "max-length", 0, "Generation bound in tokens (0 uses the server default)")
	return cmd
}

func newStreamCmd() *cobra.Command {
	var (
		target     string
		text       string
		maxLength  uint32
		intervalMs uint32
	)
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Run a streamed generation, printing fragments as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rpcapi.NewClient(target)
			if err != nil {
				return err
			}
			defer c.Close()
			s, err := c.GenerateStreamed(cmd.Context(), types.GenerateStreamedRequest{
				Text:                         text,
				MaxLength:                    maxLength,
				IntermediateResultIntervalMs: intervalMs,
			})
			if err != nil {
				return err
			}
			return printFragments(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().StringVar(&target, "target", defaultTarget, "Server address")
	cmd.Flags().StringVar(&text, "text", "", "Prompt text")
	cmd.Flags().Uint32Var(&maxLength, "max-length", 0, "Generation bound in tokens (0 uses the server default)")
	cmd.Flags().Uint32Var(&intervalMs, "interval-ms", 0, "Fragment interval in milliseconds (0 uses the server default)")
	return cmd
}

type fragmentReceiver interface {
	Recv() (string, error)
}

// printFragments writes fragments without separators and ends with a newline.
func printFragments(w io.Writer, s fragmentReceiver) error {
	for {
		f, err := s.Recv()
		if errors.Is(err, io.EOF) {
			_, err = fmt.Fprintln(w)
			return err
		}
		if err != nil {
			fmt.Fprintln(w)
			return err
		}
		if _, err := io.WriteString(w, f); err != nil {
			return err
		}
	}
}
