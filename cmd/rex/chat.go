package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/rex/pkg/config"
	"github.com/pario-ai/rex/pkg/orchestrator"
)

const (
	greeting       = "Hello. I am REX AI. Ask me anything."
	credentialHint = "Please paste your OpenRouter API key with `rex configure --api-key <key>` before sending requests."
)

func newAskCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a single query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()

			reply, err := a.orch.Submit(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return describe(err)
			}
			printReply(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func newChatCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openApp(cmd.Context(), cfg())
			defer a.Close()
			return runChat(cmd.Context(), a.orch, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat reads one query per line until EOF or "/quit".
func runChat(ctx context.Context, o *orchestrator.Orchestrator, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "REX AI: "+greeting)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}

		reply, err := o.Submit(ctx, line)
		switch {
		case err == nil:
			printReply(out, reply)
		case errors.Is(err, orchestrator.ErrEmptyInput):
		default:
			fmt.Fprintln(out, "ERROR: "+describe(err).Error())
		}
	}
}

func printReply(out io.Writer, reply orchestrator.Reply) {
	fmt.Fprintln(out, "REX AI: "+reply.Text)
	if reply.TokenInfo != "" {
		fmt.Fprintln(out, reply.TokenInfo)
	}
}

// describe turns orchestrator errors into user-facing messages.
func describe(err error) error {
	switch {
	case errors.Is(err, orchestrator.ErrMissingCredential):
		return errors.New(credentialHint)
	case errors.Is(err, orchestrator.ErrEmptyInput):
		return errors.New("nothing to ask")
	}
	return err
}
