package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/opd-ai/streamcore"
	"github.com/opd-ai/streamcore/aio"
	"github.com/spf13/cobra"
)

var dialCmd = &cobra.Command{
	Use:   "dial <url>",
	Short: "Dial a URL and pipe stdin/stdout through the stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := streamcore.NewDialer(args[0])
		if err != nil {
			return err
		}
		defer streamcore.Free(d)
		if err := configureDialerTLS(d, flags); err != nil {
			return err
		}

		op := aio.NewOp(nil)
		op.SetTimeout(flags.Timeout)
		streamcore.Dial(d, op)
		op.Wait()
		if err := op.Err(); err != nil {
			return fmt.Errorf("dial %s: %w", args[0], err)
		}
		s := streamcore.OpStream(op)
		defer streamcore.Free(s)
		return pipe(s, os.Stdin, os.Stdout)
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen <url>",
	Short: "Accept one stream on a URL and pipe stdin/stdout through it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := streamcore.NewListener(args[0])
		if err != nil {
			return err
		}
		defer streamcore.Free(l)
		if err := configureListenerTLS(l, flags); err != nil {
			return err
		}
		if err := l.Listen(); err != nil {
			return err
		}

		op := aio.NewOp(nil)
		op.SetTimeout(flags.Timeout)
		streamcore.Accept(l, op)
		op.Wait()
		if err := op.Err(); err != nil {
			return fmt.Errorf("accept %s: %w", args[0], err)
		}
		s := streamcore.OpStream(op)
		defer streamcore.Free(s)
		return pipe(s, os.Stdin, os.Stdout)
	},
}

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List the registered URL schemes in lookup order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range streamcore.Schemes() {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

// ignoreAbsent treats a missing TLS capability as nothing to configure.
func ignoreAbsent(err error) error {
	if errors.Is(err, streamcore.ErrNotSupported) {
		return nil
	}
	return err
}
