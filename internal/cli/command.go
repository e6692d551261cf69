// Package cli implements the translateme terminal commands on top of the orchestrator.
package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"translateme/internal/service"
	"translateme/internal/translation"
)

// Version is reported by --version.
var Version = "dev"

// Flags holds the values of the global command line flags.
type Flags struct {
	From string
	To   string
	Wait time.Duration
}

// NewFlags returns flags with their defaults. Empty From/To keep the configured pair.
func NewFlags() *Flags {
	return &Flags{Wait: 10 * time.Second}
}

// Opener builds a ready orchestrator. The returned func releases it and its store.
type Opener func(ctx context.Context) (service.Orchestrator, func(), error)

// CreateRootCommand creates the root command with all subcommands attached.
func CreateRootCommand(flags *Flags, open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "translateme",
		Short: "Translate text and keep a shared history",
		Long: `translateme translates text with the MyMemory service and records every
successful translation in the shared history store.

Examples:
  translateme translate Hello World        # en -> es by default
  translateme translate --to fr Good night
  translateme history                      # newest first
  translateme watch                        # follow history until interrupted`,
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.From, "from", "", `source language code or "auto" (default from TRANSLATION_SOURCE_LANG)`)
	rootCmd.PersistentFlags().StringVar(&flags.To, "to", "", "target language code (default from TRANSLATION_TARGET_LANG)")
	rootCmd.PersistentFlags().DurationVar(&flags.Wait, "wait", flags.Wait, "how long to wait for the history to load")

	rootCmd.AddCommand(
		newTranslateCommand(flags, open),
		newHistoryCommand(flags, open),
		newClearCommand(open),
		newWatchCommand(open),
	)
	return rootCmd
}

func newTranslateCommand(flags *Flags, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <text...>",
		Short: "Translate text and add it to the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := applyLanguages(orch, flags); err != nil {
				return err
			}
			return runTranslate(cmd, orch, strings.Join(args, " "))
		},
	}
}

func applyLanguages(orch service.Orchestrator, flags *Flags) error {
	if flags.From == "" && flags.To == "" {
		return nil
	}
	st := orch.State()
	source, target := st.SourceLang, st.TargetLang
	if flags.From != "" {
		source = flags.From
	}
	if flags.To != "" {
		target = flags.To
	}
	if err := orch.SetLanguagePair(source, target); err != nil {
		return fmt.Errorf("language pair %s|%s: %w", source, target, err)
	}
	return nil
}

func runTranslate(cmd *cobra.Command, orch service.Orchestrator, text string) error {
	done, err := orch.Submit(text)
	if err != nil {
		if errors.Is(err, translation.ErrInputTooLarge) {
			return errors.New(service.InputTooLargeMessage)
		}
		return err
	}

	var out service.Outcome
	select {
	case out = <-done:
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Translation)
	if out.Err != nil {
		return out.Err
	}
	if out.HistoryErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: translation not saved to history: %v\n", out.HistoryErr)
	}
	return nil
}

func newHistoryCommand(flags *Flags, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the translation history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := orch.Start(cmd.Context()); err != nil {
				return fmt.Errorf("subscribe to history: %w", err)
			}
			st, err := waitForHistory(cmd.Context(), orch, flags.Wait)
			if err != nil {
				return err
			}
			return RenderHistory(cmd.OutOrStdout(), st.History)
		},
	}
}

// waitForHistory blocks until the first snapshot has been applied.
func waitForHistory(ctx context.Context, orch service.Orchestrator, wait time.Duration) (service.State, error) {
	updates, cancel := orch.Watch()
	defer cancel()

	timeout := time.NewTimer(wait)
	defer timeout.Stop()

	var last service.State
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return service.State{}, service.ErrClosed
			}
			if st.HistoryLoaded {
				return st, nil
			}
			last = st
		case <-timeout.C:
			if last.FeedError != "" {
				return service.State{}, fmt.Errorf("history not loaded after %s: %s", wait, last.FeedError)
			}
			return service.State{}, fmt.Errorf("history not loaded after %s", wait)
		case <-ctx.Done():
			return service.State{}, ctx.Err()
		}
	}
}

func newClearCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored translation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := orch.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func newWatchCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the history every time it changes, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := orch.Start(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "history feed unavailable, retrying: %v\n", err)
			}
			return watch(cmd, orch)
		},
	}
}

func watch(cmd *cobra.Command, orch service.Orchestrator) error {
	updates, cancel := orch.Watch()
	defer cancel()

	var (
		shown    []string
		rendered bool
		degraded bool
	)
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if st.FeedDegraded && !degraded {
				fmt.Fprintf(cmd.ErrOrStderr(), "history feed degraded: %s\n", st.FeedError)
			}
			degraded = st.FeedDegraded

			if !st.HistoryLoaded {
				continue
			}
			ids := recordIDs(st)
			if rendered && slices.Equal(shown, ids) {
				continue
			}
			shown, rendered = ids, true

			fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] %d translation(s)\n", time.Now().Format(time.TimeOnly), len(st.History))
			if err := RenderHistory(cmd.OutOrStdout(), st.History); err != nil {
				return err
			}
		case <-cmd.Context().Done():
			return nil
		}
	}
}

func recordIDs(st service.State) []string {
	ids := make([]string, len(st.History))
	for i, r := range st.History {
		ids[i] = r.ID
	}
	return ids
}
