// Package main implements clipfind, a terminal viewer with find-in-buffer
// and clipboard integration. It shows a file or piped input, searches it
// with plain, whole-word, case-sensitive or regex queries, and copies and
// pastes through the system clipboard, locally or over SSH.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode       bool
	logFormat       string
	themeName       string
	copyOnSelect    bool
	noCopyOnSelect  bool
	pasteWarning    string
	middleClickMode string
	initialQuery    string
	title           string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clipfind [file]",
		Short: "Terminal viewer with find and clipboard integration",
		Long: `clipfind - find and copy in the terminal

Shows a file, or standard input when it is piped, with a find bar
(plain, whole word, case sensitive and regex matching) and mouse
selection that copies to the system clipboard.`,
		Example: `  # View a file
  clipfind server.log

  # View piped output and start searching
  journalctl -b | clipfind --find "error"

  # Copy every selection automatically
  clipfind --copy-on-select notes.txt

  # Serve the viewer over SSH
  clipfind ssh --port 2222 server.log

  # Edit configuration
  clipfind config edit`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd.Context(), args)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json or logfmt")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Color theme (overrides appearance.theme)")
	rootCmd.PersistentFlags().BoolVar(&copyOnSelect, "copy-on-select", false, "Copy selections to the clipboard automatically")
	rootCmd.PersistentFlags().BoolVar(&noCopyOnSelect, "no-copy-on-select", false, "Never copy selections automatically")
	rootCmd.PersistentFlags().StringVar(&pasteWarning, "paste-warning", "", "Multi-line paste confirmation: auto, always or never")
	rootCmd.PersistentFlags().StringVar(&middleClickMode, "middle-click", "", "Middle click behavior: default or paste")
	rootCmd.PersistentFlags().StringVar(&initialQuery, "find", "", "Open the find bar with this query")
	rootCmd.PersistentFlags().StringVar(&title, "title", "", "Title shown in the status line")
	rootCmd.MarkFlagsMutuallyExclusive("copy-on-select", "no-copy-on-select")

	// SSH command variables
	var sshPort, sshHost, sshKeyPath string

	sshCmd := &cobra.Command{
		Use:   "ssh [file]",
		Short: "Serve clipfind over SSH",
		Long: `Serve clipfind over SSH

Every connection gets its own viewer on the same content. Copies go to the
client's clipboard through OSC 52. The server generates a host key
automatically if none is specified.`,
		Example: `  # Serve a file on the default port
  clipfind ssh server.log

  # Connect and start searching
  ssh -t -p 2222 localhost find timeout`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSSHServer(cmd.Context(), sshHost, sshPort, sshKeyPath, args)
		},
	}

	sshCmd.Flags().StringVar(&sshPort, "port", "2222", "SSH server port")
	sshCmd.Flags().StringVar(&sshHost, "host", "localhost", "SSH server host")
	sshCmd.Flags().StringVar(&sshKeyPath, "key-path", "", "Path to SSH host key (auto-generated if not specified)")

	// Config command group
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage clipfind configuration",
		Long:  `Manage the clipfind configuration file`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath(cmd.OutOrStdout())
		},
	}

	configEditCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		Long: `Open the clipfind configuration file in your default editor

The editor is determined by checking $EDITOR, $VISUAL, or common editors
like vim, vi, nano, and emacs in that order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigFile()
		},
	}

	var force bool
	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long: `Reset the clipfind configuration file to default settings

This will overwrite your existing configuration after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetConfigToDefaults(cmd.InOrStdin(), cmd.OutOrStdout(), force)
		},
	}
	configResetCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite without asking")

	configCmd.AddCommand(configPathCmd, configEditCmd, configResetCmd)

	keysCmd := &cobra.Command{
		Use:     "keys",
		Aliases: []string{"keybinds", "kb"},
		Short:   "List keybindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listKeybindings(cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(sshCmd, configCmd, keysCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}
