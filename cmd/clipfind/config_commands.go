package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
)

// printConfigPath prints the config file path
func printConfigPath(w io.Writer) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	_, err = fmt.Fprintln(w, path)
	return err
}

// findEditor picks the editor from $EDITOR, $VISUAL or a common fallback.
func findEditor(getenv func(string) string, lookPath func(string) (string, error)) string {
	if editor := getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := getenv("VISUAL"); editor != "" {
		return editor
	}
	for _, e := range []string{"vim", "vi", "nano", "emacs"} {
		if _, err := lookPath(e); err == nil {
			return e
		}
	}
	return ""
}

// editConfigFile opens the config file in $EDITOR
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Ensure config file exists (create default if needed)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	editor := findEditor(os.Getenv, exec.LookPath)
	if editor == "" {
		return fmt.Errorf("no editor found. Please set $EDITOR environment variable")
	}

	// #nosec G204 - the editor comes from the user's own environment
	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	// Report problems right away instead of at the next start.
	if _, err := config.LoadFile(configPath); err != nil {
		return fmt.Errorf("configuration saved with errors: %w", err)
	}
	return nil
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults(in io.Reader, out io.Writer, force bool) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	return resetConfigAt(configPath, in, out, force)
}

func resetConfigAt(configPath string, in io.Reader, out io.Writer, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		_, _ = fmt.Fprintf(out, "Warning: This will overwrite your existing configuration at:\n")
		_, _ = fmt.Fprintf(out, "  %s\n\n", configPath)
		_, _ = fmt.Fprintf(out, "Are you sure you want to reset to defaults? (yes/no): ")

		response, _ := bufio.NewReader(in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "yes" && response != "y" {
			_, _ = fmt.Fprintln(out, "Reset cancelled.")
			return nil
		}
	}

	if err := config.WriteDefault(configPath); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Configuration reset to defaults: %s\n", configPath)
	return nil
}

// listKeybindings prints every keybinding section as a table.
func listKeybindings(w io.Writer) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("13")).
		Padding(0, 1)

	actionStyle := lipgloss.NewStyle().
		Padding(0, 1)

	for _, section := range config.GetKeybindings() {
		rows := make([][]string, 0, len(section.Bindings))
		for _, b := range section.Bindings {
			rows = append(rows, []string{b.Key, b.Description})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
			Headers(section.Title, "Action").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 0 {
					return keyStyle
				}
				return actionStyle
			})

		if _, err := lipgloss.Fprintln(w, t.Render()); err != nil {
			return err
		}
	}
	return nil
}
