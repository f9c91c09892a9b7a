package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"playmap/internal/app"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and import catalog backups",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		seal, _ := cmd.Flags().GetBool("seal")

		var passphrase string
		if seal {
			var err error
			passphrase, err = readPassphrase("Passphrase: ", true)
			if err != nil {
				return err
			}
		}

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			name, err := a.ExportBackup(ctx, passphrase)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("Exported %s\n", name)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			names, err := a.ListBackups(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No backups.")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import NAME",
	Short: "Replace the catalog with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			var passphrase string
			if a.BackupIsSealed(args[0]) {
				var err error
				passphrase, err = readPassphrase("Passphrase: ", false)
				if err != nil {
					return err
				}
			}

			if err := a.ImportBackup(ctx, args[0], passphrase); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Imported %s\n", args[0])
			return nil
		})
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every playground",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("reset deletes the whole catalog; pass --yes to confirm")
		}

		return withApp(cmd, func(ctx context.Context, a *app.PlaymapApp) error {
			if err := a.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("Catalog cleared. Run maintain to remove the photo files.")
			return nil
		})
	},
}

// readPassphrase prompts on the terminal without echo. When stdin is not a
// terminal the passphrase is read as one line from stdin.
func readPassphrase(prompt string, confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return nonEmpty(strings.TrimRight(line, "\r\n"))
	}

	fmt.Fprint(os.Stderr, prompt)
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if string(first) != string(second) {
			return "", errors.New("passphrases do not match")
		}
	}
	return nonEmpty(string(first))
}

func nonEmpty(passphrase string) (string, error) {
	if passphrase == "" {
		return "", errors.New("passphrase must not be empty")
	}
	return passphrase, nil
}

func init() {
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupImportCmd)
	backupExportCmd.Flags().Bool("seal", false, "Encrypt the backup with a passphrase")
	resetCmd.Flags().Bool("yes", false, "Confirm clearing the catalog")
}
