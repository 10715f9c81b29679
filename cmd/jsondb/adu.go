package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexdb-io/hexdb/auth"
	"github.com/hexdb-io/hexdb/config"
)

const minPasswordLength = 8

var (
	aduLogin           string
	aduPassword        string
	aduPermissionGroup string
	aduLoginsPath      string
)

var aduCmd = &cobra.Command{
	Use:   "adu",
	Short: "Add a user to the credentials store",
	Long: `adu hashes a login/password pair with SHA3-512 and appends the
resulting record to the server's logins.json file, creating it if needed.`,
	RunE: runAdu,
}

func init() {
	rootCmd.AddCommand(aduCmd)

	aduCmd.Flags().StringVar(&aduLogin, "login", "", "Login name (required)")
	aduCmd.Flags().StringVar(&aduPassword, "password", "", "Password (required, minimum 8 characters)")
	aduCmd.Flags().StringVarP(&aduPermissionGroup, "permission-group", "a", "user", "Permission group assigned to this user")
	aduCmd.Flags().StringVar(&aduLoginsPath, "logins-path", "", "Path to logins.json (default: storage root dir from config.yaml)")
	_ = aduCmd.MarkFlagRequired("login")
	_ = aduCmd.MarkFlagRequired("password")
}

func runAdu(cmd *cobra.Command, args []string) error {
	if len(aduPassword) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	path := aduLoginsPath
	if path == "" {
		cfg, err := config.Load(config.LoaderOptions{ConfigPath: configPath})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Auth.LoginsPath
	}

	if err := auth.AppendUser(path, aduLogin, aduPassword, aduPermissionGroup); err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Printf("Added user %q (group %q) to %s\n", aduLogin, aduPermissionGroup, path)
	return nil
}
