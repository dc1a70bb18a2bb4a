package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/smart-summarizer/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default smartsum configuration file",
	Long:  `Writes smartsum.yml (or --config) with default values and a freshly generated secret key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(cfgFile); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		cfg := config.DefaultConfig()
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generating secret key: %w", err)
		}
		cfg.Server.SecretKey = hex.EncodeToString(key)

		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
		fmt.Fprintln(cmd.OutOrStdout(), "Change admin.password before exposing the server.")
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
