package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/vaultsocial/internal/app"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
	"github.com/MrSnakeDoc/vaultsocial/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "vaultsocial",
	Short: "Social layer over file-backed vaults",
	Long: `vaultsocial indexes the profiles, bookmarks, posts, publications and votes
stored in local vaults and serves them over a JSON API.

Configuration is read from VAULTSOCIAL_* environment variables.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the vaults and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(cmd.Context())
		if err != nil {
			return err
		}
		return a.Run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

var vaultsFile string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the vaults file and open every vault in it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if vaultsFile == "" {
			return fmt.Errorf("no vaults file: pass --vaults or set VAULTSOCIAL_VAULTS_FILE")
		}
		vc, err := sources.NewLoader(vaultsFile).Load()
		if err != nil {
			return err
		}
		vaults, err := vc.OpenAll()
		if err != nil {
			return err
		}
		for _, v := range vaults {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s -> %s\n", v.URL(), v.Dir())
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&vaultsFile, "vaults", os.Getenv("VAULTSOCIAL_VAULTS_FILE"), "path to the vaults file")
	rootCmd.AddCommand(serveCmd, versionCmd, checkCmd)
}
