package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adlint/adlint/internal/server"
	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/report"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <bundle.zip>",
	Short: "Validate one bundle and serve its sandboxed preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		b, err := bundle.FromZip(args[0], raw)
		if err != nil {
			log.Fatal(err)
		}

		result := report.Analyze(b, engineSettings())
		report.RenderTable(os.Stdout, []report.BundleResult{result})
		if result.Primary == "" {
			log.Fatal("bundle has no primary HTML asset; nothing to preview")
		}

		srv := server.New(nil, engineSettings(),
			viper.GetString("server.username"),
			viper.GetString("server.password"))
		srv.Preload(b, result)
		session, err := srv.Manager.Open(b, result.Primary)
		if err != nil {
			log.Fatal(err)
		}

		utils.Log.Infof("Preview ready: http://localhost%s/preview/%s/", listenAddr, session.ID)
		utils.Log.Infof("Host page:     http://localhost%s/", listenAddr)
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
