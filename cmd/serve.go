package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adlint/adlint/internal/server"
	"github.com/adlint/adlint/pkg/storage"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload/validate/preview web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		if listenAddr == "" {
			listenAddr = viper.GetString("server.listen")
		}
		noHistory, _ := cmd.Flags().GetBool("no-history")

		var db *storage.DB
		if !noHistory {
			var err error
			db, err = openHistoryDB()
			if err != nil {
				log.Fatal(err)
			}
			defer db.Close()
		}

		srv := server.New(db, engineSettings(),
			viper.GetString("server.username"),
			viper.GetString("server.password"))
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (default from config, :8080)")
	serveCmd.Flags().Bool("no-history", false, "Run without the history database")
}
