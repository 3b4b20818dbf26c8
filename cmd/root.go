package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/checks"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	           _ _ _       _
	  __ _  __| | (_)_ __ | |_
	 / _' |/ _' | | | '_ \| __|
	| (_| | (_| | | | | | | |_
	 \__,_|\__,_|_|_|_| |_|\__|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adlint",
	Short: "Audit and preview HTML5/VAST ad creatives.",
	Long: LOGO + `adlint validates ZIP-packaged HTML5 creatives against ad-platform packaging
rules (IAB weight and request budgets, click-tag conventions, asset-reference
integrity, HTTPS-only policy) and hosts a sandboxed live preview with a
simulated ad-serving runtime.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.adlint.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("profile", "", "Threshold profile: display, interstitial")
	rootCmd.PersistentFlags().String("iab-standard", "", "IAB guideline revision for thresholds: 2017, 2020")
	rootCmd.PersistentFlags().String("weight-basis", "", "Weight figure compared against caps: raw, gzip")
	rootCmd.PersistentFlags().StringSlice("allow", nil, "Allow-listed external hostnames (repeatable)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".adlint")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.adlint.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("profile", "display")
	viper.SetDefault("iabstandard", "2020")
	viper.SetDefault("weightbasis", "raw")
	viper.SetDefault("allowedhosts", []string{})
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("db", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// engineSettings merges the config file with any flag overrides into the
// check-engine settings for this invocation.
func engineSettings() checks.Settings {
	s := checks.DefaultSettings()
	s.Profile = viper.GetString("profile")
	s.IABStandardDate = viper.GetString("iabstandard")
	s.WeightBasis = viper.GetString("weightbasis")
	s.AllowedHosts = viper.GetStringSlice("allowedhosts")

	if v, _ := rootCmd.PersistentFlags().GetString("profile"); v != "" {
		s.Profile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("iab-standard"); v != "" {
		s.IABStandardDate = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("weight-basis"); v != "" {
		s.WeightBasis = v
	}
	if v, _ := rootCmd.PersistentFlags().GetStringSlice("allow"); len(v) > 0 {
		s.AllowedHosts = append(s.AllowedHosts, v...)
	}
	return s
}
