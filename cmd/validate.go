package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/config"
)

var validateRulesFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rules file and print the resulting rule table",
	Long: `Validate parses a rules file the same way start and replay do and
prints the resulting rule table. Rules are matched top to bottom, first
match wins; the default policy applies when nothing matches.

Examples:
  strix validate -f rules.yml
  strix validate -c /etc/strix/config.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidate()
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateRulesFile, "file", "f", "", "rules file path (defaults to firewall.rules_file from the config)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate() {
	path := validateRulesFile
	if path == "" {
		cfg := loadConfigOrDefault()
		path = cfg.Firewall.RulesFile
	}

	rules, err := config.LoadRules(path)
	if err != nil {
		fmt.Printf("INVALID: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("VALID: %s (%d rules)\n", path, rules.Len())
	for i, r := range rules.Rules() {
		fmt.Printf("  %3d  %s\n", i, r)
	}
	fmt.Printf("  default policy: %s\n", rules.Default())
}
