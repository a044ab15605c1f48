package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/weave/internal/mapper"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the configured rule order",
	Long: `Print the ordered rule list the intent mapper will evaluate, after
applying any rule tuning overrides. Rule order is significant: matches are
folded left-to-right, so later rules post-process earlier ones.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().String("tuning", "", "Rule tuning overrides file")
	bindFlagAs("rules.tuning_file", "tuning", rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	tuning, err := mapper.LoadTuning(viper.GetString("rules.tuning_file"))
	if err != nil {
		return err
	}

	rules := mapper.DefaultRules(tuning)
	fmt.Fprintf(cmd.OutOrStdout(), "%d rules in evaluation order:\n", len(rules))
	for i, rule := range rules {
		kind := "add"
		if _, ok := rule.Effect.(mapper.ModifyEffect); ok {
			kind = "modify"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %-24s %s\n", i+1, rule.ID, kind)
	}
	return nil
}
