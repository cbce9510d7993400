package config

import "github.com/spf13/cobra"

// FlagOrString returns the flag value when it was set on the command line,
// otherwise fallback
func FlagOrString(cmd *cobra.Command, flagName, fallback string) string {
	if v, err := cmd.Flags().GetString(flagName); err == nil && cmd.Flags().Changed(flagName) {
		return v
	}
	return fallback
}

// FlagOrInt is FlagOrString for ints
func FlagOrInt(cmd *cobra.Command, flagName string, fallback int) int {
	if v, err := cmd.Flags().GetInt(flagName); err == nil && cmd.Flags().Changed(flagName) {
		return v
	}
	return fallback
}

// FlagOrBool is FlagOrString for bools
func FlagOrBool(cmd *cobra.Command, flagName string, fallback bool) bool {
	if v, err := cmd.Flags().GetBool(flagName); err == nil && cmd.Flags().Changed(flagName) {
		return v
	}
	return fallback
}

// FlagOrFloat64 is FlagOrString for floats
func FlagOrFloat64(cmd *cobra.Command, flagName string, fallback float64) float64 {
	if v, err := cmd.Flags().GetFloat64(flagName); err == nil && cmd.Flags().Changed(flagName) {
		return v
	}
	return fallback
}
