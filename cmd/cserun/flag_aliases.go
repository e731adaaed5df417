package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var initFlagAliases = map[string]string{
	"config-file": "config",
	"assume-yes":  "yes",
}

func addInitFlagAliases(cmd *cobra.Command) {
	setFlagAliases(cmd.Flags(), initFlagAliases)
}

func setFlagAliases(flags *pflag.FlagSet, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}

	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return normalize(f, name)
	})
}
