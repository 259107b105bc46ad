package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/ephemeris/internal/config"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change preferences",
	Long: `Show the preferences used for every session.

Keys: ` + strings.Join(config.PreferenceKeys, ", ") + `.
Field defaults use the key defaults.<field id>, for example
defaults.ShowInfo.`,
	Example: `  ephemeris-cfg prefs
  ephemeris-cfg prefs set provider city
  ephemeris-cfg prefs set city Fairbanks
  ephemeris-cfg prefs set defaults.ShowInfo false
  ephemeris-cfg prefs unset defaults.ShowInfo`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		for _, line := range reg.Preferences.Lines() {
			fmt.Println(line)
		}
		return nil
	},
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		v, err := reg.Preferences.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.Preferences.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := saveRegistry(reg); err != nil {
			return err
		}
		fmt.Printf("✓ %s = %s\n", args[0], args[1])
		return nil
	},
}

var prefsUnsetCmd = &cobra.Command{
	Use:   "unset defaults.<id>",
	Short: "Remove a field default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := strings.CutPrefix(args[0], "defaults.")
		if !ok || id == "" {
			return fmt.Errorf("only field defaults can be unset, got %q", args[0])
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		reg.Preferences.ClearDefault(id)
		return saveRegistry(reg)
	},
}

var prefsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the preferences file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			fmt.Println(configPath)
			return nil
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsUnsetCmd)
	prefsCmd.AddCommand(prefsPathCmd)

	rootCmd.AddCommand(prefsCmd)
}
