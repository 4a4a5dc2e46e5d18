package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/design-automation/mobius-sim-go/cmd/sim/internal/config"
	"github.com/design-automation/mobius-sim-go/pkg/cli"
)

type settingRow struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type settingList []settingRow

func (l settingList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, r := range l {
		rows[i] = []string{r.Key, r.Value}
	}
	return []string{"KEY", "VALUE"}, rows
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change CLI settings",
	Long: `Show and change the settings in settings.yaml.

Keys:
  output             default output format (yaml, json, table, raw)
  archive.dir        archive database directory
  archive.in_memory  keep the archive in memory only (true, false)
  s3.bucket          default bucket for s3:///key locations
  s3.prefix          key prefix within the default bucket
  s3.region          S3 region (default us-east-1)
  s3.endpoint        custom S3-compatible endpoint

S3 credentials are read from ` + config.EnvS3AccessKey + ` and
` + config.EnvS3SecretKey + `.

Examples:
  sim config show
  sim config set output table
  sim config get s3.bucket
  sim config path`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		l := make(settingList, 0, len(config.Keys))
		for _, key := range config.Keys {
			v, err := cfg.Get(key)
			if err != nil {
				return err
			}
			l = append(l, settingRow{Key: key, Value: v})
		}
		return printResult(l)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if args[0] == "output" {
			if _, err := cli.ParseOutputFormat(args[1]); err != nil {
				return err
			}
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fmt.Println(cfg.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
