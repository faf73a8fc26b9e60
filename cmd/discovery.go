package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sfsbridge/config"
	"github.com/kilianp07/sfsbridge/core/bridge"
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Print the Home Assistant discovery documents without connecting",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		topics := bridge.Topics{Prefix: cfg.MQTT.TopicPrefix, ClientID: cfg.MQTT.ClientID}
		out := cmd.OutOrStdout()
		for _, s := range bridge.Sensors {
			b, err := json.MarshalIndent(bridge.BuildDiscoveryConfig(topics, s), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "# %s\n%s\n", topics.SensorConfig(s.Key), b)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
}
