package commands

import (
	"strings"

	"portalwatch/lib/configutil"
	"portalwatch/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a test message to the configured Telegram chat.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		client := newTelegramClient(cfg)
		err = client.SendMessage(cmd.Context(), cfg.Telegram.ChatId, strings.Join(args, " "), false)
		if err != nil {
			serviceutil.Fatal("send message", err)
		}
	},
}
