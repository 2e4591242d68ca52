package commands

import (
	"fmt"
	"time"

	"portalwatch/lib/configutil"
	"portalwatch/lib/serviceutil"
	"portalwatch/services/notifier"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(chatidCmd)
}

func newTelegramClient(cfg Config) *notifier.TelegramClient {
	return notifier.NewTelegramClient(notifier.TelegramOptions{
		Token: cfg.Telegram.Token,
	})
}

var chatidCmd = &cobra.Command{
	Use:   "chatid",
	Short: "Print the chat ids of recent messages sent to the bot.",
	Long: "Message the bot on Telegram first, then run this to discover " +
		"the chat id to put in config.json5.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		client := newTelegramClient(cfg)
		updates, err := client.GetUpdates(cmd.Context(), 0, time.Second*5)
		if err != nil {
			serviceutil.Fatal("get updates", err)
		}
		if len(updates) == 0 {
			fmt.Println("No recent messages. Send the bot a message and retry.")
			return
		}

		seen := map[int64]bool{}
		for _, update := range updates {
			if update.Message == nil || seen[update.Message.Chat.Id] {
				continue
			}
			seen[update.Message.Chat.Id] = true
			fmt.Printf(
				"chat %d (%s) @%s: %q\n",
				update.Message.Chat.Id,
				update.Message.Chat.Type,
				update.Message.Chat.Username,
				update.Message.Text,
			)
		}
	},
}
