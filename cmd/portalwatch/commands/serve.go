package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portalwatch/lib/captcha"
	"portalwatch/lib/configutil"
	"portalwatch/lib/scrapers/webportal"
	"portalwatch/lib/serviceutil"
	"portalwatch/lib/telemetry"
	"portalwatch/lib/timezone"
	"portalwatch/services/monitor"
	"portalwatch/services/notifier"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal monitor daemon.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		tel, err := telemetry.SetupFromEnv(ctx, "portalwatch")
		if err != nil {
			serviceutil.Fatal("init telemetry", err)
		}
		defer tel.Shutdown(context.Background())
		if *verbose {
			telemetry.InstrumentPerfStats(ctx)
		}

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		portalClient, err := webportal.NewClient(webportal.ClientOptions{
			BaseUrl: cfg.Portal.BaseUrl,
		})
		if err != nil {
			serviceutil.Fatal("init portal client", err)
		}

		adapter := monitor.NewWebportalAdapter(portalClient)
		coreCfg, err := cfg.Monitor.Core()
		if err != nil {
			serviceutil.Fatal("validate config", err)
		}
		session := monitor.NewSessionManager(
			adapter,
			captcha.DefaultSolver{},
			monitor.Credentials{
				Username: cfg.Portal.Username,
				Password: cfg.Portal.Password,
			},
			coreCfg.TokenTTL,
		)

		tgClient := notifier.NewTelegramClient(notifier.TelegramOptions{
			Token: cfg.Telegram.Token,
		})
		channels := notifier.Multi{notifier.NewTelegram(tgClient, cfg.Telegram.ChatId)}
		if cfg.Email.Enabled {
			channels = append(channels, notifier.NewEmail(cfg.Email.Options()))
		}

		loop := monitor.NewLoop(monitor.LoopOptions{
			Session:  session,
			Portal:   adapter,
			Notifier: channels,
			Config:   coreCfg,
		})
		service := monitor.NewService(monitor.ServiceOptions{
			Loop:          loop,
			Session:       session,
			Portal:        adapter,
			Config:        coreCfg,
			QueryCacheTTL: time.Minute,
		})

		bot := notifier.NewBot(tgClient, service, cfg.Telegram.ChatId)

		mux := http.NewServeMux()
		if cfg.Telegram.Webhook {
			mux.Handle("/telegram/webhook", notifier.WebhookHandler(bot))
		} else {
			go notifier.Poll(ctx, tgClient, bot)
		}

		if cfg.Digest.Enabled {
			startDigest(ctx, cfg.Digest, service, channels)
		}

		// first login happens up front so the startup message can say
		// whether monitoring begins healthy or degraded
		_, loginErr := session.Ensure(ctx)
		if loginErr != nil {
			slog.ErrorContext(ctx, "initial portal login failed", "err", loginErr)
		}
		err = channels.SendAlert(ctx, monitor.AlertStartup, startupMessage(loop.Interval(), loginErr))
		if err != nil {
			slog.ErrorContext(ctx, "startup notification failed", "err", err)
		}

		go loop.Run(ctx)

		port := cfg.Port
		if port == 0 {
			port = 8000
		}
		go serviceutil.StartHttpServer(port, mux)
		<-ctx.Done()
	},
}

func startupMessage(interval time.Duration, loginErr error) string {
	if loginErr != nil {
		return "Portal monitor started in limited mode.\n" +
			"The first portal login failed, monitoring will keep retrying automatically.\n" +
			"Check interval: " + interval.String() +
			"\nSend /help for commands."
	}
	return "Portal monitor is up.\nCheck interval: " +
		interval.String() +
		"\nSend /help for commands."
}

func startDigest(ctx context.Context, cfg DigestConfig, service *monitor.Service, channels notifier.Multi) {
	spec := cfg.Cron
	if spec == "" {
		spec = "0 8 * * *"
	}

	scheduler := cron.New(cron.WithLocation(timezone.Location))
	_, err := scheduler.AddFunc(spec, func() {
		digest, err := service.DailyDigest(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "daily digest failed", "err", err)
			return
		}
		err = channels.SendAlert(ctx, monitor.AlertDigest, digest)
		if err != nil {
			slog.ErrorContext(ctx, "daily digest delivery failed", "err", err)
		}
	})
	if err != nil {
		serviceutil.Fatal("schedule daily digest", err)
	}

	scheduler.Start()
	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()
}
