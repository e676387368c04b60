package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-bot/internal/api/http"
	"github.com/i474232898/weather-bot/internal/bot"
	"github.com/i474232898/weather-bot/internal/config"
	"github.com/i474232898/weather-bot/internal/scheduler"
	"github.com/i474232898/weather-bot/internal/store"
	"github.com/i474232898/weather-bot/internal/weather"
	"github.com/i474232898/weather-bot/internal/weather/providers"
)

func main() {
	root := &cobra.Command{
		Use:           "weather-bot",
		Short:         "Discord bot relaying OpenWeatherMap weather and forecasts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), registerCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ValidateRun(); err != nil {
				return err
			}
			return run(cfg)
		},
	}
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Replace the bot's slash commands (guild-scoped when GUILD_ID is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ValidateRegister(); err != nil {
				return err
			}

			session, err := discordgo.New("Bot " + cfg.DiscordToken)
			if err != nil {
				return fmt.Errorf("create discord session: %w", err)
			}

			log.Println("INFO: Started refreshing application (/) commands.")
			cmds, err := bot.Register(session, cfg.ApplicationID, cfg.GuildID)
			if err != nil {
				return fmt.Errorf("register commands: %w", err)
			}

			scope := "global"
			if cfg.GuildID != "" {
				scope = "guild"
			}
			log.Printf("INFO: Successfully reloaded %d %s application (/) commands.", len(cmds), scope)
			return nil
		},
	}
}

func run(cfg *config.AppConfig) error {
	zone, err := cfg.Location()
	if err != nil {
		return err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	provider := providers.NewRateLimited(owm, cfg.ProviderRPS, cfg.ProviderBurst)

	var geocoder weather.Geocoder
	if cfg.Geocoder == "google" {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleAPIKey)
	}
	gateway := weather.NewGateway(provider, geocoder)

	locations := store.NewLocationStore(cfg.LocationsFile)
	log.Printf("INFO: saved locations file: %s (%d saved)", locations.Path(), len(locations.Load()))

	sched := scheduler.New()

	dispatcher := bot.NewDispatcher(gateway, locations, zone)
	b := bot.New(dispatcher, sched, bot.Options{
		Prefix:         cfg.CommandPrefix,
		CommandTimeout: cfg.CommandTimeout,
		FollowUpDelay:  cfg.FollowUpDelay,
	})

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	b.Attach(session)

	// A rejected token fails here.
	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer session.Close()

	// Deferred after session.Close so it runs first: pending follow-ups are
	// dropped while the session is still open.
	sched.Start()
	defer func() {
		b.Close()
		sched.Stop()
	}()

	var app *fiber.App
	if cfg.HTTPEnabled() {
		app = httpapi.NewApp()
		httpapi.RegisterRoutes(app, gateway, locations, cfg.CommandTimeout)

		go func() {
			if err := app.Listen(":" + cfg.Port); err != nil {
				log.Printf("fiber server stopped: %v", err)
			}
		}()
	}

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("INFO: shutting down")

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}
	return nil
}
