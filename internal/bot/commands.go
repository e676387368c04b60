package bot

import "github.com/bwmarrin/discordgo"

func locationOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "location",
		Description: description,
		Required:    required,
	}
}

// Commands is the slash command schema pushed by the register command.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CmdWeather,
			Description: "Get weather information",
			Options: []*discordgo.ApplicationCommandOption{
				locationOption("The location to get weather for (optional)", false),
			},
		},
		{
			Name:        CmdAddLocation,
			Description: "Add a location to saved locations",
			Options: []*discordgo.ApplicationCommandOption{
				locationOption("The location to add", true),
			},
		},
		{
			Name:        CmdRemoveLocation,
			Description: "Remove a location from saved locations",
			Options: []*discordgo.ApplicationCommandOption{
				locationOption("The location to remove", true),
			},
		},
		{
			Name:        CmdListLocations,
			Description: "List all saved locations",
		},
		{
			Name:        CmdForecast,
			Description: "Get 5-day weather forecast",
			Options: []*discordgo.ApplicationCommandOption{
				locationOption("The location to get forecast for", true),
			},
		},
		{
			Name:        CmdHelp,
			Description: "Show help for weather bot commands",
		},
	}
}

// CommandRegistrar is the part of *discordgo.Session used for registration.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Register replaces the whole command set, in one guild when guildID is set
// and globally otherwise.
func Register(r CommandRegistrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return r.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
}
