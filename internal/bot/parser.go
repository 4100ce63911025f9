package bot

import (
	"donorbot/internal/tiers"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	COMMAND_DONATION_LOG  = iota
	COMMAND_USER_DONATION = iota
	COMMAND_LEADERBOARD   = iota
	COMMAND_GRANT_TIER    = iota
	COMMAND_USER_TIERS    = iota
)

const (
	PARSEID_OK                     = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_NO_INPUT               = iota
	PARSEID_NOT_A_USER_ID          = iota
	PARSEID_NOT_AN_AMOUNT          = iota
	PARSEID_NOT_A_TIER             = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_NO_INPUT:               "Command `%s` requires the option `%s`",
	PARSEID_NOT_A_USER_ID:          "Input `%v` is not a user id",
	PARSEID_NOT_AN_AMOUNT:          "Input `%v` is not a positive amount",
	PARSEID_NOT_A_TIER:             "Input `%v` is not a tier",
}

var administrator int64 = discordgo.PermissionAdministrator

var minAmount float64 = 1

// Slash commands registered in the guild
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:                     "donation_log",
		Description:              "Record a donation from a user",
		DefaultMemberPermissions: &administrator,
		Options: []*discordgo.ApplicationCommandOption{
			userIdOption(),
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Amount donated",
				Required:    true,
				MinValue:    &minAmount,
			},
		},
	},
	{
		Name:                     "user_donation",
		Description:              "Check donations made by a specific user",
		DefaultMemberPermissions: &administrator,
		Options:                  []*discordgo.ApplicationCommandOption{userIdOption()},
	},
	{
		Name:        "leaderboard",
		Description: "Display the top donors by total donation amount",
	},
	{
		Name:                     "grant_tier",
		Description:              "Grant a membership tier to a donor",
		DefaultMemberPermissions: &administrator,
		Options: []*discordgo.ApplicationCommandOption{
			userIdOption(),
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "tier",
				Description: "Tier to grant",
				Required:    true,
				Choices:     tierChoices(),
			},
		},
	},
	{
		Name:                     "user_tiers",
		Description:              "Check the membership tiers held by a user",
		DefaultMemberPermissions: &administrator,
		Options:                  []*discordgo.ApplicationCommandOption{userIdOption()},
	},
}

func userIdOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "user_id",
		Description: "Id or mention of the user",
		Required:    true,
	}
}

func tierChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, tier := range tiers.Elevated {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: tier.Label(), Value: string(tier)})
	}
	return choices
}

type DonationArguments struct {
	UserId string
	Amount int
}

type GrantArguments struct {
	UserId string
	Tier   string
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

func Parse(data discordgo.ApplicationCommandInteractionData) ParseResult {

	options := make(map[string]interface{}, len(data.Options))
	for _, option := range data.Options {
		options[option.Name] = option.Value
	}

	// Every command but the leaderboard takes a user id first
	var userId string
	if data.Name != "leaderboard" {
		raw, ok := options["user_id"]
		if !ok {
			parseid := PARSEID_NO_INPUT
			return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name, "user_id")}
		}
		if userId, ok = parseUserId(raw); !ok {
			parseid := PARSEID_NOT_A_USER_ID
			return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], raw)}
		}
	}

	switch data.Name {
	case "donation_log":
		// donation_log <user_id> <amount>
		command := COMMAND_DONATION_LOG
		raw, ok := options["amount"]
		if !ok {
			parseid := PARSEID_NO_INPUT
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name, "amount")}
		}
		amount, ok := parseAmount(raw)
		if !ok {
			parseid := PARSEID_NOT_AN_AMOUNT
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], raw)}
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: DonationArguments{userId, amount}}
	case "user_donation":
		// user_donation <user_id>
		return ParseResult{command: COMMAND_USER_DONATION, parseid: PARSEID_OK, arguments: userId}
	case "leaderboard":
		// leaderboard
		return ParseResult{command: COMMAND_LEADERBOARD, parseid: PARSEID_OK}
	case "grant_tier":
		// grant_tier <user_id> <tier>
		command := COMMAND_GRANT_TIER
		raw, ok := options["tier"]
		if !ok {
			parseid := PARSEID_NO_INPUT
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name, "tier")}
		}
		tier, ok := raw.(string)
		if !ok || tier == "" {
			parseid := PARSEID_NOT_A_TIER
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], raw)}
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: GrantArguments{userId, strings.ToLower(tier)}}
	case "user_tiers":
		// user_tiers <user_id>
		return ParseResult{command: COMMAND_USER_TIERS, parseid: PARSEID_OK, arguments: userId}
	default:
		log.Debug().Str("command", data.Name).Msg("Unknown command")
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name)}
	}
}

// Accept both raw ids and mentions like <@123> or <@!123>
func parseUserId(raw interface{}) (string, bool) {
	word, ok := raw.(string)
	if !ok {
		return "", false
	}
	word = strings.TrimSpace(word)
	if strings.HasPrefix(word, "<@") && strings.HasSuffix(word, ">") {
		word = strings.TrimPrefix(word[2:len(word)-1], "!")
	}
	if word == "" {
		return "", false
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return word, true
}

// Integer options arrive as JSON numbers
func parseAmount(raw interface{}) (int, bool) {
	var amount int
	switch value := raw.(type) {
	case float64:
		if value != float64(int(value)) {
			return 0, false
		}
		amount = int(value)
	case int:
		amount = value
	case int64:
		amount = int(value)
	default:
		return 0, false
	}
	return amount, amount > 0
}
