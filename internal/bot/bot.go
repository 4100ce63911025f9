package bot

import (
	"context"
	"donorbot/internal/common"
	"donorbot/internal/ledger"
	"donorbot/internal/sweeper"
	"donorbot/internal/tiers"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

var ErrPermissionDenied = errors.New("administrator permissions required")

type Sweeper interface {
	Sweep(ctx context.Context) sweeper.Report
}

type Settings struct {
	GuildId         string
	SweepInterval   time.Duration
	MainCycle       time.Duration
	LeaderboardSize int
	HistorySize     int
}

type Bot struct {
	session         *discordgo.Session
	guildId         string
	ledger          *ledger.Ledger
	assigner        *tiers.Assigner
	sweepExecutor   common.TimedExecutor
	mainCycle       time.Duration
	leaderboardSize int
	historySize     int
	clock           common.Clock
}

func NewBot(session *discordgo.Session, settings Settings, ledger *ledger.Ledger, assigner *tiers.Assigner, sweeper Sweeper, clock common.Clock) *Bot {

	bot := &Bot{
		session:         session,
		guildId:         settings.GuildId,
		ledger:          ledger,
		assigner:        assigner,
		mainCycle:       settings.MainCycle,
		leaderboardSize: settings.LeaderboardSize,
		historySize:     settings.HistorySize,
		clock:           clock,
	}
	// Expiration sweep, checked on every main cycle
	bot.sweepExecutor = common.NewTimedExecutor(settings.SweepInterval, clock, func(ctx context.Context) {
		sweeper.Sweep(ctx)
	})
	return bot
}

// Connect to Discord, register the commands and run the main
// loop until the context is cancelled
func (bot *Bot) Run(ctx context.Context) error {

	bot.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	bot.session.AddHandler(func(discord *discordgo.Session, ready *discordgo.Ready) {
		log.Info().Str("user", ready.User.Username).Msg("Logged in")
	})
	bot.session.AddHandler(bot.Receive)

	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer bot.session.Close()

	if _, err := bot.session.ApplicationCommandBulkOverwrite(bot.session.State.User.ID, bot.guildId, Commands); err != nil {
		return fmt.Errorf("could not register commands in guild %s: %w", bot.guildId, err)
	}
	log.Info().Int("commands", len(Commands)).Msg("Commands synced")

	ticker := time.NewTicker(bot.mainCycle)
	defer ticker.Stop()

	log.Info().Msg("Starting main loop")
	bot.sweepExecutor.Execute(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping main loop")
			return nil
		case <-ticker.C:
			bot.sweepExecutor.Execute(ctx)
		}
	}
}

func (bot *Bot) Receive(discord *discordgo.Session, event *discordgo.InteractionCreate) {

	if event.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if event.GuildID != bot.guildId {
		log.Debug().Str("guild", event.GuildID).Msg("Ignoring interaction from another guild")
		return
	}

	response := bot.Handle(context.Background(), event.Interaction)
	respond(discord, event.Interaction, response)
}

// Compute the response to a slash command
func (bot *Bot) Handle(ctx context.Context, interaction *discordgo.Interaction) Response {

	data := interaction.ApplicationCommandData()
	caller := callerName(interaction)
	log.Debug().Str("command", data.Name).Str("caller", caller).Msg("Received command")

	parseResult := Parse(data)
	if parseResult.parseid != PARSEID_OK {
		log.Info().Str("command", data.Name).Msg(fmt.Sprintf("Wrong input. Reason: %s", parseResult.errorMessage))
		return InputNotValid(parseResult.errorMessage)
	}

	if parseResult.command != COMMAND_LEADERBOARD && !isAdministrator(interaction) {
		log.Info().Str("command", data.Name).Str("caller", caller).Err(ErrPermissionDenied).Msg("Rejecting command")
		return PermissionError()
	}

	switch parseResult.command {
	case COMMAND_DONATION_LOG:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of donation arguments %T", arguments))
		case DonationArguments:
			return bot.donationLog(arguments, caller)
		}
	case COMMAND_USER_DONATION:
		switch userId := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of user id %T", userId))
		case string:
			return bot.userDonation(userId, caller)
		}
	case COMMAND_LEADERBOARD:
		return bot.leaderboard(caller)
	case COMMAND_GRANT_TIER:
		switch arguments := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of grant arguments %T", arguments))
		case GrantArguments:
			return bot.grantTier(ctx, arguments, caller)
		}
	case COMMAND_USER_TIERS:
		switch userId := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of user id %T", userId))
		case string:
			return bot.userTiers(userId, caller)
		}
	default:
		panic(fmt.Sprintf("Command %d is not one of the possible ones", parseResult.command))
	}
}

func (bot *Bot) donationLog(arguments DonationArguments, caller string) Response {

	total, err := bot.ledger.RecordDonation(arguments.UserId, arguments.Amount)
	if err != nil {
		log.Error().Err(err).Str("user", arguments.UserId).Msg("Could not record donation")
		return ErrorNotice(err)
	}
	return DonationLogged(arguments.UserId, arguments.Amount, total, caller, bot.clock.Now())
}

func (bot *Bot) userDonation(userId string, caller string) Response {

	if !bot.ledger.HasDonated(userId) {
		return NoDonationsFound(userId, caller, bot.clock.Now())
	}
	history, _ := bot.ledger.History(userId)
	recent, _ := bot.ledger.Recent(userId, bot.historySize)
	return DonationHistory(userId, recent, len(history), bot.ledger.Total(userId), caller, bot.clock.Now())
}

func (bot *Bot) leaderboard(caller string) Response {
	return Leaderboard(bot.ledger.Leaderboard(bot.leaderboardSize), caller, bot.clock.Now())
}

func (bot *Bot) grantTier(ctx context.Context, arguments GrantArguments, caller string) Response {

	expiration, err := bot.assigner.Grant(ctx, arguments.UserId, arguments.Tier)
	switch {
	case err == nil:
		return TierGranted(arguments.UserId, tiers.Tier(arguments.Tier), expiration, caller, bot.clock.Now())
	case errors.Is(err, tiers.ErrNotEligible):
		log.Info().Str("user", arguments.UserId).Msg("User is not eligible for a tier")
		return ErrorNotice(fmt.Errorf("%s has no recorded donations", mention(arguments.UserId)))
	case errors.Is(err, tiers.ErrInvalidTier):
		return InputNotValid(fmt.Sprintf(errorMessages[PARSEID_NOT_A_TIER], arguments.Tier))
	default:
		log.Error().Err(err).Str("user", arguments.UserId).Str("tier", arguments.Tier).Msg("Could not grant tier")
		return ErrorNotice(err)
	}
}

func (bot *Bot) userTiers(userId string, caller string) Response {
	return UserTiers(userId, bot.assigner.Tiers(userId), caller, bot.clock.Now())
}

func isAdministrator(interaction *discordgo.Interaction) bool {
	return interaction.Member != nil && interaction.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func callerName(interaction *discordgo.Interaction) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.Username
	}
	if interaction.User != nil {
		return interaction.User.Username
	}
	return "unknown"
}
