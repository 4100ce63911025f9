package bot

import (
	"donorbot/internal/ledger"
	"donorbot/internal/tiers"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Use "gold" color for the bot
const color int = 0xF5CB7A

func mention(userId string) string {
	return fmt.Sprintf("<@%s>", userId)
}

func footer(prefix string, caller string) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s by %s", prefix, caller)}
}

func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}

func DonationLogged(userId string, amount int, total int, caller string, now time.Time) Response {

	embed := discordgo.MessageEmbed{
		Title:       "Donation Logged",
		Description: "A new donation has been recorded",
		Color:       color,
		Timestamp:   timestamp(now),
		Footer:      footer("Logged", caller),
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "User", Value: mention(userId)},
		&discordgo.MessageEmbedField{Name: "Amount", Value: fmt.Sprint(amount)},
		&discordgo.MessageEmbedField{Name: "Total Donations", Value: fmt.Sprint(total)},
	)
	return ResponseEmbed{embed}
}

// History of a user. Only the most recent donations are provided
// when the full history is longer than count
func DonationHistory(userId string, recent []int, count int, total int, caller string, now time.Time) Response {

	embed := discordgo.MessageEmbed{
		Title:       "Donation History",
		Description: fmt.Sprintf("Donation history for %s", mention(userId)),
		Color:       color,
		Timestamp:   timestamp(now),
		Footer:      footer("Requested", caller),
	}

	lines := make([]string, len(recent))
	for i, amount := range recent {
		lines[i] = fmt.Sprintf("• %d", amount)
	}
	if len(recent) < count {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Recent Donations", Value: strings.Join(lines, "\n")},
			&discordgo.MessageEmbedField{Name: "Note", Value: fmt.Sprintf("Only showing the %d most recent donations", len(recent))},
		)
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "All Donations", Value: strings.Join(lines, "\n")})
	}

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Number of Donations", Value: fmt.Sprint(count)},
		&discordgo.MessageEmbedField{Name: "Total Amount", Value: fmt.Sprint(total)},
	)
	return ResponseEmbed{embed}
}

func NoDonationsFound(userId string, caller string, now time.Time) Response {
	return ResponseEmbed{discordgo.MessageEmbed{
		Title:       "No Donations Found",
		Description: fmt.Sprintf("No donations have been recorded for %s", mention(userId)),
		Color:       color,
		Timestamp:   timestamp(now),
		Footer:      footer("Requested", caller),
	}}
}

func Leaderboard(entries []ledger.Entry, caller string, now time.Time) Response {

	if len(entries) == 0 {
		return ResponseEmbed{discordgo.MessageEmbed{
			Title:       "Donation Leaderboard",
			Description: "No donations have been recorded yet.",
			Color:       color,
			Timestamp:   timestamp(now),
		}}
	}

	embed := discordgo.MessageEmbed{
		Title:       "Donation Leaderboard",
		Description: "Top donors by total donation amount",
		Color:       color,
		Timestamp:   timestamp(now),
		Footer:      footer("Requested", caller),
	}
	for i, entry := range entries {
		place := i + 1
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%sPlace", placePrefix(place)),
			Value:  fmt.Sprintf("%s\nTotal: %d", mention(entry.UserId), entry.Total),
			Inline: place > 3,
		})
	}
	return ResponseEmbed{embed}
}

func placePrefix(place int) string {
	switch place {
	case 1:
		return "🥇・"
	case 2:
		return "🥈・"
	case 3:
		return "🥉・"
	default:
		return fmt.Sprintf("#%d ", place)
	}
}

func TierGranted(userId string, tier tiers.Tier, expiration tiers.Expiration, caller string, now time.Time) Response {
	embed := discordgo.MessageEmbed{
		Title:       "Tier Granted",
		Description: fmt.Sprintf("%s is now %s", mention(userId), tier.Label()),
		Color:       tier.Color(),
		Timestamp:   timestamp(now),
		Footer:      footer("Granted", caller),
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Expires", Value: FormatExpiration(expiration)})
	return ResponseEmbed{embed}
}

func UserTiers(userId string, held map[tiers.Tier]tiers.Expiration, caller string, now time.Time) Response {

	embed := discordgo.MessageEmbed{
		Title:     "Membership Tiers",
		Color:     color,
		Timestamp: timestamp(now),
		Footer:    footer("Requested", caller),
	}
	if len(held) == 0 {
		embed.Description = fmt.Sprintf("%s holds no tier", mention(userId))
		return ResponseEmbed{embed}
	}

	embed.Description = fmt.Sprintf("Tiers held by %s", mention(userId))
	for _, tier := range append([]tiers.Tier{tiers.Donor}, tiers.Elevated...) {
		if expiration, ok := held[tier]; ok {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: tier.Label(), Value: FormatExpiration(expiration)})
		}
	}
	return ResponseEmbed{embed}
}

// Discord renders <t:unix:F> in the reader's own timezone
func FormatExpiration(expiration tiers.Expiration) string {
	if expiration.IsNever() {
		return "Never"
	}
	return fmt.Sprintf("<t:%d:F>", expiration.At().Unix())
}

func PermissionError() Response {
	return ResponseNotice{discordgo.MessageEmbed{
		Title:       "Permission Error",
		Description: "You need administrator permissions to use this command.",
		Color:       color,
	}}
}

func InputNotValid(errorMessage string) Response {
	return ResponseNotice{discordgo.MessageEmbed{
		Title:       "Input Not Valid",
		Description: errorMessage,
		Color:       color,
	}}
}

func ErrorNotice(err error) Response {
	return ResponseNotice{discordgo.MessageEmbed{
		Title:       "Error",
		Description: fmt.Sprintf("An error occurred: %s", err),
		Color:       color,
	}}
}
