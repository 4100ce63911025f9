package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Everything the bot answers to an interaction
type Response interface {
	Data() *discordgo.InteractionResponseData
}

// An embed visible to the whole channel
type ResponseEmbed struct {
	discordgo.MessageEmbed
}

// An embed only the caller can see
type ResponseNotice struct {
	discordgo.MessageEmbed
}

func (response ResponseEmbed) Data() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{&response.MessageEmbed}}
}

func (response ResponseNotice) Data() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{&response.MessageEmbed},
		Flags:  discordgo.MessageFlagsEphemeral,
	}
}

func respond(discord *discordgo.Session, interaction *discordgo.Interaction, response Response) {
	err := discord.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: response.Data(),
	})
	if err != nil {
		log.Error().Err(err).Str("interaction", interaction.ID).Msg("Could not respond to interaction")
	}
}
