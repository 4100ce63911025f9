package bot

import (
	"context"
	"donorbot/internal/sweeper"
	"donorbot/internal/tiers"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Maximum page size accepted by the guild members endpoint
const membersPage = 1000

// Roles maps tiers to guild roles named after the tier label
type Roles struct {
	session *discordgo.Session
	guildId string
}

func NewRoles(session *discordgo.Session, guildId string) *Roles {
	return &Roles{session, guildId}
}

// Give the user the role of the tier and the donor role,
// creating them if the guild does not have them yet
func (roles *Roles) ActivateTier(ctx context.Context, userId string, label string, color int) error {

	donorId, err := roles.ensureRole(ctx, tiers.Donor.Label(), tiers.Donor.Color())
	if err != nil {
		return err
	}
	tierId, err := roles.ensureRole(ctx, label, color)
	if err != nil {
		return err
	}

	for _, roleId := range []string{donorId, tierId} {
		if err := roles.session.GuildMemberRoleAdd(roles.guildId, userId, roleId, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("could not add role %s to user %s: %w", roleId, userId, err)
		}
	}
	log.Debug().Str("user", userId).Str("role", label).Msg("Roles added")
	return nil
}

func (roles *Roles) Members(ctx context.Context) (map[string]struct{}, error) {

	members := map[string]struct{}{}
	after := ""
	for {
		page, err := roles.session.GuildMembers(roles.guildId, after, membersPage, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("could not list members of guild %s: %w", roles.guildId, err)
		}
		for _, member := range page {
			if member.User != nil {
				members[member.User.ID] = struct{}{}
				after = member.User.ID
			}
		}
		if len(page) < membersPage {
			return members, nil
		}
	}
}

func (roles *Roles) RemoveRole(ctx context.Context, userId string, label string) error {

	roleId, found, err := roles.findRole(ctx, label)
	if err != nil {
		return err
	}
	if !found {
		log.Debug().Str("role", label).Msg("Role does not exist, nothing to remove")
		return nil
	}

	err = roles.session.GuildMemberRoleRemove(roles.guildId, userId, roleId, discordgo.WithContext(ctx))
	switch statusCode(err) {
	case 0:
		return err
	case http.StatusForbidden:
		return fmt.Errorf("%w: role %s of user %s: %v", sweeper.ErrRevocationDenied, label, userId, err)
	case http.StatusNotFound:
		// Member or role vanished meanwhile
		return nil
	default:
		return fmt.Errorf("could not remove role %s from user %s: %w", label, userId, err)
	}
}

func (roles *Roles) findRole(ctx context.Context, label string) (string, bool, error) {
	guildRoles, err := roles.session.GuildRoles(roles.guildId, discordgo.WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("could not list roles of guild %s: %w", roles.guildId, err)
	}
	for _, role := range guildRoles {
		if role.Name == label {
			return role.ID, true, nil
		}
	}
	return "", false, nil
}

func (roles *Roles) ensureRole(ctx context.Context, label string, color int) (string, error) {

	roleId, found, err := roles.findRole(ctx, label)
	if err != nil || found {
		return roleId, err
	}

	log.Info().Str("role", label).Msg("Creating role")
	role, err := roles.session.GuildRoleCreate(roles.guildId, &discordgo.RoleParams{Name: label, Color: &color}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("could not create role %s: %w", label, err)
	}
	return role.ID, nil
}

// HTTP status of a Discord REST error, 0 when there is no error
func statusCode(err error) int {
	if err == nil {
		return 0
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return -1
}
