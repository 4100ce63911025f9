package bot

import (
	"context"
	"donorbot/internal/ledger"
	"donorbot/internal/sweeper"
	"donorbot/internal/tiers"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type fakeActivator struct {
	err error
}

func (a *fakeActivator) ActivateTier(context.Context, string, string, int) error {
	return a.err
}

type countingSweeper struct {
	passes int
}

func (s *countingSweeper) Sweep(context.Context) sweeper.Report {
	s.passes++
	return sweeper.Report{}
}

type fixture struct {
	bot       *Bot
	ledger    *ledger.Ledger
	grants    *tiers.Grants
	activator *fakeActivator
	clock     *fakeClock
	sweeper   *countingSweeper
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	ledgerDb := ledger.NewDatabaseLedger(filepath.Join(dir, "donations.json"))
	donations, err := ledger.NewLedger(&ledgerDb)
	if err != nil {
		t.Fatal(err)
	}
	tiersDb := tiers.NewDatabaseTiers(filepath.Join(dir, "expirations.json"))
	grants, err := tiers.NewGrants(&tiersDb)
	if err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	activator := &fakeActivator{}
	assigner := tiers.NewAssigner(donations, grants, activator, clock)
	sweep := &countingSweeper{}
	settings := Settings{
		GuildId:         "guild",
		SweepInterval:   6 * time.Hour,
		MainCycle:       time.Minute,
		LeaderboardSize: 10,
		HistorySize:     25,
	}
	return fixture{NewBot(nil, settings, donations, assigner, sweep, clock), donations, grants, activator, clock, sweep}
}

func command(name string, admin bool, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	var permissions int64
	if admin {
		permissions = discordgo.PermissionAdministrator
	}
	return &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "guild",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "1", Username: "treasurer"},
			Permissions: permissions,
		},
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	}
}

func stringOption(name string, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func intOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}

func embedOf(t *testing.T, response Response) *discordgo.MessageEmbed {
	t.Helper()
	data := response.Data()
	if len(data.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(data.Embeds))
	}
	return data.Embeds[0]
}

func fieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	for _, field := range embed.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

func TestDonationLogCommand(t *testing.T) {
	f := newFixture(t)

	f.bot.Handle(context.Background(), command("donation_log", true, stringOption("user_id", "42"), intOption("amount", 100)))
	response := f.bot.Handle(context.Background(), command("donation_log", true, stringOption("user_id", "<@42>"), intOption("amount", 50)))

	embed := embedOf(t, response)
	if embed.Title != "Donation Logged" {
		t.Fatalf("title mismatch: got %q", embed.Title)
	}
	if total, _ := fieldValue(embed, "Total Donations"); total != "150" {
		t.Fatalf("total mismatch: got %q want 150", total)
	}
	if embed.Footer == nil || embed.Footer.Text != "Logged by treasurer" {
		t.Fatalf("footer mismatch: %+v", embed.Footer)
	}
	if f.ledger.Total("42") != 150 {
		t.Fatalf("ledger total: got %d want 150", f.ledger.Total("42"))
	}
}

func TestAdministratorCommandsRequirePermission(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"donation_log", "user_donation", "grant_tier", "user_tiers"} {
		interaction := command(name, false, stringOption("user_id", "42"), intOption("amount", 10), stringOption("tier", "orbital"))
		response := f.bot.Handle(context.Background(), interaction)
		if response.Data().Flags&discordgo.MessageFlagsEphemeral == 0 {
			t.Fatalf("%s: permission errors must be ephemeral", name)
		}
		if embedOf(t, response).Title != "Permission Error" {
			t.Fatalf("%s: got %q want Permission Error", name, embedOf(t, response).Title)
		}
	}
	if _, ok := f.ledger.History("42"); ok {
		t.Fatal("a rejected command must not record anything")
	}
}

func TestUserDonationCommand(t *testing.T) {
	f := newFixture(t)

	response := f.bot.Handle(context.Background(), command("user_donation", true, stringOption("user_id", "42")))
	if embedOf(t, response).Title != "No Donations Found" {
		t.Fatalf("got %q want No Donations Found", embedOf(t, response).Title)
	}

	for i := 1; i <= 30; i++ {
		f.ledger.RecordDonation("42", i)
	}
	embed := embedOf(t, f.bot.Handle(context.Background(), command("user_donation", true, stringOption("user_id", "42"))))

	recent, ok := fieldValue(embed, "Recent Donations")
	if !ok || strings.Count(recent, "\n") != 24 || !strings.HasPrefix(recent, "• 6") {
		t.Fatalf("recent donations mismatch: %q", recent)
	}
	if count, _ := fieldValue(embed, "Number of Donations"); count != "30" {
		t.Fatalf("count mismatch: got %q want 30", count)
	}
	if total, _ := fieldValue(embed, "Total Amount"); total != "465" {
		t.Fatalf("total mismatch: got %q want 465", total)
	}
}

func TestLeaderboardCommand(t *testing.T) {
	f := newFixture(t)

	embed := embedOf(t, f.bot.Handle(context.Background(), command("leaderboard", false)))
	if embed.Description != "No donations have been recorded yet." {
		t.Fatalf("empty leaderboard mismatch: %q", embed.Description)
	}

	f.ledger.RecordDonation("1", 10)
	f.ledger.RecordDonation("2", 50)
	f.ledger.RecordDonation("3", 20)

	embed = embedOf(t, f.bot.Handle(context.Background(), command("leaderboard", false)))
	if len(embed.Fields) != 3 {
		t.Fatalf("expected 3 places, got %d", len(embed.Fields))
	}
	want := []string{"<@2>\nTotal: 50", "<@3>\nTotal: 20", "<@1>\nTotal: 10"}
	for i, field := range embed.Fields {
		if field.Value != want[i] {
			t.Fatalf("place %d: got %q want %q", i+1, field.Value, want[i])
		}
	}
}

func TestGrantTierCommand(t *testing.T) {
	f := newFixture(t)

	response := f.bot.Handle(context.Background(), command("grant_tier", true, stringOption("user_id", "7"), stringOption("tier", "orbital")))
	if response.Data().Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatal("an ineligible grant answers with a notice")
	}
	if f.grants.Users() != 0 {
		t.Fatal("an ineligible grant must not be stored")
	}

	f.ledger.RecordDonation("7", 5)
	embed := embedOf(t, f.bot.Handle(context.Background(), command("grant_tier", true, stringOption("user_id", "7"), stringOption("tier", "orbital"))))
	if embed.Title != "Tier Granted" {
		t.Fatalf("title mismatch: got %q", embed.Title)
	}
	held := f.grants.Of("7")
	want := tiers.ExpiresAt(f.clock.now.Add(30 * 24 * time.Hour))
	if !held[tiers.Donor].Equal(want) || !held[tiers.Orbital].Equal(want) {
		t.Fatalf("stored tiers mismatch: %v", held)
	}

	embed = embedOf(t, f.bot.Handle(context.Background(), command("user_tiers", true, stringOption("user_id", "7"))))
	if len(embed.Fields) != 2 || embed.Fields[0].Name != "Donor" || embed.Fields[1].Name != "Orbital" {
		t.Fatalf("user tiers mismatch: %+v", embed.Fields)
	}
}

func TestGrantTierActivationFailure(t *testing.T) {
	f := newFixture(t)
	f.ledger.RecordDonation("7", 5)
	f.activator.err = errors.New("missing access")

	response := f.bot.Handle(context.Background(), command("grant_tier", true, stringOption("user_id", "7"), stringOption("tier", "cosmic")))
	if embedOf(t, response).Title != "Error" {
		t.Fatalf("got %q want Error", embedOf(t, response).Title)
	}
	if f.grants.Users() != 0 {
		t.Fatal("a failed activation must not be stored")
	}
}

func TestSweepExecutorRunsOncePerInterval(t *testing.T) {
	f := newFixture(t)

	f.bot.sweepExecutor.Execute(context.Background())
	f.clock.now = f.clock.now.Add(time.Hour)
	f.bot.sweepExecutor.Execute(context.Background())
	if f.sweeper.passes != 1 {
		t.Fatalf("passes after 1h: got %d want 1", f.sweeper.passes)
	}

	f.clock.now = f.clock.now.Add(5 * time.Hour)
	f.bot.sweepExecutor.Execute(context.Background())
	if f.sweeper.passes != 2 {
		t.Fatalf("passes after 6h: got %d want 2", f.sweeper.passes)
	}
}

func TestUserDonationWithEmptyRecord(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "donations.json")
	if err := os.WriteFile(filename, []byte(`{"42":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	db := ledger.NewDatabaseLedger(filename)
	donations, err := ledger.NewLedger(&db)
	if err != nil {
		t.Fatal(err)
	}
	clock := &fakeClock{time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	settings := Settings{GuildId: "guild", SweepInterval: time.Hour, MainCycle: time.Minute, LeaderboardSize: 10, HistorySize: 25}
	bot := NewBot(nil, settings, donations, nil, &countingSweeper{}, clock)

	embed := embedOf(t, bot.Handle(context.Background(), command("user_donation", true, stringOption("user_id", "42"))))
	if embed.Title != "No Donations Found" {
		t.Fatalf("got %q want No Donations Found", embed.Title)
	}
	for _, field := range embed.Fields {
		if field.Value == "" {
			t.Fatalf("field %q has an empty value", field.Name)
		}
	}
}
