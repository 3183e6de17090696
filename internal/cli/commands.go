// Package cli implements the interactive operator console: live listings
// of players, matches, channels, and groups, plus moderation commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/lagoon-project/lagoon/internal/bancho"
	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
)

// CLI provides an interactive command-line interface.
type CLI struct {
	cfg      *config.Config
	eventBus *events.EventBus
	bancho   *bancho.Bancho
}

// NewCLI creates a new CLI handler.
func NewCLI(cfg *config.Config, eventBus *events.EventBus, b *bancho.Bancho) *CLI {
	return &CLI{
		cfg:      cfg,
		eventBus: eventBus,
		bancho:   b,
	}
}

// Start begins the interactive CLI loop.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\nLagoon CLI ready. Type 'help' for available commands.")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("lagoon> ")
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "status", "s":
		c.printStatus()
	case "players", "p":
		c.printPlayers()
	case "matches", "m":
		c.printMatches()
	case "channels":
		c.printChannels()
	case "groups", "g":
		c.printGroups()
	case "pools":
		c.printPools()
	case "announce":
		return c.cmdAnnounce(args)
	case "abort":
		return c.cmdAbort(args)
	case "kick":
		return c.cmdKick(ctx, args)
	case "silence":
		return c.cmdSilence(args)
	case "quit", "exit", "q":
		fmt.Println("Shutting down Lagoon...")
		c.eventBus.Emit(ctx, events.Event{
			Type:   events.EventShutdown,
			Source: "cli",
		})
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

// printHelp displays available commands.
func (c *CLI) printHelp() {
	fmt.Println()
	fmt.Println("  status              Show server counters")
	fmt.Println("  players             List online players")
	fmt.Println("  matches             List live multiplayer matches")
	fmt.Println("  channels            List chat channels")
	fmt.Println("  groups              List live groups")
	fmt.Println("  pools               List tournament map pools")
	fmt.Println("  announce <ch> <msg> Send a bot message to a channel")
	fmt.Println("  abort <match-id>    Abort an in-progress match")
	fmt.Println("  kick <name>         Disconnect a player")
	fmt.Println("  silence <name> <m>  Silence a player for m minutes")
	fmt.Println("  quit                Shutdown Lagoon")
	fmt.Println("  help                Show this help message")
	fmt.Println()
}

func (c *CLI) printStatus() {
	w := c.bancho.World
	fmt.Printf("\n  Online players: %d\n", w.Players.Len())
	fmt.Printf("  Live matches:   %d\n", w.Matches.Len())
	fmt.Printf("  Live groups:    %d\n", w.Groups.Len())
	fmt.Printf("  Channels:       %d\n", len(w.Channels.All()))
	fmt.Println()
}

func (c *CLI) printPlayers() {
	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Name", "Action", "Mode", "Match", "Restricted"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, p := range c.bancho.World.Players.All() {
		st := p.Status()
		match := "-"
		if id := p.MatchID(); id != 0 {
			match = fmt.Sprintf("%d", id)
		}
		tw.Append([]string{
			fmt.Sprintf("%d", p.ID),
			p.DisplayName(),
			fmt.Sprintf("%d", st.Action),
			fmt.Sprintf("%d", st.Mode),
			match,
			fmt.Sprintf("%v", p.Restricted()),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) printMatches() {
	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Name", "Map", "Host", "Players", "In Progress"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, m := range c.bancho.World.Matches.All() {
		snap := m.Snapshot()
		tw.Append([]string{
			fmt.Sprintf("%d", m.ID),
			snap.Name,
			snap.MapName,
			fmt.Sprintf("%d", snap.HostID),
			fmt.Sprintf("%d", len(m.SeatedIDs())),
			fmt.Sprintf("%v", snap.InProgress),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) printChannels() {
	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Name", "Topic", "Members", "Instanced"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, ch := range c.bancho.World.Channels.All() {
		tw.Append([]string{
			ch.Name,
			ch.Topic,
			fmt.Sprintf("%d", ch.NumMembers()),
			fmt.Sprintf("%v", ch.Instanced),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) printGroups() {
	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Token", "Lead", "Members"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, g := range c.bancho.World.Groups.All() {
		tw.Append([]string{
			g.Token,
			fmt.Sprintf("%d", g.LeadID()),
			fmt.Sprintf("%d", len(g.MemberIDs())),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) printPools() {
	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"ID", "Name", "Created By"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, p := range c.bancho.World.Pools.All() {
		tw.Append([]string{
			fmt.Sprintf("%d", p.ID),
			p.Name,
			fmt.Sprintf("%d", p.CreatedBy),
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) cmdAnnounce(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: announce <channel> <message>")
	}

	ch := c.bancho.World.Channels.GetByName(args[0])
	if ch == nil {
		return fmt.Errorf("channel %s not found", args[0])
	}

	ch.SendBot(strings.Join(args[1:], " "))
	fmt.Printf("Announcement sent to %s\n", ch.Name)
	return nil
}

func (c *CLI) cmdAbort(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: abort <match-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad match id %q", args[0])
	}
	m := c.bancho.World.Matches.Get(int32(id))
	if m == nil {
		return fmt.Errorf("match %d not found", id)
	}
	if !m.InProgress() {
		return fmt.Errorf("match %d is not in progress", id)
	}

	m.Abort()
	abort := protocol.MatchAbort()
	for _, pid := range m.SeatedIDs() {
		if seated := c.bancho.World.Players.GetID(pid); seated != nil {
			seated.Enqueue(abort)
		}
	}
	c.bancho.World.BroadcastMatch(m)
	fmt.Printf("Aborted match %d\n", id)
	return nil
}

func (c *CLI) cmdSilence(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: silence <name> <minutes>")
	}

	minutes, err := strconv.Atoi(args[len(args)-1])
	if err != nil || minutes < 1 {
		return fmt.Errorf("bad duration %q", args[len(args)-1])
	}
	p := c.bancho.World.Players.GetName(strings.Join(args[:len(args)-1], " "))
	if p == nil {
		return fmt.Errorf("player not online")
	}

	d := time.Duration(minutes) * time.Minute
	p.Silence(d)
	p.Enqueue(protocol.SilenceEnd(int32(d / time.Second)))
	p.Enqueue(protocol.Notification(fmt.Sprintf("You have been silenced for %d minutes.", minutes)))
	fmt.Printf("Silenced %s for %d minutes\n", p.Name, minutes)
	return nil
}

func (c *CLI) cmdKick(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: kick <name>")
	}

	p := c.bancho.World.Players.GetName(strings.Join(args, " "))
	if p == nil {
		return fmt.Errorf("player not online")
	}

	p.Enqueue(protocol.Notification("You have been disconnected by an administrator."))
	p.Enqueue(protocol.Restart(0))
	c.bancho.LogoutPlayer(ctx, p, "kicked")
	fmt.Printf("Kicked %s\n", p.Name)
	return nil
}
