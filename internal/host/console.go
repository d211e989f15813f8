package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/eventstore"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/world"
)

const tickUsage = "tick [n]"

type command struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(h *Host, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"join":        {"join <name> <x> <y> <z>", 4, 4, cmdJoin},
	"leave":       {"leave <name>", 1, 1, cmdLeave},
	"block":       {"block <x> <y> <z> <material>", 4, 4, cmdBlock},
	"crawl":       {"crawl <name>", 1, 1, cmdCrawl},
	"uncrawl":     {"uncrawl <name> [reason]", 1, 2, cmdUncrawl},
	"pose":        {"pose <name> <x> <y> <z> [variant]", 4, 5, cmdPose},
	"unpose":      {"unpose <name> [reason]", 1, 2, cmdUnpose},
	"kick":        {"kick <kicker> <x> <y> <z>", 4, 4, cmdKick},
	"who":         {"who <x> <y> <z>", 3, 3, cmdWho},
	"list":        {"list", 0, 0, cmdList},
	"stats":       {"stats", 0, 0, cmdStats},
	"reset-stats": {"reset-stats", 0, 0, cmdResetStats},
	"tick":        {tickUsage, 0, 1, cmdTick},
	"history":     {"history [name]", 0, 1, cmdHistory},
}

// Usage lists every console command.
func Usage() []string {
	out := make([]string, 0, len(commands))
	for _, name := range []string{"join", "leave", "block", "crawl", "uncrawl", "pose", "unpose", "kick", "who", "list", "stats", "reset-stats", "tick", "history"} {
		out = append(out, commands[name].usage)
	}
	return out
}

// Execute parses one console line and runs it on the host loop. Blank lines
// and lines starting with '#' are ignored.
func (h *Host) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "help" {
		for _, u := range Usage() {
			h.printf("  %s\n", u)
		}
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		return ferrors.ValidationError("unknown command").WithContext("command", name).Build()
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return usageError(cmd.usage)
	}

	var err error
	if doErr := h.Do(ctx, func() { err = cmd.run(h, ctx, args) }); doErr != nil {
		return doErr
	}
	return err
}

func usageError(usage string) error {
	return ferrors.ValidationError("usage: " + usage).Build()
}

func parseCoords(args []string) (x, y, z float64, err error) {
	vals := make([]float64, 3)
	for i := range vals {
		vals[i], err = strconv.ParseFloat(args[i], 64)
		if err != nil {
			return 0, 0, 0, ferrors.ValidationError("invalid coordinate").WithContext("value", args[i]).Build()
		}
	}
	return vals[0], vals[1], vals[2], nil
}

func (h *Host) parseCell(args []string) (world.Cell, error) {
	x, y, z, err := parseCoords(args)
	if err != nil {
		return world.Cell{}, err
	}
	return world.Location{World: h.world.Name(), X: x, Y: y, Z: z}.Cell(), nil
}

func parseReason(args []string, fallback attach.StopReason) (attach.StopReason, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	return attach.ParseStopReason(args[0])
}

func describeRejection(err error) string {
	switch {
	case errors.Is(err, attach.ErrVetoed):
		return "vetoed"
	case errors.Is(err, attach.ErrInvalidLocation):
		return "invalid location"
	case errors.Is(err, attach.ErrMaterializeFailed):
		return "could not be materialized"
	case errors.Is(err, attach.ErrAlreadyActive):
		return "already active"
	default:
		return err.Error()
	}
}

func cmdJoin(h *Host, _ context.Context, args []string) error {
	x, y, z, err := parseCoords(args[1:])
	if err != nil {
		return err
	}
	p := h.world.Join(args[0], x, y, z)
	h.printf("%s joined at %s\n", p.Name(), p.Location())
	return nil
}

func cmdLeave(h *Host, ctx context.Context, args []string) error {
	p, err := h.world.PlayerByName(args[0])
	if err != nil {
		return err
	}
	h.poses.Remove(ctx, p.ID(), attach.ReasonQuit)
	h.crawls.Stop(ctx, p.ID(), attach.ReasonQuit)
	if _, err := h.world.Leave(p.Name()); err != nil {
		return err
	}
	h.printf("%s left\n", p.Name())
	return nil
}

func cmdBlock(h *Host, ctx context.Context, args []string) error {
	cell, err := h.parseCell(args[:3])
	if err != nil {
		return err
	}
	material := world.Material(strings.ToUpper(args[3]))
	if material == world.Air {
		for _, p := range h.poses.Occupants(cell) {
			h.poses.Remove(ctx, p.Player().ID(), attach.ReasonBlockBreak)
		}
	}
	h.world.SetBlock(cell, material)
	h.printf("%s is now %s\n", cell, h.world.BlockAt(cell).Material)
	return nil
}

func cmdCrawl(h *Host, ctx context.Context, args []string) error {
	if !h.crawls.IsAvailable() {
		return ferrors.HostError("crawling is not supported by this server version").Build()
	}
	p, err := h.world.PlayerByName(args[0])
	if err != nil {
		return err
	}
	if _, err := h.crawls.Start(ctx, p); err != nil {
		h.printf("crawl for %s rejected: %s\n", p.Name(), describeRejection(err))
		return nil
	}
	h.printf("%s is crawling\n", p.Name())
	return nil
}

func cmdUncrawl(h *Host, ctx context.Context, args []string) error {
	p, err := h.world.PlayerByName(args[0])
	if err != nil {
		return err
	}
	reason, err := parseReason(args[1:], attach.ReasonGetUp)
	if err != nil {
		return err
	}
	if !h.crawls.Stop(ctx, p.ID(), reason) {
		h.printf("stopping crawl for %s was vetoed\n", p.Name())
		return nil
	}
	h.printf("%s stopped crawling\n", p.Name())
	return nil
}

func cmdPose(h *Host, ctx context.Context, args []string) error {
	if !h.poses.IsAvailable() {
		return ferrors.HostError("poses are not supported by this server version").Build()
	}
	p, err := h.world.PlayerByName(args[0])
	if err != nil {
		return err
	}
	cell, err := h.parseCell(args[1:4])
	if err != nil {
		return err
	}
	variant := attach.VariantSitting
	if len(args) == 5 {
		if variant, err = attach.ParseVariant(args[4]); err != nil {
			return err
		}
	}
	state, err := h.poses.CreateDefault(ctx, cell, p, variant)
	if err != nil {
		h.printf("pose for %s rejected: %s\n", p.Name(), describeRejection(err))
		return nil
	}
	h.printf("%s is %s at %s\n", p.Name(), state.Variant(), state.Cell())
	return nil
}

func cmdUnpose(h *Host, ctx context.Context, args []string) error {
	p, err := h.world.PlayerByName(args[0])
	if err != nil {
		return err
	}
	reason, err := parseReason(args[1:], attach.ReasonGetUp)
	if err != nil {
		return err
	}
	if !h.poses.Remove(ctx, p.ID(), reason) {
		h.printf("removing pose for %s was vetoed\n", p.Name())
		return nil
	}
	h.printf("%s got up at %s\n", p.Name(), p.Location())
	return nil
}

func cmdKick(h *Host, ctx context.Context, args []string) error {
	kicker, err := h.world.PlayerByName(args[0])
	if err != nil {
		return err
	}
	cell, err := h.parseCell(args[1:])
	if err != nil {
		return err
	}
	if !h.poses.KickAllAt(ctx, cell, kicker) {
		h.printf("kick at %s failed\n", cell)
		return nil
	}
	h.printf("%s is free\n", cell)
	return nil
}

func cmdWho(h *Host, _ context.Context, args []string) error {
	cell, err := h.parseCell(args)
	if err != nil {
		return err
	}
	occupants := h.poses.Occupants(cell)
	if len(occupants) == 0 {
		h.printf("%s is free\n", cell)
		return nil
	}
	names := make([]string, 0, len(occupants))
	for _, p := range occupants {
		names = append(names, fmt.Sprintf("%s (%s)", p.Player().Name(), p.Variant()))
	}
	material, _ := h.poses.OriginalMaterial(cell)
	h.printf("%s [%s]: %s\n", cell, material, strings.Join(names, ", "))
	return nil
}

func cmdList(h *Host, _ context.Context, _ []string) error {
	for _, c := range h.crawls.ListAll() {
		h.printf("crawl %s since %s\n", c.Player().Name(), c.Started().Format("15:04:05"))
	}
	for _, p := range h.poses.ListAll() {
		h.printf("pose  %s %s at %s since %s\n", p.Player().Name(), p.Variant(), p.Cell(), p.Started().Format("15:04:05"))
	}
	return nil
}

func cmdStats(h *Host, _ context.Context, _ []string) error {
	for _, s := range []struct {
		kind    attach.Kind
		count   int
		seconds int64
		active  int
	}{
		{attach.KindCrawl, h.crawls.UsageCount(), h.crawls.UsageSeconds(), len(h.crawls.ListAll())},
		{attach.KindPose, h.poses.UsageCount(), h.poses.UsageSeconds(), len(h.poses.ListAll())},
	} {
		h.printf("%-5s used=%d seconds=%d active=%d\n", s.kind, s.count, s.seconds, s.active)
	}
	return nil
}

func cmdResetStats(h *Host, _ context.Context, _ []string) error {
	h.crawls.ResetUsageStats()
	h.poses.ResetUsageStats()
	h.printf("usage statistics reset\n")
	return nil
}

func cmdTick(h *Host, _ context.Context, args []string) error {
	n := 1
	if len(args) == 1 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return usageError(tickUsage)
		}
	}
	for range n {
		h.queue.Advance()
	}
	h.printf("tick %d\n", h.queue.Tick())
	return nil
}

func cmdHistory(h *Host, _ context.Context, args []string) error {
	if h.history == nil {
		return ferrors.HostError("the session journal is disabled").Build()
	}
	summaries := h.history.All()
	if len(args) == 1 {
		p, ok := h.history.Get(world.OfflinePlayerID(args[0]).String())
		if !ok {
			h.printf("no history for %s\n", args[0])
			return nil
		}
		summaries = []eventstore.PlayerSummary{p}
	}
	for _, s := range summaries {
		h.printf("%s crawls=%d (%s) poses=%d (%s) last=%s\n",
			s.PlayerName, s.Crawls, s.CrawlTime, s.Poses, s.PoseTime, s.LastType)
	}
	return nil
}
