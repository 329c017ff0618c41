// Package shell is an interactive line editor over an editing session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/heimdex/clipforge/internal/editor"
	"github.com/heimdex/clipforge/internal/export"
	"github.com/heimdex/clipforge/internal/logging"
	"github.com/heimdex/clipforge/internal/store"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrAmbiguousID    = errors.New("ambiguous id prefix")
)

// Assets is the read side of the media library.
type Assets interface {
	GetAsset(ctx context.Context, id string) (*store.Asset, error)
	ListAssets(ctx context.Context) ([]*store.Asset, error)
}

type Importer interface {
	Import(ctx context.Context, src string) (*store.Asset, error)
}

type Config struct {
	Session     *editor.Session
	Assets      Assets
	Importer    Importer
	Exporter    export.Backend
	Templates   *templates.Catalog
	ExportsDir  string
	MediaDir    string
	HistoryFile string
	Out         io.Writer
	Logger      *slog.Logger
}

type Shell struct {
	cfg    Config
	out    io.Writer
	logger *slog.Logger
}

func New(cfg Config) *Shell {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Shell{
		cfg:    cfg,
		out:    out,
		logger: logging.WithComponent(cfg.Logger, "shell"),
	}
}

type command struct {
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, args []string, rest string) error
}

var commandTable map[string]command

func init() {
	commandTable = map[string]command{
		"help":      {"help", "show this help", (*Shell).cmdHelp},
		"status":    {"status", "project, version and history", (*Shell).cmdStatus},
		"tracks":    {"tracks", "list tracks", (*Shell).cmdTracks},
		"clips":     {"clips", "list clips by start time", (*Shell).cmdClips},
		"media":     {"media", "list imported media", (*Shell).cmdMedia},
		"import":    {"import <path>", "copy a video into the library", (*Shell).cmdImport},
		"add":       {"add <asset> [start]", "place an asset on the first video track", (*Shell).cmdAdd},
		"templates": {"templates", "list title and sticker templates", (*Shell).cmdTemplates},
		"template":  {"template <id> [start]", "place a title or sticker template", (*Shell).cmdTemplate},
		"move":      {"move <clip> <start> [snap]", "set a clip's start time", (*Shell).cmdMove},
		"trim":      {"trim <clip> <duration>", "set a clip's duration", (*Shell).cmdTrim},
		"split":     {"split <clip> <time>", "split a clip at a timeline time", (*Shell).cmdSplit},
		"filter":    {"filter <clip> <name|clear>", "set a clip's filter", (*Shell).cmdFilter},
		"global":    {"global <name|clear>", "set the sequence filter", (*Shell).cmdGlobal},
		"delete":    {"delete <clip>", "remove a clip", (*Shell).cmdDelete},
		"retrack":   {"retrack <clip> <track>", "move a clip to another track", (*Shell).cmdRetrack},
		"select":    {"select <clip|none>", "change the selection", (*Shell).cmdSelect},
		"snap":      {"snap <time>", "show where a time snaps to", (*Shell).cmdSnap},
		"undo":      {"undo", "undo the last edit", (*Shell).cmdUndo},
		"redo":      {"redo", "redo the last undone edit", (*Shell).cmdRedo},
		"plan":      {"plan", "resolve and summarize the composition", (*Shell).cmdPlan},
		"effect":    {"effect <time>", "effect visible at a time", (*Shell).cmdEffect},
		"export":    {"export [title]", "write an EDL", (*Shell).cmdExport},
		"save":      {"save", "persist the project now", (*Shell).cmdSave},
	}
}

func commandNames() []string {
	names := make([]string, 0, len(commandTable)+2)
	for name := range commandTable {
		names = append(names, name)
	}
	names = append(names, "exit", "quit")
	slices.Sort(names)
	return names
}

func completer() readline.AutoCompleter {
	filters := make([]readline.PrefixCompleterInterface, 0, len(timeline.Filters)+1)
	for _, f := range timeline.Filters {
		filters = append(filters, readline.PcItem(string(f)))
	}
	filters = append(filters, readline.PcItem("clear"))

	items := make([]readline.PrefixCompleterInterface, 0, len(commandTable)+2)
	for _, name := range commandNames() {
		if name == "global" {
			items = append(items, readline.PcItem(name, filters...))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands until exit, EOF or interrupt.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "clipforge> ",
		HistoryFile:     s.cfg.HistoryFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          s.out,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	p := s.cfg.Session.Snapshot()
	fmt.Fprintf(s.out, "Editing %q. Type help for commands.\n", p.Name)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		quit, err := s.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one command line. It reports true when the shell should
// exit.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	switch name {
	case "exit", "quit":
		return true, nil
	}
	cmd, ok := commandTable[name]
	if !ok {
		return false, fmt.Errorf("%w %q, try help", ErrUnknownCommand, name)
	}
	if err := cmd.run(s, ctx, strings.Fields(rest), rest); err != nil {
		if errors.Is(err, ErrUsage) {
			return false, fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
		}
		return false, err
	}
	return false, nil
}

func (s *Shell) cmdHelp(_ context.Context, _ []string, _ string) error {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, name := range commandNames() {
		if cmd, ok := commandTable[name]; ok {
			fmt.Fprintf(tw, "  %s\t%s\n", cmd.usage, cmd.help)
		}
	}
	fmt.Fprintf(tw, "  exit\tleave the shell\n")
	return tw.Flush()
}

func (s *Shell) cmdStatus(_ context.Context, _ []string, _ string) error {
	p := s.cfg.Session.Snapshot()
	h := s.cfg.Session.History()
	fmt.Fprintf(s.out, "project  %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(s.out, "version  %d\n", s.cfg.Session.Version())
	if seq := p.Current(); seq != nil {
		fmt.Fprintf(s.out, "clips    %d over %s\n", len(seq.Clips), formatSeconds(seq.Duration()))
		if seq.GlobalFilter.IsSet() {
			fmt.Fprintf(s.out, "filter   %s\n", seq.GlobalFilter.DisplayName())
		}
	}
	if h.CanUndo {
		fmt.Fprintf(s.out, "undo     %s\n", h.UndoName)
	}
	if h.CanRedo {
		fmt.Fprintf(s.out, "redo     %s\n", h.RedoName)
	}
	if id, ok := s.cfg.Session.Dragging(); ok {
		fmt.Fprintf(s.out, "dragging %s\n", shortID(id))
	}
	return nil
}

func (s *Shell) cmdTracks(_ context.Context, _ []string, _ string) error {
	seq, err := s.cfg.Session.Sequence()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tCLIPS")
	for _, tr := range seq.Tracks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", shortID(tr.ID), tr.Label(), tr.DisplayName, len(seq.ClipsOnTrack(tr.ID)))
	}
	return tw.Flush()
}

func (s *Shell) cmdClips(_ context.Context, _ []string, _ string) error {
	seq, err := s.cfg.Session.Sequence()
	if err != nil {
		return err
	}
	clips := slices.Clone(seq.Clips)
	slices.SortStableFunc(clips, func(a, b timeline.Clip) int {
		if a.StartTime != b.StartTime {
			if a.StartTime < b.StartTime {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	selected, _ := s.cfg.Session.Selected()

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tKIND\tNAME\tSTART\tDURATION\tFILTER\tTRACK")
	for _, c := range clips {
		mark := " "
		if c.ID == selected.ID {
			mark = "*"
		}
		track := "?"
		if tr, ok := seq.Track(c.TrackID); ok {
			track = tr.DisplayName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, shortID(c.ID), c.Kind.Label(), c.Name,
			formatSeconds(c.StartTime), formatSeconds(c.Duration),
			c.PrimaryFilter.DisplayName(), track)
	}
	return tw.Flush()
}

func (s *Shell) cmdMedia(ctx context.Context, _ []string, _ string) error {
	if s.cfg.Assets == nil {
		return errors.New("no media library")
	}
	assets, err := s.cfg.Assets.ListAssets(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDURATION\tSIZE\tIMPORTED")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.ID[:min(8, len(a.ID))], a.DisplayName, formatSeconds(a.DurationSeconds),
			humanize.Bytes(uint64(max(a.Size, 0))), humanize.Time(a.CreatedAt))
	}
	return tw.Flush()
}

func (s *Shell) cmdImport(ctx context.Context, _ []string, rest string) error {
	if rest == "" {
		return ErrUsage
	}
	if s.cfg.Importer == nil {
		return errors.New("no media library")
	}
	a, err := s.cfg.Importer.Import(ctx, strings.Trim(rest, `"'`))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "imported %s as %s (%s)\n", a.DisplayName, a.ID, formatSeconds(a.DurationSeconds))
	return nil
}

func (s *Shell) cmdAdd(ctx context.Context, args []string, _ string) error {
	if len(args) < 1 || len(args) > 2 || s.cfg.Assets == nil {
		return ErrUsage
	}
	asset, err := s.findAsset(ctx, args[0])
	if err != nil {
		return err
	}
	start := 0.0
	if len(args) == 2 {
		if start, err = parseSeconds(args[1]); err != nil {
			return err
		}
	}
	clip, err := s.cfg.Session.AddToTimeline(asset.TimelineAsset(), start)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "added %s at %s\n", shortID(clip.ID), formatSeconds(clip.StartTime))
	return nil
}

func (s *Shell) cmdTemplates(context.Context, []string, string) error {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tDURATION")
	for _, p := range s.cfg.Templates.Packs() {
		for _, t := range p.Templates {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Kind, t.DisplayName, formatSeconds(t.Duration()))
		}
	}
	return tw.Flush()
}

func (s *Shell) cmdTemplate(_ context.Context, args []string, _ string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	tmpl, err := s.cfg.Templates.Find(args[0])
	if err != nil {
		return err
	}
	start := 0.0
	if len(args) == 2 {
		if start, err = parseSeconds(args[1]); err != nil {
			return err
		}
	}
	clip, err := s.cfg.Session.AddTemplate(tmpl, start)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "added %s %q at %s\n", clip.Kind, clip.Name, formatSeconds(clip.StartTime))
	return nil
}

func (s *Shell) cmdMove(_ context.Context, args []string, _ string) error {
	if len(args) < 2 || len(args) > 3 || (len(args) == 3 && args[2] != "snap") {
		return ErrUsage
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	start, err := parseSeconds(args[1])
	if err != nil {
		return err
	}
	if len(args) == 3 {
		start = s.cfg.Session.Snap(start, id)
	}
	if err := s.cfg.Session.SetClipStart(id, start); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "moved %s to %s\n", shortID(id), formatSeconds(start))
	return nil
}

func (s *Shell) cmdTrim(_ context.Context, args []string, _ string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	d, err := parseSeconds(args[1])
	if err != nil {
		return err
	}
	return s.cfg.Session.SetClipDuration(id, d)
}

func (s *Shell) cmdSplit(_ context.Context, args []string, _ string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	at, err := parseSeconds(args[1])
	if err != nil {
		return err
	}
	right, err := s.cfg.Session.SplitClip(id, at)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "split %s, new clip %s\n", shortID(id), shortID(right))
	return nil
}

func (s *Shell) cmdFilter(_ context.Context, args []string, _ string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	f, err := parseFilter(args[1])
	if err != nil {
		return err
	}
	return s.cfg.Session.SetClipFilter(id, f)
}

func (s *Shell) cmdGlobal(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	f, err := parseFilter(args[0])
	if err != nil {
		return err
	}
	return s.cfg.Session.SetGlobalFilter(f)
}

func (s *Shell) cmdDelete(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	return s.cfg.Session.DeleteClip(id)
}

func (s *Shell) cmdRetrack(_ context.Context, args []string, _ string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	seq, err := s.cfg.Session.Sequence()
	if err != nil {
		return err
	}
	trackIDs := make([]uuid.UUID, len(seq.Tracks))
	for i, tr := range seq.Tracks {
		trackIDs[i] = tr.ID
	}
	trackID, err := matchPrefix(trackIDs, args[1], "track")
	if err != nil {
		return err
	}
	return s.cfg.Session.MoveClipToTrack(id, trackID)
}

func (s *Shell) cmdSelect(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	if args[0] == "none" {
		return s.cfg.Session.Select(uuid.Nil)
	}
	id, err := s.findClip(args[0])
	if err != nil {
		return err
	}
	return s.cfg.Session.Select(id)
}

func (s *Shell) cmdSnap(_ context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	t, err := parseSeconds(args[0])
	if err != nil {
		return err
	}
	exclude := uuid.Nil
	if c, ok := s.cfg.Session.Selected(); ok {
		exclude = c.ID
	}
	fmt.Fprintf(s.out, "%s snaps to %s\n", formatSeconds(t), formatSeconds(s.cfg.Session.Snap(t, exclude)))
	return nil
}

func (s *Shell) cmdUndo(_ context.Context, _ []string, _ string) error {
	name, err := s.cfg.Session.Undo()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "undid %s\n", name)
	return nil
}

func (s *Shell) cmdRedo(_ context.Context, _ []string, _ string) error {
	name, err := s.cfg.Session.Redo()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "redid %s\n", name)
	return nil
}

func (s *Shell) cmdPlan(ctx context.Context, _ []string, _ string) error {
	plan, err := s.cfg.Session.Plan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "duration %s, render %dx%d, effects %v\n",
		formatSeconds(plan.Duration), plan.RenderSize.Width, plan.RenderSize.Height, plan.EffectsEnabled)
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, ch := range append(slices.Clone(plan.Video), plan.Audio...) {
		for _, seg := range ch.Segments {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", ch.TrackName, seg.ClipName,
				formatSeconds(seg.InsertAt), formatSeconds(seg.Source.Duration))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, sk := range plan.Skipped {
		fmt.Fprintf(s.out, "  skipped %s: %s\n", sk.ClipName, sk.Reason)
	}
	return nil
}

func (s *Shell) cmdEffect(ctx context.Context, args []string, _ string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	t, err := parseSeconds(args[0])
	if err != nil {
		return err
	}
	plan, err := s.cfg.Session.Plan(ctx)
	if err != nil {
		return err
	}
	f := plan.EffectAt(t)
	if !f.IsSet() {
		fmt.Fprintf(s.out, "no effect at %s\n", formatSeconds(t))
		return nil
	}
	fmt.Fprintf(s.out, "%s at %s\n", f.DisplayName(), formatSeconds(t))
	return nil
}

func (s *Shell) cmdExport(ctx context.Context, _ []string, rest string) error {
	if s.cfg.Exporter == nil {
		return errors.New("no exporter configured")
	}
	plan, err := s.cfg.Session.Plan(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.cfg.ExportsDir, 0755); err != nil {
		return err
	}
	title := rest
	if title == "" {
		title = s.cfg.Session.Snapshot().Name
	}
	res, err := s.cfg.Exporter.Export(ctx, plan, export.Options{
		Title:     title,
		MediaDir:  s.cfg.MediaDir,
		OutputDir: s.cfg.ExportsDir,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "wrote %d events to %s\n", res.EventCount, filepath.Base(res.OutputPath))
	return nil
}

func (s *Shell) cmdSave(ctx context.Context, _ []string, _ string) error {
	if err := s.cfg.Session.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "saved")
	return nil
}

func (s *Shell) findClip(ref string) (uuid.UUID, error) {
	seq, err := s.cfg.Session.Sequence()
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, len(seq.Clips))
	for i, c := range seq.Clips {
		ids[i] = c.ID
	}
	return matchPrefix(ids, ref, "clip")
}

func (s *Shell) findAsset(ctx context.Context, ref string) (*store.Asset, error) {
	assets, err := s.cfg.Assets.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	var found *store.Asset
	for _, a := range assets {
		if !strings.HasPrefix(a.ID, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w %q", ErrAmbiguousID, ref)
		}
		found = a
	}
	if found == nil {
		return nil, fmt.Errorf("asset %q not found", ref)
	}
	return found, nil
}

// matchPrefix resolves a full id or a unique prefix of one.
func matchPrefix(ids []uuid.UUID, ref, what string) (uuid.UUID, error) {
	ref = strings.ToLower(ref)
	match := uuid.Nil
	for _, id := range ids {
		if !strings.HasPrefix(id.String(), ref) {
			continue
		}
		if match != uuid.Nil {
			return uuid.Nil, fmt.Errorf("%w %q", ErrAmbiguousID, ref)
		}
		match = id
	}
	if match == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s %q not found", what, ref)
	}
	return match, nil
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return v, nil
}

func parseFilter(s string) (timeline.Filter, error) {
	if s == "clear" {
		return "", nil
	}
	return timeline.ParseFilter(strings.ToLower(s))
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "s"
}
