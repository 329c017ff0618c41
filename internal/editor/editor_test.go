package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/clipforge/internal/commands"
	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

type memStore struct {
	mu    sync.Mutex
	saves []timeline.Project
	err   error
}

func (m *memStore) SaveProject(_ context.Context, p timeline.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, p)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memStore) last() timeline.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[len(m.saves)-1]
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func asset(name string, dur float64) timeline.MediaAsset {
	return timeline.MediaAsset{ID: uuid.New(), DisplayName: name, RelativePath: name + ".mov", Duration: dur}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return epoch }
	}
	s := NewSession(timeline.NewProject("Test", epoch), opts)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSession_AddToTimeline(t *testing.T) {
	s := newTestSession(t, Options{})
	v0 := s.Version()

	clip, err := s.AddToTimeline(asset("beach", 8), 0)
	require.NoError(t, err)
	assert.Greater(t, s.Version(), v0)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, clip.ID, sel.ID)

	seq, err := s.Sequence()
	require.NoError(t, err)
	require.Len(t, seq.Clips, 1)
	assert.Equal(t, "beach", seq.Clips[0].Name)
	assert.Equal(t, 8.0, seq.Clips[0].Duration)
	assert.Equal(t, "Add Clip", s.History().UndoName)
}

func TestSession_AddToTimelineNeedsVideoTrack(t *testing.T) {
	p := timeline.NewProject("Audio only", epoch)
	p.Sequences[0].Tracks = []timeline.Track{timeline.NewTrack(timeline.KindAudio, 0, "Audio 1")}
	s := NewSession(p, Options{})

	_, err := s.AddToTimeline(asset("x", 3), 0)
	assert.ErrorIs(t, err, ErrNoVideoTrack)
	assert.False(t, s.History().CanUndo)
}

func TestSession_AddTemplate(t *testing.T) {
	s := newTestSession(t, Options{})
	title := templates.Template{
		ID:          "title-centered",
		Kind:        "title",
		DisplayName: "Centered Title",
		Payload:     map[string]string{"text": "Opening", "duration": "4"},
	}

	clip, err := s.AddTemplate(title, 1.5)
	require.NoError(t, err)
	assert.Equal(t, timeline.KindTitle, clip.Kind)
	assert.Equal(t, "Opening", clip.Name)

	seq, err := s.Sequence()
	require.NoError(t, err)
	track, ok := seq.FirstTrack(timeline.KindTitle)
	require.True(t, ok)
	placed, ok := seq.Clip(clip.ID)
	require.True(t, ok)
	assert.Equal(t, track.ID, placed.TrackID)
	assert.Equal(t, 1.5, placed.StartTime)
	assert.Equal(t, 4.0, placed.Duration)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, clip.ID, sel.ID)

	_, err = s.Undo()
	require.NoError(t, err)
	seq, _ = s.Sequence()
	assert.Empty(t, seq.Clips)
}

func TestSession_AddTemplateRejected(t *testing.T) {
	s := newTestSession(t, Options{})
	v0 := s.Version()

	_, err := s.AddTemplate(templates.Template{ID: "star", Kind: "sticker"}, 0)
	assert.ErrorIs(t, err, ErrNoTrackOfKind)

	_, err = s.AddTemplate(templates.Template{ID: "fade", Kind: "transition"}, 0)
	assert.ErrorIs(t, err, templates.ErrNotPlaceable)

	assert.Equal(t, v0, s.Version())
	assert.False(t, s.History().CanUndo)
}

func TestSession_EditsAndUndo(t *testing.T) {
	s := newTestSession(t, Options{})
	clip, err := s.AddToTimeline(asset("a", 10), 0)
	require.NoError(t, err)

	require.NoError(t, s.SetClipStart(clip.ID, 2))
	require.NoError(t, s.SetClipDuration(clip.ID, 4))
	require.NoError(t, s.SetClipFilter(clip.ID, timeline.FilterNoir))
	right, err := s.SplitClip(clip.ID, 4)
	require.NoError(t, err)

	seq, _ := s.Sequence()
	require.Len(t, seq.Clips, 2)
	l, _ := seq.Clip(clip.ID)
	r, _ := seq.Clip(right)
	assert.Equal(t, 2.0, l.Duration)
	assert.Equal(t, 4.0, r.StartTime)
	assert.Equal(t, timeline.FilterNoir, r.PrimaryFilter)

	for _, want := range []string{"Split Clip", "Set Filter", "Trim Clip", "Move Clip", "Add Clip"} {
		name, err := s.Undo()
		require.NoError(t, err)
		assert.Equal(t, want, name)
	}
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)

	seq, _ = s.Sequence()
	assert.Empty(t, seq.Clips)

	name, err := s.Redo()
	require.NoError(t, err)
	assert.Equal(t, "Add Clip", name)
	assert.Equal(t, "Move Clip", s.History().RedoName)
}

func TestSession_InvalidEditsLeaveVersion(t *testing.T) {
	s := newTestSession(t, Options{})
	v := s.Version()

	assert.ErrorIs(t, s.SetClipStart(uuid.New(), 1), commands.ErrClipNotFound)
	assert.ErrorIs(t, s.SetGlobalFilter("posterize"), commands.ErrInvalidFilter)
	_, err := s.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, v, s.Version())
	assert.False(t, s.History().CanUndo)
}

func TestSession_SelectionFollowsDeletes(t *testing.T) {
	s := newTestSession(t, Options{})
	clip, err := s.AddToTimeline(asset("a", 3), 0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Select(uuid.New()), commands.ErrClipNotFound)
	require.NoError(t, s.DeleteClip(clip.ID))
	_, ok := s.Selected()
	assert.False(t, ok)

	_, err = s.Undo()
	require.NoError(t, err)
	require.NoError(t, s.Select(clip.ID))
	_, ok = s.Selected()
	assert.True(t, ok)

	require.NoError(t, s.Select(uuid.Nil))
	_, ok = s.Selected()
	assert.False(t, ok)
}

func TestSession_Snap(t *testing.T) {
	s := newTestSession(t, Options{})
	a, err := s.AddToTimeline(asset("a", 2.5), 0)
	require.NoError(t, err)
	b, err := s.AddToTimeline(asset("b", 1), 0)
	require.NoError(t, err)

	assert.Equal(t, 2.5, s.Snap(2.45, b.ID))
	assert.Equal(t, 2.45, s.Snap(2.45, a.ID), "own edges are ignored")
}

func TestSession_DragProducesOneHistoryEntry(t *testing.T) {
	s := newTestSession(t, Options{})
	clip, err := s.AddToTimeline(asset("a", 3), 1)
	require.NoError(t, err)
	undo, _ := s.history.Len()

	require.NoError(t, s.BeginMove(clip.ID))
	assert.ErrorIs(t, s.BeginMove(clip.ID), ErrDragInProgress)

	for _, x := range []float64{1.5, 2.25, 4} {
		before := s.Version()
		require.NoError(t, s.PreviewMove(x))
		assert.Greater(t, s.Version(), before)
	}
	assert.ErrorIs(t, s.SetClipDuration(clip.ID, 1), ErrDragInProgress)
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrDragInProgress)

	after, _ := s.history.Len()
	assert.Equal(t, undo, after, "previews stay out of the history")

	recorded, err := s.CommitMove()
	require.NoError(t, err)
	assert.True(t, recorded)
	after, _ = s.history.Len()
	assert.Equal(t, undo+1, after)

	seq, _ := s.Sequence()
	got, _ := seq.Clip(clip.ID)
	assert.Equal(t, 4.0, got.StartTime)

	_, err = s.Undo()
	require.NoError(t, err)
	seq, _ = s.Sequence()
	got, _ = seq.Clip(clip.ID)
	assert.Equal(t, 1.0, got.StartTime, "undo returns to the pre-drag start")
}

func TestSession_DragBackToOriginRecordsNothing(t *testing.T) {
	s := newTestSession(t, Options{})
	clip, err := s.AddToTimeline(asset("a", 3), 1)
	require.NoError(t, err)

	require.NoError(t, s.BeginMove(clip.ID))
	require.NoError(t, s.PreviewMove(3))
	require.NoError(t, s.PreviewMove(1))
	recorded, err := s.CommitMove()
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Equal(t, "Add Clip", s.History().UndoName)

	_, err = s.CommitMove()
	assert.ErrorIs(t, err, ErrNoDrag)
	assert.ErrorIs(t, s.PreviewMove(2), ErrNoDrag)
	assert.ErrorIs(t, s.CancelMove(), ErrNoDrag)
}

func TestSession_CancelMoveRestoresStart(t *testing.T) {
	s := newTestSession(t, Options{})
	clip, err := s.AddToTimeline(asset("a", 3), 2)
	require.NoError(t, err)

	require.NoError(t, s.BeginMove(clip.ID))
	require.NoError(t, s.PreviewMove(7))
	assert.ErrorIs(t, s.PreviewMove(-1), commands.ErrInvalidTime)
	require.NoError(t, s.CancelMove())

	seq, _ := s.Sequence()
	got, _ := seq.Clip(clip.ID)
	assert.Equal(t, 2.0, got.StartTime)
	_, dragging := s.Dragging()
	assert.False(t, dragging)
	assert.Equal(t, "Add Clip", s.History().UndoName)
}

func TestSession_SavesDebouncedSnapshot(t *testing.T) {
	st := &memStore{}
	s := newTestSession(t, Options{Store: st, SaveDelay: 30 * time.Millisecond})

	clip, err := s.AddToTimeline(asset("a", 3), 0)
	require.NoError(t, err)
	require.NoError(t, s.SetClipStart(clip.ID, 1))
	require.NoError(t, s.SetClipStart(clip.ID, 2))

	require.Eventually(t, func() bool { return st.count() == 1 }, time.Second, 5*time.Millisecond)
	saved := st.last()
	got, ok := saved.Current().Clip(clip.ID)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.StartTime)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, st.count(), "edits within the window collapse into one write")
}

func TestSession_CloseFlushesPendingSave(t *testing.T) {
	st := &memStore{}
	s := NewSession(timeline.NewProject("Flush", epoch), Options{Store: st, SaveDelay: time.Hour})
	require.NoError(t, s.Rename("Renamed"))

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, 1, st.count())
	assert.Equal(t, "Renamed", st.last().Name)
}

func TestSession_PlanMatchesVersion(t *testing.T) {
	prober := media.NewStaticProber().
		Set("a.mov", media.Info{DurationSeconds: 10, NativeWidth: 1280, NativeHeight: 720, HasVideo: true})
	s := newTestSession(t, Options{Resolver: composition.NewResolver(prober, nil, 2)})

	clip, err := s.AddToTimeline(asset("a", 4), 0)
	require.NoError(t, err)
	require.NoError(t, s.SetClipFilter(clip.ID, timeline.FilterBloom))
	s.Rebuilder().Wait()

	latest := s.Rebuilder().Latest()
	require.NotNil(t, latest)
	assert.Equal(t, s.Version(), latest.Version)

	plan, err := s.Plan(context.Background())
	require.NoError(t, err)
	assert.Same(t, latest, plan)
	assert.Equal(t, timeline.FilterBloom, plan.EffectAt(1))
	require.Len(t, plan.Video[0].Segments, 1)
}

func TestSession_RefreshPicksUpChangedMedia(t *testing.T) {
	prober := media.NewStaticProber().
		Set("a.mov", media.Info{DurationSeconds: 10, NativeWidth: 1280, NativeHeight: 720, HasVideo: true})
	s := newTestSession(t, Options{Resolver: composition.NewResolver(prober, nil, 2)})

	_, err := s.AddToTimeline(asset("a", 4), 0)
	require.NoError(t, err)
	s.Rebuilder().Wait()
	before := s.Version()

	prober.Set("a.mov", media.Info{DurationSeconds: 10, NativeWidth: 720, NativeHeight: 1280, HasVideo: true})
	s.Refresh()
	s.Rebuilder().Wait()

	assert.Equal(t, before+1, s.Version())
	assert.False(t, s.History().CanRedo)
	plan := s.Rebuilder().Latest()
	require.NotNil(t, plan)
	assert.Equal(t, composition.Size{Width: 720, Height: 1280}, plan.RenderSize)
}

func TestSession_ResolveNowWithoutResolver(t *testing.T) {
	s := newTestSession(t, Options{})
	_, err := s.Plan(context.Background())
	assert.ErrorIs(t, err, ErrNoResolver)
}

// gatedResolver blocks each resolve until released and ignores
// cancellation, so a finished result can still arrive late.
type gatedResolver struct {
	release chan struct{}
	calls   chan timeline.Sequence
}

func newGatedResolver() *gatedResolver {
	return &gatedResolver{release: make(chan struct{}), calls: make(chan timeline.Sequence, 8)}
}

func (g *gatedResolver) Resolve(_ context.Context, seq timeline.Sequence) (*composition.Plan, error) {
	g.calls <- seq
	<-g.release
	return &composition.Plan{SequenceID: seq.ID, Duration: seq.Duration()}, nil
}

func TestRebuilder_DiscardsStalePlan(t *testing.T) {
	var (
		mu      sync.Mutex
		current uint64 = 1
	)
	version := func() uint64 {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	res := newGatedResolver()
	r := NewRebuilder(res, version, nil, nil)
	defer r.Stop()

	var published []uint64
	r.OnPublish(func(p *composition.Plan) { published = append(published, p.Version) })

	seq := timeline.DefaultSequence()
	r.Request(seq, 1)
	<-res.calls

	mu.Lock()
	current = 2
	mu.Unlock()
	close(res.release)
	r.Wait()
	assert.Nil(t, r.Latest(), "version 1 finished after the document moved on")

	r.Request(seq, 2)
	r.Wait()
	require.NotNil(t, r.Latest())
	assert.Equal(t, uint64(2), r.Latest().Version)
	assert.Equal(t, []uint64{2}, published)
}

type ctxResolver struct {
	started chan struct{}
}

func (c *ctxResolver) Resolve(ctx context.Context, seq timeline.Sequence) (*composition.Plan, error) {
	if len(seq.Clips) == 0 {
		c.started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &composition.Plan{SequenceID: seq.ID}, nil
}

func TestRebuilder_LastRequestWins(t *testing.T) {
	res := &ctxResolver{started: make(chan struct{}, 1)}
	r := NewRebuilder(res, func() uint64 { return 2 }, nil, nil)
	defer r.Stop()

	empty := timeline.DefaultSequence()
	r.Request(empty, 1)
	<-res.started

	withClip := empty.Clone()
	track, _ := withClip.FirstTrack(timeline.KindVideo)
	withClip.Clips = append(withClip.Clips, timeline.NewClipFromMedia(asset("a", 1), track.ID, 0))
	r.Request(withClip, 2)

	r.Wait()
	require.NotNil(t, r.Latest())
	assert.Equal(t, uint64(2), r.Latest().Version)
}

func TestRebuilder_StopRefusesRequests(t *testing.T) {
	res := newGatedResolver()
	r := NewRebuilder(res, func() uint64 { return 1 }, nil, nil)
	r.Stop()
	r.Request(timeline.DefaultSequence(), 1)
	r.Wait()
	assert.Empty(t, res.calls)
	assert.Nil(t, r.Latest())
}

func TestSaver_FlushAndFailure(t *testing.T) {
	st := &memStore{}
	sv := NewSaver(st, time.Hour, nil, nil)

	require.NoError(t, sv.Flush(context.Background()), "nothing pending")
	assert.Equal(t, 0, st.count())

	p := timeline.NewProject("One", epoch)
	sv.Schedule(p)
	assert.True(t, sv.Pending())

	st.err = errors.New("database is locked")
	assert.Error(t, sv.Flush(context.Background()))
	assert.True(t, sv.Pending(), "failed snapshot stays pending")

	st.err = nil
	require.NoError(t, sv.Flush(context.Background()))
	assert.False(t, sv.Pending())
	assert.Equal(t, "One", st.last().Name)
}
