package commands

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/clipforge/internal/timeline"
)

var epoch = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

type fixture struct {
	project timeline.Project
	video   timeline.Track
	video2  timeline.Track
	audio   timeline.Track
	a, b, m timeline.Clip
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := timeline.NewProject("Fixture", epoch)
	seq := p.Current()
	video2 := timeline.NewTrack(timeline.KindVideo, 1, "Video 2")
	seq.Tracks = append(seq.Tracks, video2)

	f := &fixture{project: p, video: seq.Tracks[0], video2: video2, audio: seq.Tracks[1]}
	f.a = mediaClip(f.video, "A", 0, 5)
	f.b = mediaClip(f.video2, "B", 2, 4)
	f.m = mediaClip(f.audio, "Music", 0, 8)
	f.m.Kind = timeline.KindAudio
	f.a.PrimaryFilter = timeline.FilterVivid
	f.a.OpacityKeyframes = &timeline.KeyframedDouble{Keyframes: []timeline.Keyframe[float64]{{Time: 0, Value: 0}, {Time: 4, Value: 1}}}
	seq.Clips = append(seq.Clips, f.a, f.b, f.m)
	require.NoError(t, p.Validate())
	f.project = p
	return f
}

func (f *fixture) seq() timeline.Sequence { return *f.project.Current() }

func mediaClip(track timeline.Track, name string, start, dur float64) timeline.Clip {
	c := timeline.NewClipFromMedia(timeline.MediaAsset{
		DisplayName:  name,
		RelativePath: name + ".mov",
		Duration:     dur,
	}, track.ID, start)
	c.LayerHint = track.Index
	return c
}

// everyCommand builds one instance of each command variant against f.
func everyCommand(t *testing.T, f *fixture) []Command {
	t.Helper()
	seq := f.seq()
	extra := mediaClip(f.video, "Extra", 9, 2)
	extra.LayerHint = 42 // AddClip recomputes it

	must := func(c Command, err error) Command {
		t.Helper()
		require.NoError(t, err)
		return c
	}
	return []Command{
		must(NewAddClip(seq, extra)),
		must(NewDeleteClip(seq, f.a.ID)),
		must(NewDeleteClip(seq, f.m.ID)),
		must(NewSetClipStart(seq, f.b.ID, 7.5)),
		must(NewSetClipDuration(seq, f.a.ID, 2)),
		must(NewSplitClipAt(seq, f.a.ID, 2)),
		must(NewSplitClipAt(seq, f.a.ID, -3)),
		must(NewSplitClipAt(seq, f.a.ID, 50)),
		must(NewSetClipFilter(seq, f.a.ID, timeline.FilterSepia)),
		must(NewSetClipFilter(seq, f.a.ID, "")),
		must(NewMoveClipToTrack(seq, f.a.ID, f.video2.ID)),
		must(NewSetGlobalFilter(seq, timeline.FilterNoir)),
		must(NewRenameTrack(seq, f.video.ID, "Main Camera")),
	}
}

func TestCommands_UndoInvertsApply(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range everyCommand(t, f) {
		t.Run(cmd.Name(), func(t *testing.T) {
			p := f.project.Clone()
			before := p.Clone()

			require.True(t, cmd.Apply(&p))
			assert.NotEqual(t, before, p)

			assert.True(t, cmd.Undo(&p))
			assert.Equal(t, before, p)
		})
	}
}

func TestCommands_RedoReproducesApply(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range everyCommand(t, f) {
		t.Run(cmd.Name(), func(t *testing.T) {
			p := f.project.Clone()
			h := NewHistory(func() time.Time { return epoch })

			h.Apply(cmd, &p)
			applied := p.Clone()

			_, changed := h.Undo(&p)
			require.True(t, changed)
			_, changed = h.Redo(&p)
			require.True(t, changed)
			assert.Equal(t, applied, p)
		})
	}
}

func TestCommands_MissingTargetsAreNoOps(t *testing.T) {
	f := newFixture(t)
	cmds := everyCommand(t, f)

	empty := timeline.NewProject("other", epoch)
	for _, cmd := range cmds {
		p := empty.Clone()
		assert.False(t, cmd.Apply(&p), cmd.Name())
		assert.False(t, cmd.Undo(&p), cmd.Name())
		assert.Equal(t, empty, p)
	}

	for _, cmd := range cmds {
		assert.False(t, cmd.Apply(nil))
	}
}

func TestCommands_ClipRemovedAfterConstruction(t *testing.T) {
	f := newFixture(t)
	start, err := NewSetClipStart(f.seq(), f.a.ID, 3)
	require.NoError(t, err)

	p := f.project.Clone()
	del, err := NewDeleteClip(*p.Current(), f.a.ID)
	require.NoError(t, err)
	require.True(t, del.Apply(&p))

	before := p.Clone()
	assert.False(t, start.Apply(&p))
	assert.Equal(t, before, p)
}

func TestConstructors_RejectBadInput(t *testing.T) {
	f := newFixture(t)
	seq := f.seq()
	missing := uuid.New()

	_, err := NewDeleteClip(seq, missing)
	assert.ErrorIs(t, err, ErrClipNotFound)
	_, err = NewSetClipStart(seq, missing, 1)
	assert.ErrorIs(t, err, ErrClipNotFound)
	_, err = NewSetClipStart(seq, f.a.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidTime)
	_, err = NewSetClipDuration(seq, f.a.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	_, err = NewSplitClipAt(seq, missing, 1)
	assert.ErrorIs(t, err, ErrClipNotFound)
	_, err = NewSplitClip(seq, f.a.ID, 1, f.b.ID)
	assert.ErrorIs(t, err, ErrDuplicateClip)
	_, err = NewSetClipFilter(seq, f.a.ID, "glitter")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = NewMoveClipToTrack(seq, f.a.ID, f.audio.ID)
	assert.ErrorIs(t, err, ErrIncompatibleTrack)
	_, err = NewMoveClipToTrack(seq, f.a.ID, missing)
	assert.ErrorIs(t, err, ErrTrackNotFound)
	_, err = NewRenameTrack(seq, f.video.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = NewSetGlobalFilter(seq, "glitter")
	assert.ErrorIs(t, err, ErrInvalidFilter)

	onAudio := mediaClip(f.audio, "wrong", 0, 1)
	_, err = NewAddClip(seq, onAudio)
	assert.ErrorIs(t, err, ErrIncompatibleTrack)
	orphan := mediaClip(timeline.NewTrack(timeline.KindVideo, 0, "gone"), "orphan", 0, 1)
	_, err = NewAddClip(seq, orphan)
	assert.ErrorIs(t, err, ErrTrackNotFound)
	_, err = NewAddClip(seq, f.a)
	assert.ErrorIs(t, err, ErrDuplicateClip)
	zero := mediaClip(f.video, "zero", 0, 1)
	zero.Duration = 0
	_, err = NewAddClip(seq, zero)
	assert.ErrorIs(t, err, timeline.ErrInvalidClip)
}

func TestAddClip_SetsLayerHint(t *testing.T) {
	f := newFixture(t)
	c := mediaClip(f.video2, "top", 1, 1)
	c.LayerHint = 0

	cmd, err := NewAddClip(f.seq(), c)
	require.NoError(t, err)
	p := f.project.Clone()
	cmd.Apply(&p)

	got, ok := p.Current().Clip(c.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.LayerHint)
}

func TestDeleteClip_UndoRestoresPosition(t *testing.T) {
	f := newFixture(t)
	cmd, err := NewDeleteClip(f.seq(), f.b.ID)
	require.NoError(t, err)

	p := f.project.Clone()
	cmd.Apply(&p)
	require.Len(t, p.Current().Clips, 2)
	cmd.Undo(&p)
	assert.Equal(t, 1, p.Current().ClipIndex(f.b.ID))

	assert.False(t, cmd.Undo(&p), "already present")
	assert.Len(t, p.Current().Clips, 3)
}

func TestSetClipDuration_ClampsSourceDuration(t *testing.T) {
	f := newFixture(t)
	cmd, err := NewSetClipDuration(f.seq(), f.a.ID, 2.0)
	require.NoError(t, err)

	p := f.project.Clone()
	cmd.Apply(&p)
	c, _ := p.Current().Clip(f.a.ID)
	assert.Equal(t, 2.0, c.Duration)
	assert.Equal(t, 2.0, c.SourceDuration)

	cmd.Undo(&p)
	c, _ = p.Current().Clip(f.a.ID)
	assert.Equal(t, 5.0, c.Duration)
	assert.Equal(t, 5.0, c.SourceDuration)
}

func TestSetClipDuration_LengtheningKeepsSource(t *testing.T) {
	f := newFixture(t)
	cmd, err := NewSetClipDuration(f.seq(), f.a.ID, 9)
	require.NoError(t, err)

	p := f.project.Clone()
	cmd.Apply(&p)
	c, _ := p.Current().Clip(f.a.ID)
	assert.Equal(t, 9.0, c.Duration)
	assert.Equal(t, 5.0, c.SourceDuration)
	assert.Equal(t, 5.0, c.PlayableSourceDuration())
}

func TestSplitClip_Arithmetic(t *testing.T) {
	f := newFixture(t)
	seq := f.seq().Clone()
	orig := f.b // start 2, duration 4
	orig.SourceStart = 1.5
	seq.Clips[1] = orig

	rightID := uuid.New()
	cmd, err := NewSplitClip(seq, orig.ID, 3.5, rightID)
	require.NoError(t, err)

	left, right := cmd.Left, cmd.Right
	assert.Equal(t, orig.ID, left.ID)
	assert.Equal(t, rightID, right.ID)
	assert.Equal(t, 1.5, left.Duration)
	assert.Equal(t, 1.5, left.SourceDuration)
	assert.Equal(t, 2.5, right.Duration)
	assert.Equal(t, 3.5, right.StartTime)
	assert.Equal(t, orig.SourceStart+1.5, right.SourceStart)
	assert.Equal(t, 2.5, right.SourceDuration)
	assert.Equal(t, orig.Duration, left.Duration+right.Duration)

	p := f.project.Clone()
	p.Sequences[0] = seq
	require.True(t, cmd.Apply(&p))
	clips := p.Current().Clips
	require.Len(t, clips, 4)
	assert.Equal(t, left, clips[1], "left replaces the original in place")
	assert.Equal(t, right, clips[3], "right is appended")
}

func TestSplitClip_ClampsCut(t *testing.T) {
	f := newFixture(t)

	before, err := NewSplitClipAt(f.seq(), f.a.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, before.Left.Duration)
	assert.Equal(t, 5.0, before.Right.Duration)
	assert.Equal(t, 0.0, before.Right.StartTime)

	after, err := NewSplitClipAt(f.seq(), f.a.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 5.0, after.Left.Duration)
	assert.Equal(t, 0.0, after.Right.Duration)
	assert.Equal(t, 5.0, after.Right.StartTime)
	assert.Equal(t, 0.0, after.Right.SourceDuration)
}

func TestSplitClip_ShortSourceClampsRight(t *testing.T) {
	f := newFixture(t)
	seq := f.seq().Clone()
	seq.Clips[0].SourceDuration = 3 // clip is 5s long but only 3s of media

	cmd, err := NewSplitClipAt(seq, f.a.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cmd.Left.SourceDuration)
	assert.Equal(t, 1.0, cmd.Right.SourceDuration)
	assert.Equal(t, 3.0, cmd.Right.Duration)
}

func TestSplitClip_ShiftsRightKeyframes(t *testing.T) {
	f := newFixture(t)
	cmd, err := NewSplitClipAt(f.seq(), f.a.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, []timeline.Keyframe[float64]{{Time: -2, Value: 0}, {Time: 2, Value: 1}},
		cmd.Right.OpacityKeyframes.Keyframes)
	assert.Equal(t, f.a.OpacityKeyframes.Keyframes, cmd.Left.OpacityKeyframes.Keyframes)
	assert.Equal(t, 0.0, f.a.OpacityKeyframes.Keyframes[0].Time, "original untouched")
}

func TestSplitClip_UndoWhenLeftWasRemoved(t *testing.T) {
	f := newFixture(t)
	split, err := NewSplitClipAt(f.seq(), f.a.ID, 2)
	require.NoError(t, err)

	p := f.project.Clone()
	split.Apply(&p)
	del, err := NewDeleteClip(*p.Current(), f.a.ID)
	require.NoError(t, err)
	del.Apply(&p)

	split.Undo(&p)
	clips := p.Current().Clips
	require.Len(t, clips, 3)
	assert.Equal(t, f.a, clips[2], "original re-appended")
	_, ok := p.Current().Clip(split.Right.ID)
	assert.False(t, ok)
}

func TestMoveClipToTrack(t *testing.T) {
	f := newFixture(t)
	cmd, err := NewMoveClipToTrack(f.seq(), f.a.ID, f.video2.ID)
	require.NoError(t, err)

	p := f.project.Clone()
	cmd.Apply(&p)
	c, _ := p.Current().Clip(f.a.ID)
	assert.Equal(t, f.video2.ID, c.TrackID)
	assert.Equal(t, 1, c.LayerHint)

	want := f.a.ID
	if f.b.ID.String() > want.String() {
		want = f.b.ID
	}
	top, ok := p.Current().TopVideoClip(3)
	require.True(t, ok)
	assert.Equal(t, want, top.ID, "equal layers fall back to id order")
}
