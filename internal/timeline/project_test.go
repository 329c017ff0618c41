package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("CET", 3600))

func TestNewProject(t *testing.T) {
	p := NewProject("Holiday", testNow)

	assert.Equal(t, "Holiday", p.Name)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, time.Date(2025, 3, 14, 8, 26, 53, 0, time.UTC), p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	require.Len(t, p.Sequences, 1)
	seq := p.Current()
	require.NotNil(t, seq)
	assert.Equal(t, "Main", seq.Name)
	assert.Equal(t, 30, seq.Timebase.FrameRate)
	assert.Empty(t, seq.Clips)

	require.Len(t, seq.Tracks, 3)
	assert.Equal(t, []Kind{KindVideo, KindAudio, KindTitle},
		[]Kind{seq.Tracks[0].Kind, seq.Tracks[1].Kind, seq.Tracks[2].Kind})
	assert.Equal(t, "Video 1", seq.Tracks[0].DisplayName)
	assert.Equal(t, "Audio 1", seq.Tracks[1].DisplayName)
	assert.Equal(t, "Titles", seq.Tracks[2].DisplayName)
	for _, tr := range seq.Tracks {
		assert.Equal(t, 0, tr.Index)
	}
	require.NoError(t, p.Validate())
}

func TestProject_CurrentEmpty(t *testing.T) {
	var p Project
	assert.Nil(t, p.Current())
	var nilp *Project
	assert.Nil(t, nilp.Current())
}

func TestProject_Touch(t *testing.T) {
	p := NewProject("x", testNow)
	later := testNow.Add(90 * time.Second)
	p.Touch(later)
	assert.Equal(t, later.UTC().Truncate(time.Second), p.UpdatedAt)
	assert.True(t, p.UpdatedAt.After(p.CreatedAt))
}

func sampleProject() Project {
	p := NewProject("Sample", testNow)
	seq := p.Current()
	video := seq.Tracks[0]
	clip := NewClipFromMedia(MediaAsset{
		DisplayName:  "beach.mov",
		RelativePath: "import_1.mov",
		Duration:     12.5,
	}, video.ID, 1)
	clip.PrimaryFilter = FilterSepia
	clip.OpacityKeyframes = &KeyframedDouble{Keyframes: []Keyframe[float64]{{0, 0}, {1, 1}}}
	clip.TransformKeyframes = &KeyframedTransform{Keyframes: []Keyframe[Transform]{{0, Identity()}}}
	seq.Clips = append(seq.Clips, clip)

	title := Clip{
		ID:             uuid.New(),
		Kind:           KindTitle,
		TrackID:        seq.Tracks[2].ID,
		Name:           "Opening",
		Duration:       3,
		SourceDuration: 3,
		Opacity:        0.8,
		Transform:      Transform{A: 1, D: 1, Tx: 20},
	}
	seq.Clips = append(seq.Clips, title)
	seq.GlobalFilter = FilterNone
	return p
}

func TestProject_JSONRoundTrip(t *testing.T) {
	p := sampleProject()

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got Project
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p, got)
}

func TestProject_JSONFieldNames(t *testing.T) {
	p := sampleProject()
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "2025-03-14T08:26:53Z", doc["createdAt"])
	seq := doc["sequences"].([]any)[0].(map[string]any)
	assert.Equal(t, "none", seq["globalFilter"])
	assert.Equal(t, map[string]any{"frameRate": float64(30)}, seq["timebase"])

	track := seq["tracks"].([]any)[0].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "kind", "index", "displayName"}, keys(track))
	assert.Equal(t, "video", track["kind"])

	clip := seq["clips"].([]any)[0].(map[string]any)
	for _, k := range []string{
		"id", "kind", "trackID", "name", "startTime", "duration", "sourceStart",
		"sourceDuration", "mediaRelativePath", "opacity", "transform",
		"primaryFilter", "opacityKeyframes", "transformKeyframes", "trackIndexHint",
	} {
		assert.Contains(t, clip, k)
	}
	assert.Equal(t, "sepia", clip["primaryFilter"])

	title := seq["clips"].([]any)[1].(map[string]any)
	assert.NotContains(t, title, "mediaRelativePath")
	assert.NotContains(t, title, "primaryFilter")
}

func TestClip_UnmarshalDefaults(t *testing.T) {
	raw := `{"id":"6f0c8f4e-1111-4c1e-9a55-0b7bd3a8f001","kind":"audio",
		"trackID":"6f0c8f4e-2222-4c1e-9a55-0b7bd3a8f001","name":"vo",
		"startTime":0,"duration":2,"sourceStart":0,"sourceDuration":2}`

	var c Clip
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, 1.0, c.Opacity)
	assert.Equal(t, Identity(), c.Transform)
	assert.Equal(t, KindAudio, c.Kind)
	assert.False(t, c.PrimaryFilter.IsSet())
}

func TestClip_UnmarshalRejectsUnknownEnums(t *testing.T) {
	var c Clip
	err := json.Unmarshal([]byte(`{"kind":"hologram"}`), &c)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"kind":"video","primaryFilter":"glitter"}`), &c)
	assert.Error(t, err)
}

func TestProject_UnmarshalRejectsBadDate(t *testing.T) {
	var p Project
	err := json.Unmarshal([]byte(`{"createdAt":"yesterday","updatedAt":"2025-01-01T00:00:00Z"}`), &p)
	assert.ErrorContains(t, err, "createdAt")
}

func TestProject_CloneIsDeep(t *testing.T) {
	p := sampleProject()
	c := p.Clone()

	c.Current().Clips[0].StartTime = 99
	c.Current().Clips[0].OpacityKeyframes.Keyframes[0].Value = 0.5
	c.Current().Tracks[0].DisplayName = "changed"

	assert.Equal(t, 1.0, p.Current().Clips[0].StartTime)
	assert.Equal(t, 0.0, p.Current().Clips[0].OpacityKeyframes.Keyframes[0].Value)
	assert.Equal(t, "Video 1", p.Current().Tracks[0].DisplayName)
}

func TestClip_PlayableSourceDuration(t *testing.T) {
	c := Clip{SourceStart: 1, Duration: 2, SourceDuration: 5}
	assert.Equal(t, 2.0, c.PlayableSourceDuration())
	start, end := c.SourceRange()
	assert.Equal(t, 1.0, start)
	assert.Equal(t, 3.0, end)
}

func TestSequence_Validate(t *testing.T) {
	s, a, _ := layeredSequence(t)

	bad := s.Clone()
	bad.Clips[0].Duration = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidClip)

	bad = s.Clone()
	bad.Clips[0].TrackID = uuid.New()
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSequence)

	bad = s.Clone()
	bad.Clips[0].LayerHint = 7
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSequence)

	bad = s.Clone()
	audio := NewTrack(KindAudio, 0, "Audio 1")
	bad.Tracks = append(bad.Tracks, audio)
	bad.Clips[0].TrackID = audio.ID
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSequence)

	bad = s.Clone()
	dup := a
	bad.Clips = append(bad.Clips, dup)
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSequence)
}

func TestParseFilter(t *testing.T) {
	for _, f := range Filters {
		got, err := ParseFilter(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
		assert.NotEmpty(t, f.DisplayName())
	}
	got, err := ParseFilter("")
	require.NoError(t, err)
	assert.False(t, got.IsSet())

	_, err = ParseFilter("Sepia")
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.CompatibleWith(k))
		assert.NotEmpty(t, k.Label())
	}
	assert.False(t, KindVideo.CompatibleWith(KindAudio))
	assert.False(t, Kind("x").CompatibleWith(Kind("x")))
	_, err := ParseKind("hologram")
	assert.Error(t, err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
