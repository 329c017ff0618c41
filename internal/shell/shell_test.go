package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/clipforge/internal/composition"
	"github.com/heimdex/clipforge/internal/editor"
	"github.com/heimdex/clipforge/internal/export"
	"github.com/heimdex/clipforge/internal/media"
	"github.com/heimdex/clipforge/internal/store"
	"github.com/heimdex/clipforge/internal/templates"
	"github.com/heimdex/clipforge/internal/timeline"
)

type memAssets []*store.Asset

func (m memAssets) GetAsset(_ context.Context, id string) (*store.Asset, error) {
	for _, a := range m {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m memAssets) ListAssets(context.Context) ([]*store.Asset, error) {
	return m, nil
}

var (
	harbor = &store.Asset{
		ID:              "11111111-aaaa-4aaa-8aaa-000000000001",
		DisplayName:     "harbor",
		RelativePath:    "harbor.mov",
		DurationSeconds: 4,
		Size:            2048,
		CreatedAt:       time.Now(),
	}
	ghost = &store.Asset{
		ID:              "22222222-bbbb-4bbb-8bbb-000000000002",
		DisplayName:     "ghost",
		RelativePath:    "ghost.mov",
		DurationSeconds: 2,
		CreatedAt:       time.Now(),
	}
)

type fixture struct {
	shell   *Shell
	session *editor.Session
	out     *bytes.Buffer
	exports string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prober := media.NewStaticProber().Set("harbor.mov", media.Info{
		DurationSeconds: 4,
		NativeWidth:     1280,
		NativeHeight:    720,
		HasVideo:        true,
	})
	session := editor.NewSession(timeline.NewProject("Shell Demo", time.Now()), editor.Options{
		Resolver: composition.NewResolver(prober, nil, 2),
	})
	t.Cleanup(func() { session.Close(context.Background()) })

	catalog, err := templates.LoadBundled()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	exports := filepath.Join(t.TempDir(), "exports")
	sh := New(Config{
		Session:    session,
		Assets:     memAssets{harbor, ghost},
		Exporter:   export.NewEDLBackend(nil, nil),
		Templates:  catalog,
		ExportsDir: exports,
		Out:        out,
	})
	return &fixture{shell: sh, session: session, out: out, exports: exports}
}

func (f *fixture) run(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	quit, err := f.shell.Execute(context.Background(), line)
	require.NoError(t, err, line)
	require.False(t, quit)
	return f.out.String()
}

func (f *fixture) onlyClip(t *testing.T) timeline.Clip {
	t.Helper()
	seq, err := f.session.Sequence()
	require.NoError(t, err)
	require.Len(t, seq.Clips, 1)
	return seq.Clips[0]
}

func TestExecute_Basics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quit, err := f.shell.Execute(ctx, "   ")
	assert.NoError(t, err)
	assert.False(t, quit)

	quit, err = f.shell.Execute(ctx, "exit")
	assert.NoError(t, err)
	assert.True(t, quit)

	_, err = f.shell.Execute(ctx, "frobnicate")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = f.shell.Execute(ctx, "split abc")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "split <clip> <time>")

	help := f.run(t, "help")
	for _, name := range []string{"add", "undo", "export", "exit"} {
		assert.Contains(t, help, name)
	}
}

func TestExecute_EditAndUndo(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "add 1111 2")
	assert.Contains(t, out, "at 2s")
	clip := f.onlyClip(t)
	ref := clip.ID.String()[:6]

	out = f.run(t, "clips")
	assert.Contains(t, out, "harbor")
	assert.Contains(t, out, "*")

	f.run(t, "move "+ref+" 5")
	assert.Equal(t, 5.0, f.onlyClip(t).StartTime)

	f.run(t, "filter "+ref+" Sepia")
	assert.Equal(t, timeline.FilterSepia, f.onlyClip(t).PrimaryFilter)

	assert.Equal(t, "undid Set Filter\n", f.run(t, "undo"))
	assert.Equal(t, "undid Move Clip\n", f.run(t, "undo"))
	assert.Equal(t, 2.0, f.onlyClip(t).StartTime)
	assert.Equal(t, "redid Move Clip\n", f.run(t, "redo"))

	out = f.run(t, "status")
	assert.Contains(t, out, "Shell Demo")
	assert.Contains(t, out, "redo     Set Filter")
}

func TestExecute_MoveSnaps(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add 1111 0")
	f.run(t, "add 1111 10")

	seq, err := f.session.Sequence()
	require.NoError(t, err)
	var second timeline.Clip
	for _, c := range seq.Clips {
		if c.StartTime == 10 {
			second = c
		}
	}
	out := f.run(t, "move "+second.ID.String()+" 4.05 snap")
	assert.Equal(t, "moved "+second.ID.String()[:8]+" to 4s\n", out)
}

func TestExecute_SplitAndDelete(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add 1111")
	clip := f.onlyClip(t)

	out := f.run(t, "split "+clip.ID.String()+" 1.5")
	assert.Contains(t, out, "new clip")
	seq, err := f.session.Sequence()
	require.NoError(t, err)
	require.Len(t, seq.Clips, 2)

	f.run(t, "delete "+clip.ID.String())
	seq, _ = f.session.Sequence()
	require.Len(t, seq.Clips, 1)
	assert.Equal(t, 1.5, seq.Clips[0].StartTime)
}

func TestExecute_PlanEffectExport(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add 1111 0")
	f.run(t, "add 2222 4")
	f.run(t, "global mono")

	out := f.run(t, "plan")
	assert.Contains(t, out, "render 1280x720")
	assert.Contains(t, out, "skipped ghost: probe_failed")

	assert.Equal(t, "Mono at 1s\n", f.run(t, "effect 1"))

	out = f.run(t, "export Take One")
	assert.Equal(t, "wrote 1 events to Take One.edl\n", out)
	data, err := os.ReadFile(filepath.Join(f.exports, "Take One.edl"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "TITLE: Take One"))
}

func TestExecute_Media(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "media")
	assert.Contains(t, out, "harbor")
	assert.Contains(t, out, "2.0 kB")

	_, err := f.shell.Execute(context.Background(), "import /tmp/x.mov")
	assert.Error(t, err)
}

func TestExecute_Templates(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "templates")
	assert.Contains(t, out, "title-end-card")
	assert.Contains(t, out, "sticker-star")

	out = f.run(t, "template title-end-card 3")
	assert.Equal(t, "added title \"Thanks for watching\" at 3s\n", out)
	clip := f.onlyClip(t)
	assert.Equal(t, timeline.KindTitle, clip.Kind)
	assert.Equal(t, 5.0, clip.Duration)
	assert.Equal(t, "Add Clip", f.session.History().UndoName)

	_, err := f.shell.Execute(context.Background(), "template sticker-star")
	assert.ErrorIs(t, err, editor.ErrNoTrackOfKind)
	_, err = f.shell.Execute(context.Background(), "template nope")
	assert.ErrorIs(t, err, templates.ErrNotFound)
}

func TestExecute_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shell.Execute(ctx, "undo")
	assert.ErrorIs(t, err, editor.ErrNothingToUndo)

	_, err = f.shell.Execute(ctx, "move deadbeef 1")
	assert.ErrorContains(t, err, "not found")

	_, err = f.shell.Execute(ctx, "global glitter")
	assert.Error(t, err)

	_, err = f.shell.Execute(ctx, "add 1111 soon")
	assert.ErrorContains(t, err, "invalid time")
}

func TestMatchPrefix(t *testing.T) {
	a := uuid.MustParse("abcd0000-0000-4000-8000-000000000001")
	b := uuid.MustParse("abce0000-0000-4000-8000-000000000002")
	ids := []uuid.UUID{a, b}

	got, err := matchPrefix(ids, "ABCD", "clip")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = matchPrefix(ids, "abc", "clip")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = matchPrefix(ids, "ffff", "clip")
	assert.ErrorContains(t, err, `clip "ffff" not found`)

	got, err = matchPrefix(ids, b.String(), "clip")
	require.NoError(t, err)
	assert.Equal(t, b, got)
}
