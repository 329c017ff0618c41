package timeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the on-disk date format. Dates carry second precision.
const DateFormat = time.RFC3339

// Project is the editing document. The editor operates on the first
// sequence.
type Project struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Sequences []Sequence
}

// NewProject creates a project with one default sequence.
func NewProject(name string, now time.Time) Project {
	ts := normalizeTime(now)
	return Project{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: ts,
		UpdatedAt: ts,
		Sequences: []Sequence{DefaultSequence()},
	}
}

// Current returns the sequence edits apply to, or nil if there is none.
func (p *Project) Current() *Sequence {
	if p == nil || len(p.Sequences) == 0 {
		return nil
	}
	return &p.Sequences[0]
}

// Touch records a modification at now.
func (p *Project) Touch(now time.Time) {
	p.UpdatedAt = normalizeTime(now)
}

// Clone returns a deep copy suitable for handing to another goroutine.
func (p Project) Clone() Project {
	out := p
	out.Sequences = make([]Sequence, len(p.Sequences))
	for i, s := range p.Sequences {
		out.Sequences[i] = s.Clone()
	}
	return out
}

func (p Project) Validate() error {
	for _, s := range p.Sequences {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sequence %s: %w", s.ID, err)
		}
	}
	return nil
}

type projectJSON struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
	Sequences []Sequence `json:"sequences"`
}

func (p Project) MarshalJSON() ([]byte, error) {
	seqs := p.Sequences
	if seqs == nil {
		seqs = []Sequence{}
	}
	return json.Marshal(projectJSON{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.UTC().Format(DateFormat),
		UpdatedAt: p.UpdatedAt.UTC().Format(DateFormat),
		Sequences: seqs,
	})
}

func (p *Project) UnmarshalJSON(data []byte) error {
	var raw projectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := time.Parse(DateFormat, raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("invalid createdAt: %w", err)
	}
	updated, err := time.Parse(DateFormat, raw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invalid updatedAt: %w", err)
	}
	for i := range raw.Sequences {
		if raw.Sequences[i].Tracks == nil {
			raw.Sequences[i].Tracks = []Track{}
		}
		if raw.Sequences[i].Clips == nil {
			raw.Sequences[i].Clips = []Clip{}
		}
	}
	*p = Project{
		ID:        raw.ID,
		Name:      raw.Name,
		CreatedAt: normalizeTime(created),
		UpdatedAt: normalizeTime(updated),
		Sequences: raw.Sequences,
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
