package timeline

import "github.com/google/uuid"

// Track is a layer channel of one kind. Index orders tracks of the same
// kind; the higher index is composited on top.
type Track struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Index       int       `json:"index"`
	DisplayName string    `json:"displayName"`
}

func NewTrack(kind Kind, index int, displayName string) Track {
	return Track{
		ID:          uuid.New(),
		Kind:        kind,
		Index:       index,
		DisplayName: displayName,
	}
}

// Label is the kind label shown next to the track name.
func (t Track) Label() string {
	return t.Kind.Label()
}
