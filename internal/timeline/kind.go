package timeline

import "fmt"

// Kind is the content kind shared by tracks and clips. The raw values are
// part of the persisted document format.
type Kind string

const (
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindTitle   Kind = "title"
	KindSticker Kind = "sticker"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindVideo, KindAudio, KindTitle, KindSticker}

func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindTitle, KindSticker:
		return true
	default:
		return false
	}
}

// Label returns the human-readable track label for the kind.
func (k Kind) Label() string {
	switch k {
	case KindVideo:
		return "Video"
	case KindAudio:
		return "Audio"
	case KindTitle:
		return "Title"
	case KindSticker:
		return "Sticker"
	default:
		return string(k)
	}
}

// CompatibleWith reports whether a clip of kind k may live on a track of
// the given kind.
func (k Kind) CompatibleWith(track Kind) bool {
	return k.Valid() && k == track
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// Filter is one of the fixed set of named looks a clip or sequence can
// carry. The empty Filter means no filter was chosen; FilterNone is an
// explicit choice of the identity look and does not fall through to the
// sequence's global filter.
type Filter string

const (
	FilterNone    Filter = "none"
	FilterNoir    Filter = "noir"
	FilterChrome  Filter = "chrome"
	FilterInstant Filter = "instant"
	FilterSepia   Filter = "sepia"
	FilterBloom   Filter = "bloom"
	FilterVivid   Filter = "vivid"
	FilterMono    Filter = "mono"
)

// Filters lists every named filter in menu order.
var Filters = []Filter{
	FilterNone, FilterNoir, FilterChrome, FilterInstant,
	FilterSepia, FilterBloom, FilterVivid, FilterMono,
}

func (f Filter) Valid() bool {
	switch f {
	case FilterNone, FilterNoir, FilterChrome, FilterInstant,
		FilterSepia, FilterBloom, FilterVivid, FilterMono:
		return true
	default:
		return false
	}
}

// IsSet reports whether a filter was chosen at all.
func (f Filter) IsSet() bool {
	return f != ""
}

func (f Filter) DisplayName() string {
	switch f {
	case FilterNone:
		return "None"
	case FilterNoir:
		return "Noir"
	case FilterChrome:
		return "Chrome"
	case FilterInstant:
		return "Instant"
	case FilterSepia:
		return "Sepia"
	case FilterBloom:
		return "Bloom"
	case FilterVivid:
		return "Vivid"
	case FilterMono:
		return "Mono"
	case "":
		return ""
	default:
		return string(f)
	}
}

func (f *Filter) UnmarshalText(text []byte) error {
	parsed, err := ParseFilter(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFilter accepts a filter raw value. The empty string parses to the
// unset filter.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return "", nil
	}
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}
