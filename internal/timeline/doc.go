// Package timeline holds the editing document: projects, sequences, tracks,
// clips and keyframe tracks, together with the read-only queries the rest of
// the editor derives from them (active clips, topmost video clip, snapping).
//
// Values in this package carry no behaviour beyond derived queries. All
// mutation of a live document goes through package commands so it can be
// undone.
package timeline
