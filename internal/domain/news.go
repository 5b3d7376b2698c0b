package domain

import "time"

// MediaKind classifies a media reference for acquisition strategy selection.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaGIF   MediaKind = "gif"
	MediaVideo MediaKind = "video"
)

// MediaReference points at a remote media asset. LocalPath is filled in once
// the asset has been downloaded and normalized into the artifact store.
type MediaReference struct {
	Kind      MediaKind
	RemoteURL string
	LocalPath string
}

// Resolved reports whether acquisition produced a local artifact.
func (m MediaReference) Resolved() bool {
	return m.LocalPath != ""
}

// ContentRecord is the normalized article representation produced by a source
// engine. It is owned by the pipeline invocation that created it.
type ContentRecord struct {
	Title       string
	Description string
	BodyText    string
	Author      string
	PublishedAt time.Time
	SourceName  string
	ContentType string
	Images      []MediaReference
	Videos      []MediaReference
}

// Empty reports whether parsing yielded no usable content. This is a normal
// outcome for pages that are entirely client-rendered ad content.
func (r ContentRecord) Empty() bool {
	return r.Title == "" || r.BodyText == ""
}

// MediaCount returns the number of references that survived acquisition.
func (r ContentRecord) MediaCount() int {
	count := 0
	for _, m := range r.Images {
		if m.Resolved() {
			count++
		}
	}
	for _, m := range r.Videos {
		if m.Resolved() {
			count++
		}
	}
	return count
}
