package core

// Source identifies a selectable log origin. An empty ID is the
// default/primary source.
type Source struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TokenSource supplies the bearer credential for stream connections.
// Implementations must be synchronous and side-effect free; the stream
// layer does not refresh or validate the token.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource backed by a fixed string.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// SourceList supplies the set of selectable sources. The stream layer
// only ever consumes the currently selected ID; the list itself is for
// display and cycling.
type SourceList interface {
	Sources() []Source
}

// StaticSources is a SourceList backed by a fixed slice.
type StaticSources []Source

func (s StaticSources) Sources() []Source { return []Source(s) }
