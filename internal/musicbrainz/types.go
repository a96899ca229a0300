// file: internal/musicbrainz/types.go
// version: 1.0.0
// guid: 4b8e2f61-7c3d-4a90-b5e1-9d2f6a8c0e37

// Package musicbrainz provides a rate-limited client for the MusicBrainz web
// service and a verifier that turns free-text guesses into catalog records.
package musicbrainz

// Recording is a MusicBrainz recording together with the releases it appears on
type Recording struct {
	ID               string
	Title            string
	Artist           string // joined artist credit
	ArtistID         string // first credited artist
	Score            int    // search relevance (0-100), zero for lookups
	FirstReleaseDate string
	Releases         []Release
}

// Release is one release of a recording
type Release struct {
	ID          string
	Title       string
	Date        string
	TrackNumber string // the recording's track number on this release, as printed
}

// recordingSearchResponse is the raw response from /recording?query=
type recordingSearchResponse struct {
	Count      int               `json:"count"`
	Recordings []recordingResult `json:"recordings"`
}

// recordingResult is a recording from search or lookup
type recordingResult struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Score            int             `json:"score"`
	FirstReleaseDate string          `json:"first-release-date"`
	ArtistCredit     []artistCredit  `json:"artist-credit"`
	Releases         []releaseResult `json:"releases"`
}

// artistCredit represents an artist contribution
type artistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artist"`
	JoinPhrase string `json:"joinphrase"`
}

type releaseResult struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Date  string   `json:"date"`
	Media []medium `json:"media"`
}

// medium is a disc. Search results list tracks under "track", lookups under
// "tracks".
type medium struct {
	Position    int     `json:"position"`
	Track       []track `json:"track"`
	Tracks      []track `json:"tracks"`
	TrackOffset int     `json:"track-offset"`
}

type track struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Position  int    `json:"position"`
	Title     string `json:"title"`
	Recording *struct {
		ID string `json:"id"`
	} `json:"recording"`
}
