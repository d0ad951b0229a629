// Package models defines the wire-level and persisted shapes of the user
// directory: the minimal listing entry, the full profile, and the local
// merged record with its optional note.
package models

// Record is one entry of the remote listing endpoint. The listing returns
// only the minimal shape; profile fields arrive later via a detail fetch.
type Record struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
}

// RecordProfile is the full detail shape returned for a single login.
type RecordProfile struct {
	Login     string  `json:"login"`
	ID        int64   `json:"id"`
	AvatarURL string  `json:"avatar_url"`
	Followers int32   `json:"followers"`
	Following int32   `json:"following"`
	Name      string  `json:"name"`
	Company   *string `json:"company"`
	Blog      string  `json:"blog"`
}

// Note is a private annotation attached to exactly one LocalRecord.
// It is created lazily on first save and never exists without its record.
type Note struct {
	Content string
}

// LocalRecord is the persisted superset of Record and RecordProfile.
// IsSeen flips to true the first time a detail fetch fills the profile
// fields and never reverts.
type LocalRecord struct {
	ID        int64
	Login     string
	AvatarURL string
	Name      string
	Company   *string
	Blog      *string
	Followers int32
	Following int32
	IsSeen    bool
	Note      *Note
}

// HasNote reports whether the record carries a non-empty note.
func (r *LocalRecord) HasNote() bool {
	return r.Note != nil && r.Note.Content != ""
}

// NoteContent returns the note text, or "" if there is no note.
func (r *LocalRecord) NoteContent() string {
	if r.Note == nil {
		return ""
	}
	return r.Note.Content
}
