package tracker

import "context"

// Client fetches the user's remote watch-list library. Implementations must
// treat the remote payload as untrusted: every level of the returned tree may
// be missing or malformed.
type Client interface {
	Library(ctx context.Context) (*Library, error)
}

// Library is the raw category-list tree as returned by the tracking service.
// Numeric fields are decoded as `any` on purpose: the service occasionally
// returns strings or nulls where numbers are expected, and classification of
// those values is the projector's job, not the transport's.
type Library struct {
	Lists []List `json:"lists"`
}

// List is one category list. Status is the list-level status token used as a
// fallback for entries that carry no status of their own.
type List struct {
	Name    string  `json:"name"`
	Status  any     `json:"status"`
	Entries []Entry `json:"entries"`
}

// Entry is one watch-list entry with the per-user fields.
type Entry struct {
	ID       any    `json:"id"`
	Status   any    `json:"status"`
	Progress any    `json:"progress"`
	Score    any    `json:"score"`
	Media    *Media `json:"media"`
}

// Media is the underlying title record.
type Media struct {
	ID                any            `json:"id"`
	Title             *Title         `json:"title"`
	CoverImage        *CoverImage    `json:"coverImage"`
	Episodes          any            `json:"episodes"`
	NextAiringEpisode *AiringEpisode `json:"nextAiringEpisode"`
	Format            string         `json:"format"`
	SiteURL           string         `json:"siteUrl"`
}

// Title holds the name variants. Preference order when picking a display
// title is UserPreferred, English, Romaji, Native.
type Title struct {
	UserPreferred string `json:"userPreferred"`
	English       string `json:"english"`
	Romaji        string `json:"romaji"`
	Native        string `json:"native"`
}

// CoverImage holds the artwork variants, largest first.
type CoverImage struct {
	ExtraLarge string `json:"extraLarge"`
	Large      string `json:"large"`
	Medium     string `json:"medium"`
}

// AiringEpisode carries the next episode scheduled to air.
type AiringEpisode struct {
	Episode any `json:"episode"`
}

// ClientError represents an error from the tracking service.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}
