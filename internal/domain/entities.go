package domain

// Article is one news item from the catalog. Immutable once loaded.
type Article struct {
	NewsID           string
	Category         string
	SubCategory      string
	Title            string
	Abstract         string
	URL              string
	TitleEntities    string
	AbstractEntities string
}

// InfoText renders the flat text form used for embedding.
func (a Article) InfoText() string {
	return "category:" + a.Category +
		" | sub_category:" + a.SubCategory +
		" | title:" + a.Title +
		" | abstract:" + a.Abstract
}

// ClickHistory is a user's chronologically ordered article ids, most recent last.
type ClickHistory []string

// Latest returns the most recent id, or "" for an empty history.
func (h ClickHistory) Latest() string {
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}

// CategoryCount is one (category, sub_category) affinity entry.
type CategoryCount struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Count       int    `json:"count"`
}

// UserProfile is the per-request interest summary derived from a click history.
// FavoriteCategories holds at most 5 entries in descending count order;
// ClickHistory holds at most the first 10 ids of the source history.
type UserProfile struct {
	Topics             []string        `json:"topics"`
	Regions            []string        `json:"regions"`
	FavoriteCategories []CategoryCount `json:"favorite_categories"`
	ClickHistory       []string        `json:"click_history"`
}

// Recommendation is the article projection returned to callers.
type Recommendation struct {
	NewsID      string `json:"news_id"`
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
}

// RecommendResult is the ordered outcome of one recommendation request.
// Degraded is set when the candidate pool had to be substituted with a
// random catalog sample.
type RecommendResult struct {
	Items    []Recommendation `json:"items"`
	Degraded bool             `json:"degraded,omitempty"`
}
