package osu

import (
	"time"

	"github.com/s0up4200/osuapi/decode"
	"github.com/s0up4200/osuapi/lazy"
)

// User is a player profile. Which optional fields are present depends on
// the endpoint that returned it.
type User struct {
	ID            int64           `json:"id" decode:"required"`
	Username      string          `json:"username" decode:"required"`
	CountryCode   string          `json:"country_code"`
	AvatarURL     string          `json:"avatar_url"`
	DefaultGroup  string          `json:"default_group"`
	IsActive      bool            `json:"is_active"`
	IsBot         bool            `json:"is_bot"`
	IsDeleted     bool            `json:"is_deleted"`
	IsOnline      bool            `json:"is_online"`
	IsSupporter   bool            `json:"is_supporter"`
	LastVisit     *time.Time      `json:"last_visit"`
	JoinDate      *time.Time      `json:"join_date"`
	PlayMode      GameMode        `json:"playmode"`
	PreviousNames []string        `json:"previous_usernames"`
	Statistics    *UserStatistics `json:"statistics"`
}

// UserStatistics holds per-mode totals.
type UserStatistics struct {
	PP          float64 `json:"pp"`
	GlobalRank  *int    `json:"global_rank"`
	CountryRank *int    `json:"country_rank"`
	RankedScore int64   `json:"ranked_score"`
	TotalScore  int64   `json:"total_score"`
	HitAccuracy float64 `json:"hit_accuracy"`
	PlayCount   int     `json:"play_count"`
	PlayTime    int     `json:"play_time"`
	MaxCombo    int     `json:"maximum_combo"`
	Level       struct {
		Current  int `json:"current"`
		Progress int `json:"progress"`
	} `json:"level"`
}

// Beatmapset is a group of difficulties uploaded together.
type Beatmapset struct {
	ID             int64      `json:"id" decode:"required"`
	Title          string     `json:"title"`
	TitleUnicode   string     `json:"title_unicode"`
	Artist         string     `json:"artist"`
	ArtistUnicode  string     `json:"artist_unicode"`
	Creator        string     `json:"creator"`
	UserID         int64      `json:"user_id"`
	Source         string     `json:"source"`
	Tags           string     `json:"tags"`
	Status         RankStatus `json:"status"`
	PlayCount      int        `json:"play_count"`
	FavouriteCount int        `json:"favourite_count"`
	NSFW           bool       `json:"nsfw"`
	Video          bool       `json:"video"`
	BPM            float64    `json:"bpm"`
	RankedDate     *time.Time `json:"ranked_date"`
	SubmittedDate  *time.Time `json:"submitted_date"`
	LastUpdated    *time.Time `json:"last_updated"`
	Beatmaps       []Beatmap  `json:"beatmaps"`
}

// Beatmap is a single difficulty.
type Beatmap struct {
	ID               int64      `json:"id" decode:"required"`
	BeatmapsetID     int64      `json:"beatmapset_id" decode:"required"`
	Version          string     `json:"version"`
	Mode             GameMode   `json:"mode"`
	Status           RankStatus `json:"status"`
	DifficultyRating float64    `json:"difficulty_rating"`
	TotalLength      int        `json:"total_length"`
	HitLength        int        `json:"hit_length"`
	BPM              *float64   `json:"bpm"`
	CS               float64    `json:"cs"`
	AR               float64    `json:"ar"`
	Drain            float64    `json:"drain"`
	Accuracy         float64    `json:"accuracy"`
	Checksum         *string    `json:"checksum"`
	MaxCombo         *int       `json:"max_combo"`
	UserID           int64      `json:"user_id"`
	Playcount        int        `json:"playcount"`
	Passcount        int        `json:"passcount"`
	URL              string     `json:"url"`
	LastUpdated      *time.Time `json:"last_updated"`

	// Beatmapset is the parent set. Embedded payloads resolve it without I/O.
	Beatmapset *lazy.Ref[int64, *Beatmapset] `json:"-"`
}

func (b *Beatmap) UnmarshalJSON(data []byte) error {
	type plain Beatmap
	var aux struct {
		plain
		Beatmapset *Beatmapset `json:"beatmapset"`
	}
	if err := decode.IntoNamed(data, &aux, "Beatmap"); err != nil {
		return err
	}

	*b = Beatmap(aux.plain)
	if aux.Beatmapset != nil {
		b.Beatmapset = lazy.Resolved(b.BeatmapsetID, aux.Beatmapset)
	} else {
		b.Beatmapset = lazy.New[int64, *Beatmapset](b.BeatmapsetID, nil)
	}
	return nil
}

// Score is a single play.
type Score struct {
	ID               int64          `json:"id" decode:"required"`
	BestID           *int64         `json:"best_id"`
	UserID           int64          `json:"user_id" decode:"required"`
	BeatmapID        int64          `json:"beatmap_id"`
	RulesetID        int            `json:"ruleset_id"`
	Accuracy         float64        `json:"accuracy"`
	MaxCombo         int            `json:"max_combo"`
	TotalScore       int64          `json:"total_score"`
	LegacyTotalScore int64          `json:"legacy_total_score"`
	PP               *float64       `json:"pp"`
	Rank             string         `json:"rank"`
	Passed           bool           `json:"passed"`
	HasReplay        bool           `json:"has_replay"`
	Mods             []ScoreMod     `json:"mods"`
	Statistics       map[string]int `json:"statistics"`
	EndedAt          *time.Time     `json:"ended_at"`
	Type             string         `json:"type"`

	// Beatmap and User are resolved through the client unless the payload
	// embedded them.
	Beatmap *lazy.Ref[int64, *Beatmap] `json:"-"`
	User    *lazy.Ref[int64, *User]    `json:"-"`
}

// ScoreMod is one mod applied to a score, e.g. {"acronym": "DT"}.
type ScoreMod struct {
	Acronym  string         `json:"acronym" decode:"required"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Mode returns the score's game mode.
func (s *Score) Mode() GameMode {
	mode, ok := GameModeFromRuleset(s.RulesetID)
	if !ok {
		return ""
	}
	return mode
}

func (s *Score) UnmarshalJSON(data []byte) error {
	type plain Score
	var aux struct {
		plain
		Beatmap    *Beatmap    `json:"beatmap"`
		Beatmapset *Beatmapset `json:"beatmapset"`
		User       *User       `json:"user"`
	}
	if err := decode.IntoNamed(data, &aux, "Score"); err != nil {
		return err
	}

	*s = Score(aux.plain)
	if s.BeatmapID == 0 && aux.Beatmap != nil {
		s.BeatmapID = aux.Beatmap.ID
	}
	// Score payloads carry the set next to the beatmap rather than inside it.
	if aux.Beatmap != nil && aux.Beatmapset != nil && aux.Beatmapset.ID == aux.Beatmap.BeatmapsetID {
		aux.Beatmap.Beatmapset = lazy.Resolved(aux.Beatmapset.ID, aux.Beatmapset)
	}

	if aux.Beatmap != nil {
		s.Beatmap = lazy.Resolved(s.BeatmapID, aux.Beatmap)
	} else {
		s.Beatmap = lazy.New[int64, *Beatmap](s.BeatmapID, nil)
	}
	if aux.User != nil {
		s.User = lazy.Resolved(s.UserID, aux.User)
	} else {
		s.User = lazy.New[int64, *User](s.UserID, nil)
	}
	return nil
}

// ForumTopic is a thread in the forums.
type ForumTopic struct {
	ID          int64      `json:"id" decode:"required"`
	ForumID     int64      `json:"forum_id" decode:"required"`
	Title       string     `json:"title"`
	UserID      int64      `json:"user_id"`
	PostCount   int        `json:"post_count"`
	FirstPostID int64      `json:"first_post_id"`
	LastPostID  int64      `json:"last_post_id"`
	IsLocked    bool       `json:"is_locked"`
	Type        string     `json:"type"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// ForumPost is a single post. Body holds both the BBCode source and the
// rendered HTML.
type ForumPost struct {
	ID        int64      `json:"id" decode:"required"`
	TopicID   int64      `json:"topic_id"`
	ForumID   int64      `json:"forum_id"`
	UserID    int64      `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
	Body      struct {
		HTML   string `json:"html"`
		Source string `json:"raw"`
	} `json:"body"`
}

// ForumTopicPage is a topic together with a page of its posts.
type ForumTopicPage struct {
	Topic  ForumTopic  `json:"topic" decode:"required"`
	Posts  []ForumPost `json:"posts"`
	Cursor *string     `json:"cursor_string"`
}

// CreatedTopic is the response to ForumCreateTopic.
type CreatedTopic struct {
	Topic ForumTopic `json:"topic" decode:"required"`
	Post  ForumPost  `json:"post" decode:"required"`
}
