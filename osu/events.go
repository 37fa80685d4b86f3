package osu

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/s0up4200/osuapi/decode"
)

// Event is an entry of the global activity feed. Payload holds the
// type-specific part; its concrete type is chosen by Type.
type Event struct {
	ID        int64
	Type      EventType
	CreatedAt time.Time
	Payload   EventPayload
}

// EventPayload is implemented by AchievementEvent, BeatmapPlaycountEvent,
// BeatmapsetApproveEvent, BeatmapsetChangeEvent, RankEvent, RankLostEvent,
// UserSupportEvent, UsernameChangeEvent and UnknownEvent.
type EventPayload interface {
	isEventPayload()
}

// EventUser is the user summary embedded in feed events.
type EventUser struct {
	Username         string  `json:"username" decode:"required"`
	URL              string  `json:"url"`
	PreviousUsername *string `json:"previousUsername"`
}

// EventBeatmap is the beatmap summary embedded in feed events.
type EventBeatmap struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// EventBeatmapset is the beatmapset summary embedded in feed events.
type EventBeatmapset struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type AchievementEvent struct {
	Achievement struct {
		ID          int64     `json:"id" decode:"required"`
		Name        string    `json:"name"`
		Slug        string    `json:"slug"`
		Grouping    string    `json:"grouping"`
		Description string    `json:"description"`
		Mode        *GameMode `json:"mode"`
	} `json:"achievement" decode:"required"`
	User EventUser `json:"user" decode:"required"`
}

type BeatmapPlaycountEvent struct {
	Beatmap EventBeatmap `json:"beatmap" decode:"required"`
	Count   int          `json:"count" decode:"required"`
}

type BeatmapsetApproveEvent struct {
	Approval   RankStatus      `json:"approval" decode:"required"`
	Beatmapset EventBeatmapset `json:"beatmapset" decode:"required"`
	User       EventUser       `json:"user" decode:"required"`
}

// BeatmapsetChangeEvent covers beatmapset uploads, updates, deletions and revivals.
type BeatmapsetChangeEvent struct {
	Beatmapset EventBeatmapset `json:"beatmapset" decode:"required"`
	User       *EventUser      `json:"user"`
}

type RankEvent struct {
	ScoreRank string       `json:"scoreRank" decode:"required"`
	Rank      int          `json:"rank" decode:"required"`
	Mode      GameMode     `json:"mode" decode:"required"`
	Beatmap   EventBeatmap `json:"beatmap" decode:"required"`
	User      EventUser    `json:"user" decode:"required"`
}

type RankLostEvent struct {
	Mode    GameMode     `json:"mode" decode:"required"`
	Beatmap EventBeatmap `json:"beatmap" decode:"required"`
	User    EventUser    `json:"user" decode:"required"`
}

// UserSupportEvent covers first, repeated and gifted supporter tags.
type UserSupportEvent struct {
	User EventUser `json:"user" decode:"required"`
}

type UsernameChangeEvent struct {
	User EventUser `json:"user" decode:"required"`
}

// UnknownEvent is an event of a type this package does not know. Fields
// keeps every member of the payload.
type UnknownEvent struct {
	Fields map[string]json.RawMessage
}

func (AchievementEvent) isEventPayload()       {}
func (BeatmapPlaycountEvent) isEventPayload()  {}
func (BeatmapsetApproveEvent) isEventPayload() {}
func (BeatmapsetChangeEvent) isEventPayload()  {}
func (RankEvent) isEventPayload()              {}
func (RankLostEvent) isEventPayload()          {}
func (UserSupportEvent) isEventPayload()       {}
func (UsernameChangeEvent) isEventPayload()    {}
func (UnknownEvent) isEventPayload()           {}

type payloadDecoder func(data []byte, entity string) (EventPayload, error)

var eventPayloads = map[EventType]payloadDecoder{
	EventAchievement:       decodeAs[AchievementEvent],
	EventBeatmapPlaycount:  decodeAs[BeatmapPlaycountEvent],
	EventBeatmapsetApprove: decodeAs[BeatmapsetApproveEvent],
	EventBeatmapsetDelete:  decodeAs[BeatmapsetChangeEvent],
	EventBeatmapsetRevive:  decodeAs[BeatmapsetChangeEvent],
	EventBeatmapsetUpdate:  decodeAs[BeatmapsetChangeEvent],
	EventBeatmapsetUpload:  decodeAs[BeatmapsetChangeEvent],
	EventRank:              decodeAs[RankEvent],
	EventRankLost:          decodeAs[RankLostEvent],
	EventUserSupportAgain:  decodeAs[UserSupportEvent],
	EventUserSupportFirst:  decodeAs[UserSupportEvent],
	EventUserSupportGift:   decodeAs[UserSupportEvent],
	EventUsernameChange:    decodeAs[UsernameChangeEvent],
}

func decodeAs[T EventPayload](data []byte, entity string) (EventPayload, error) {
	var v T
	if err := decode.IntoNamed(data, &v, entity); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		ID        int64     `json:"id" decode:"required"`
		Type      EventType `json:"type" decode:"required"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := decode.IntoNamed(data, &head, "Event"); err != nil {
		return err
	}

	*e = Event{ID: head.ID, Type: head.Type, CreatedAt: head.CreatedAt}

	decodePayload, ok := eventPayloads[head.Type]
	if !ok {
		fields, err := decode.Fields(data)
		if err != nil {
			return err
		}
		e.Payload = UnknownEvent{Fields: fields}
		return nil
	}

	payload, err := decodePayload(data, fmt.Sprintf("Event(%s)", head.Type))
	if err != nil {
		return err
	}
	e.Payload = payload
	return nil
}

// BeatmapsetEvent is an entry of a beatmapset's modding history. The shape
// of Comment depends on Type.
type BeatmapsetEvent struct {
	ID         int64
	Type       BeatmapsetEventType
	CreatedAt  time.Time
	UserID     *int64
	Beatmapset *Beatmapset
	// Comment is nil when the API sent none.
	Comment BeatmapsetEventComment
}

// BeatmapsetEventComment is implemented by NominateComment,
// DiscussionComment, KudosuComment, EditComment, NSFWToggleComment,
// OffsetEditComment, OwnerChangeComment and UnknownComment.
type BeatmapsetEventComment interface {
	isBeatmapsetEventComment()
}

type NominateComment struct {
	Modes []GameMode `json:"modes"`
}

// DiscussionComment points at the discussion that caused the event.
type DiscussionComment struct {
	BeatmapDiscussionID     *int64  `json:"beatmap_discussion_id"`
	BeatmapDiscussionPostID *int64  `json:"beatmap_discussion_post_id"`
	NominatorIDs            []int64 `json:"nominator_ids"`
}

type KudosuVote struct {
	UserID int64 `json:"user_id" decode:"required"`
	Score  int   `json:"score" decode:"required"`
}

type KudosuComment struct {
	BeatmapDiscussionID *int64       `json:"beatmap_discussion_id"`
	NewVote             *KudosuVote  `json:"new_vote"`
	Votes               []KudosuVote `json:"votes"`
}

// EditComment records a metadata edit such as genre or language.
type EditComment struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type NSFWToggleComment struct {
	Old bool `json:"old"`
	New bool `json:"new"`
}

type OffsetEditComment struct {
	Old int `json:"old"`
	New int `json:"new"`
}

type OwnerChangeComment struct {
	BeatmapID       int64  `json:"beatmap_id" decode:"required"`
	BeatmapVersion  string `json:"beatmap_version"`
	NewUserID       int64  `json:"new_user_id" decode:"required"`
	NewUserUsername string `json:"new_user_username"`
}

// UnknownComment keeps a comment whose shape is not known for the event
// type. Raw is the comment as sent, which may be a string or an object.
type UnknownComment struct {
	Raw json.RawMessage
}

func (NominateComment) isBeatmapsetEventComment()    {}
func (DiscussionComment) isBeatmapsetEventComment()  {}
func (KudosuComment) isBeatmapsetEventComment()      {}
func (EditComment) isBeatmapsetEventComment()        {}
func (NSFWToggleComment) isBeatmapsetEventComment()  {}
func (OffsetEditComment) isBeatmapsetEventComment()  {}
func (OwnerChangeComment) isBeatmapsetEventComment() {}
func (UnknownComment) isBeatmapsetEventComment()     {}

func (e *BeatmapsetEvent) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID         int64               `json:"id" decode:"required"`
		Type       BeatmapsetEventType `json:"type" decode:"required"`
		CreatedAt  time.Time           `json:"created_at"`
		UserID     *int64              `json:"user_id"`
		Beatmapset *Beatmapset         `json:"beatmapset"`
		Comment    json.RawMessage     `json:"comment"`
	}
	if err := decode.IntoNamed(data, &aux, "BeatmapsetEvent"); err != nil {
		return err
	}

	*e = BeatmapsetEvent{
		ID:         aux.ID,
		Type:       aux.Type,
		CreatedAt:  aux.CreatedAt,
		UserID:     aux.UserID,
		Beatmapset: aux.Beatmapset,
	}

	if len(aux.Comment) == 0 || string(aux.Comment) == "null" {
		return nil
	}
	comment, err := decodeComment(aux.Type, aux.Comment)
	if err != nil {
		return err
	}
	e.Comment = comment
	return nil
}

func decodeComment(t BeatmapsetEventType, raw json.RawMessage) (BeatmapsetEventComment, error) {
	entity := fmt.Sprintf("BeatmapsetEvent(%s).comment", t)

	// Older events sometimes carry a plain string comment.
	if raw[0] != '{' {
		return UnknownComment{Raw: raw}, nil
	}

	switch t {
	case BeatmapsetEventNominate:
		return commentAs[NominateComment](raw, entity)
	case BeatmapsetEventDisqualify, BeatmapsetEventNominationReset, BeatmapsetEventNominationResetRecv,
		BeatmapsetEventIssueResolve, BeatmapsetEventIssueReopen, BeatmapsetEventDiscussionLock,
		BeatmapsetEventDiscussionUnlock, BeatmapsetEventDiscussionDelete, BeatmapsetEventDiscussionRestore,
		BeatmapsetEventDiscussionPostDelete, BeatmapsetEventDiscussionPostRestore,
		BeatmapsetEventKudosuAllow, BeatmapsetEventKudosuDeny:
		return commentAs[DiscussionComment](raw, entity)
	case BeatmapsetEventKudosuGain, BeatmapsetEventKudosuLost, BeatmapsetEventKudosuRecalculate:
		return commentAs[KudosuComment](raw, entity)
	case BeatmapsetEventGenreEdit, BeatmapsetEventLanguageEdit, BeatmapsetEventTagsEdit:
		return commentAs[EditComment](raw, entity)
	case BeatmapsetEventNSFWToggle:
		return commentAs[NSFWToggleComment](raw, entity)
	case BeatmapsetEventOffsetEdit:
		return commentAs[OffsetEditComment](raw, entity)
	case BeatmapsetEventOwnerChange:
		return commentAs[OwnerChangeComment](raw, entity)
	}
	return UnknownComment{Raw: raw}, nil
}

func commentAs[T BeatmapsetEventComment](raw json.RawMessage, entity string) (BeatmapsetEventComment, error) {
	var c T
	if err := decode.IntoNamed(raw, &c, entity); err != nil {
		return nil, err
	}
	return c, nil
}
