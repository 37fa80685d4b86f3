package osu

import "slices"

// String enums keep whatever value the API sent. A value this package does
// not know reports IsUnknown and still round-trips unchanged.

// GameMode is a ruleset as named by the API.
type GameMode string

const (
	GameModeOsu    GameMode = "osu"
	GameModeTaiko  GameMode = "taiko"
	GameModeFruits GameMode = "fruits"
	GameModeMania  GameMode = "mania"
)

var gameModes = []GameMode{GameModeOsu, GameModeTaiko, GameModeFruits, GameModeMania}

// IsUnknown reports a mode this package does not know
func (m GameMode) IsUnknown() bool { return !slices.Contains(gameModes, m) }

func (m GameMode) String() string { return string(m) }

// Ruleset returns the numeric ruleset id, or -1 for an unknown mode.
func (m GameMode) Ruleset() int {
	return slices.Index(gameModes, m)
}

// GameModeFromRuleset maps a numeric ruleset id (0 osu, 1 taiko, 2 fruits,
// 3 mania) to its mode.
func GameModeFromRuleset(ruleset int) (GameMode, bool) {
	if ruleset < 0 || ruleset >= len(gameModes) {
		return "", false
	}
	return gameModes[ruleset], true
}

// RankStatus is the ranking state of a beatmap or beatmapset.
type RankStatus string

const (
	RankStatusGraveyard RankStatus = "graveyard"
	RankStatusWIP       RankStatus = "wip"
	RankStatusPending   RankStatus = "pending"
	RankStatusRanked    RankStatus = "ranked"
	RankStatusApproved  RankStatus = "approved"
	RankStatusQualified RankStatus = "qualified"
	RankStatusLoved     RankStatus = "loved"
)

// rankStatuses is ordered by the API's integer encoding, starting at -2.
var rankStatuses = []RankStatus{
	RankStatusGraveyard, RankStatusWIP, RankStatusPending, RankStatusRanked,
	RankStatusApproved, RankStatusQualified, RankStatusLoved,
}

func (s RankStatus) IsUnknown() bool { return !slices.Contains(rankStatuses, s) }

func (s RankStatus) String() string { return string(s) }

// RankStatusFromInt converts the integer "ranked" field.
func RankStatusFromInt(v int) (RankStatus, bool) {
	i := v + 2
	if i < 0 || i >= len(rankStatuses) {
		return "", false
	}
	return rankStatuses[i], true
}

// UserLookupKey selects how User interprets its argument.
type UserLookupKey string

const (
	UserLookupAny      UserLookupKey = ""
	UserLookupID       UserLookupKey = "id"
	UserLookupUsername UserLookupKey = "username"
)

// ScoreType selects the list returned by UserScores.
type ScoreType string

const (
	ScoreTypeBest   ScoreType = "best"
	ScoreTypeFirsts ScoreType = "firsts"
	ScoreTypeRecent ScoreType = "recent"
)

// EventsSort orders the global event feed.
type EventsSort string

const (
	EventsSortNewest EventsSort = "id_desc"
	EventsSortOldest EventsSort = "id_asc"
)

// EventType is the discriminator of a feed Event.
type EventType string

const (
	EventAchievement       EventType = "achievement"
	EventBeatmapPlaycount  EventType = "beatmapPlaycount"
	EventBeatmapsetApprove EventType = "beatmapsetApprove"
	EventBeatmapsetDelete  EventType = "beatmapsetDelete"
	EventBeatmapsetRevive  EventType = "beatmapsetRevive"
	EventBeatmapsetUpdate  EventType = "beatmapsetUpdate"
	EventBeatmapsetUpload  EventType = "beatmapsetUpload"
	EventRank              EventType = "rank"
	EventRankLost          EventType = "rankLost"
	EventUserSupportAgain  EventType = "userSupportAgain"
	EventUserSupportFirst  EventType = "userSupportFirst"
	EventUserSupportGift   EventType = "userSupportGift"
	EventUsernameChange    EventType = "usernameChange"
)

var eventTypes = []EventType{
	EventAchievement, EventBeatmapPlaycount, EventBeatmapsetApprove, EventBeatmapsetDelete,
	EventBeatmapsetRevive, EventBeatmapsetUpdate, EventBeatmapsetUpload, EventRank, EventRankLost,
	EventUserSupportAgain, EventUserSupportFirst, EventUserSupportGift, EventUsernameChange,
}

func (t EventType) IsUnknown() bool { return !slices.Contains(eventTypes, t) }

func (t EventType) String() string { return string(t) }

// BeatmapsetEventType is the discriminator of a modding history entry.
type BeatmapsetEventType string

const (
	BeatmapsetEventNominate              BeatmapsetEventType = "nominate"
	BeatmapsetEventLove                  BeatmapsetEventType = "love"
	BeatmapsetEventRemoveFromLoved       BeatmapsetEventType = "remove_from_loved"
	BeatmapsetEventQualify               BeatmapsetEventType = "qualify"
	BeatmapsetEventDisqualify            BeatmapsetEventType = "disqualify"
	BeatmapsetEventApprove               BeatmapsetEventType = "approve"
	BeatmapsetEventRank                  BeatmapsetEventType = "rank"
	BeatmapsetEventKudosuAllow           BeatmapsetEventType = "kudosu_allow"
	BeatmapsetEventKudosuDeny            BeatmapsetEventType = "kudosu_deny"
	BeatmapsetEventKudosuGain            BeatmapsetEventType = "kudosu_gain"
	BeatmapsetEventKudosuLost            BeatmapsetEventType = "kudosu_lost"
	BeatmapsetEventKudosuRecalculate     BeatmapsetEventType = "kudosu_recalculate"
	BeatmapsetEventIssueResolve          BeatmapsetEventType = "issue_resolve"
	BeatmapsetEventIssueReopen           BeatmapsetEventType = "issue_reopen"
	BeatmapsetEventDiscussionLock        BeatmapsetEventType = "discussion_lock"
	BeatmapsetEventDiscussionUnlock      BeatmapsetEventType = "discussion_unlock"
	BeatmapsetEventDiscussionDelete      BeatmapsetEventType = "discussion_delete"
	BeatmapsetEventDiscussionRestore     BeatmapsetEventType = "discussion_restore"
	BeatmapsetEventDiscussionPostDelete  BeatmapsetEventType = "discussion_post_delete"
	BeatmapsetEventDiscussionPostRestore BeatmapsetEventType = "discussion_post_restore"
	BeatmapsetEventNominationReset       BeatmapsetEventType = "nomination_reset"
	BeatmapsetEventNominationResetRecv   BeatmapsetEventType = "nomination_reset_received"
	BeatmapsetEventGenreEdit             BeatmapsetEventType = "genre_edit"
	BeatmapsetEventLanguageEdit          BeatmapsetEventType = "language_edit"
	BeatmapsetEventNSFWToggle            BeatmapsetEventType = "nsfw_toggle"
	BeatmapsetEventOffsetEdit            BeatmapsetEventType = "offset_edit"
	BeatmapsetEventOwnerChange           BeatmapsetEventType = "beatmap_owner_change"
	BeatmapsetEventTagsEdit              BeatmapsetEventType = "tags_edit"
)

var beatmapsetEventTypes = []BeatmapsetEventType{
	BeatmapsetEventNominate, BeatmapsetEventLove, BeatmapsetEventRemoveFromLoved, BeatmapsetEventQualify,
	BeatmapsetEventDisqualify, BeatmapsetEventApprove, BeatmapsetEventRank, BeatmapsetEventKudosuAllow,
	BeatmapsetEventKudosuDeny, BeatmapsetEventKudosuGain, BeatmapsetEventKudosuLost,
	BeatmapsetEventKudosuRecalculate, BeatmapsetEventIssueResolve, BeatmapsetEventIssueReopen,
	BeatmapsetEventDiscussionLock, BeatmapsetEventDiscussionUnlock, BeatmapsetEventDiscussionDelete,
	BeatmapsetEventDiscussionRestore, BeatmapsetEventDiscussionPostDelete,
	BeatmapsetEventDiscussionPostRestore, BeatmapsetEventNominationReset,
	BeatmapsetEventNominationResetRecv, BeatmapsetEventGenreEdit, BeatmapsetEventLanguageEdit,
	BeatmapsetEventNSFWToggle, BeatmapsetEventOffsetEdit, BeatmapsetEventOwnerChange,
	BeatmapsetEventTagsEdit,
}

func (t BeatmapsetEventType) IsUnknown() bool { return !slices.Contains(beatmapsetEventTypes, t) }

func (t BeatmapsetEventType) String() string { return string(t) }
