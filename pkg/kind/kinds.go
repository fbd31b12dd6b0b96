// Package kind names the nostr event kinds this cache knows about and holds the
// static policy deciding which of them are persisted and how long they are
// retained.
package kind

// T is the event kind. Event records carry it as an int, T exists so the named
// constants can't be confused with other integers.
type T uint16

func (ki T) ToInt() int { return int(ki) }

const (
	// ProfileMetadata stores user profile data, name, bio, lightning
	// address etc.
	ProfileMetadata T = 0
	TextNote        T = 1
	// FollowList is the contact list of a user.
	FollowList             T = 3
	EncryptedDirectMessage T = 4
	Deletion               T = 5
	Repost                 T = 6
	Reaction               T = 7
	BadgeAward             T = 8
	Seal                   T = 13
	ChatMessage            T = 14
	GenericRepost          T = 16
	Picture                T = 20
	Video                  T = 21
	ShortVideo             T = 22
	GiftWrap               T = 1059
	FileMetadata           T = 1063
	Comment                T = 1111
	ZapRequest             T = 9734
	Zap                    T = 9735
	Highlight              T = 9802
	MuteList               T = 10000
	PinList                T = 10001
	RelayListMetadata      T = 10002
	// TrustedProviderList names the services a user trusts to compute
	// assertions about other users.
	TrustedProviderList T = 10040
	DMRelayList         T = 10050
	FollowSets          T = 30000
	// GenericLists are labeled lists, categorized bookmarks and the like.
	GenericLists T = 30001
	Article      T = 30023

	// EphemeralStart and EphemeralEnd bound the range of kinds that relays
	// are not expected to store at all.
	EphemeralStart T = 20000
	EphemeralEnd   T = 30000
	// ClientAuthentication is inside the ephemeral range.
	ClientAuthentication T = 22242
)

// Max is the largest valid kind.
const Max = 65535

var Map = map[T]string{
	ProfileMetadata:        "ProfileMetadata",
	TextNote:               "TextNote",
	FollowList:             "FollowList",
	EncryptedDirectMessage: "EncryptedDirectMessage",
	Deletion:               "Deletion",
	Repost:                 "Repost",
	Reaction:               "Reaction",
	BadgeAward:             "BadgeAward",
	Seal:                   "Seal",
	ChatMessage:            "ChatMessage",
	GenericRepost:          "GenericRepost",
	Picture:                "Picture",
	Video:                  "Video",
	ShortVideo:             "ShortVideo",
	GiftWrap:               "GiftWrap",
	FileMetadata:           "FileMetadata",
	Comment:                "Comment",
	ZapRequest:             "ZapRequest",
	Zap:                    "Zap",
	Highlight:              "Highlight",
	MuteList:               "MuteList",
	PinList:                "PinList",
	RelayListMetadata:      "RelayListMetadata",
	TrustedProviderList:    "TrustedProviderList",
	DMRelayList:            "DMRelayList",
	FollowSets:             "FollowSets",
	GenericLists:           "GenericLists",
	Article:                "Article",
	ClientAuthentication:   "ClientAuthentication",
}

func (ki T) Name() string {
	if n, ok := Map[ki]; ok {
		return n
	}
	return "Unknown"
}

// IsEphemeral reports whether k is in the ephemeral band.
func IsEphemeral(k int) bool {
	return k >= EphemeralStart.ToInt() && k < EphemeralEnd.ToInt()
}
