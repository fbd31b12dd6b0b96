package kind

import (
	"golang.org/x/exp/slices"
)

// Bucket is a retention grouping of kinds. Pruning windows are set per bucket.
type Bucket int

const (
	// None is never pruned by age. Kinds that are not persisted report it too.
	None Bucket = iota
	// Engagement is reactions, reposts, zaps - short lived relevance.
	Engagement
	// Content is notes, articles, media.
	Content
	// Private is encrypted messaging.
	Private
	// Metadata is profiles and lists. Only the aggressive tier touches these,
	// and then only with a very long window.
	Metadata
)

var bucketNames = [...]string{"none", "engagement", "content", "private", "metadata"}

func (b Bucket) String() string {
	if b < 0 || int(b) >= len(bucketNames) {
		return "invalid"
	}
	return bucketNames[b]
}

// Buckets lists every bucket that has kinds assigned, in retention order.
var Buckets = []Bucket{Engagement, Content, Private, Metadata}

// Policy is the treatment of one kind.
type Policy struct {
	Persist bool
	Bucket  Bucket
}

// table is filled once by init and only read afterwards.
var table = map[int]Policy{}

// identity kinds get their own short sweep in the aggressive tier, on top of
// the Metadata bucket sweep.
var identity = []int{ProfileMetadata.ToInt()}

func init() {
	for b, kinds := range map[Bucket][]T{
		Engagement: {Repost, Reaction, BadgeAward, GenericRepost, Zap},
		Content: {TextNote, Deletion, Picture, Video, ShortVideo,
			FileMetadata, Comment, Highlight, Article},
		Private: {EncryptedDirectMessage, Seal, ChatMessage, GiftWrap},
		Metadata: {ProfileMetadata, FollowList, MuteList, PinList,
			RelayListMetadata, TrustedProviderList, DMRelayList, FollowSets,
			GenericLists},
	} {
		for _, k := range kinds {
			table[k.ToInt()] = Policy{Persist: true, Bucket: b}
		}
	}
}

// ShouldPersist reports whether records of kind k are admitted into the store.
// The ephemeral band is rejected before the table is consulted.
func ShouldPersist(k int) bool {
	if IsEphemeral(k) {
		return false
	}
	return table[k].Persist
}

// BucketOf returns the retention bucket for k, None for unknown kinds.
func BucketOf(k int) Bucket { return table[k].Bucket }

// KindsIn returns the sorted kinds assigned to bucket b.
func KindsIn(b Bucket) (kinds []int) {
	for k, p := range table {
		if p.Persist && p.Bucket == b {
			kinds = append(kinds, k)
		}
	}
	slices.Sort(kinds)
	return
}

// Identity returns the profile/identity kinds.
func Identity() []int { return slices.Clone(identity) }

// Persisted returns every admitted kind, sorted.
func Persisted() (kinds []int) {
	for k, p := range table {
		if p.Persist {
			kinds = append(kinds, k)
		}
	}
	slices.Sort(kinds)
	return
}
