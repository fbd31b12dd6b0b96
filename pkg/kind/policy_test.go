package kind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEphemeralBandAlwaysRejected(t *testing.T) {
	assert := assert.New(t)
	for k := EphemeralStart.ToInt(); k < EphemeralEnd.ToInt(); k++ {
		assert.False(ShouldPersist(k), "kind %d", k)
	}
	assert.False(ShouldPersist(ClientAuthentication.ToInt()))
	// a table entry inside the band still does not admit it
	table[21000] = Policy{Persist: true, Bucket: Content}
	defer delete(table, 21000)
	assert.False(ShouldPersist(21000))
}

func TestPersistedKinds(t *testing.T) {
	assert := assert.New(t)
	assert.True(ShouldPersist(TextNote.ToInt()))
	assert.True(ShouldPersist(ProfileMetadata.ToInt()))
	assert.True(ShouldPersist(GiftWrap.ToInt()))
	assert.False(ShouldPersist(ZapRequest.ToInt()))
	assert.False(ShouldPersist(12345))
}

func TestBuckets(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Engagement, BucketOf(Reaction.ToInt()))
	assert.Equal(Content, BucketOf(TextNote.ToInt()))
	assert.Equal(Private, BucketOf(EncryptedDirectMessage.ToInt()))
	assert.Equal(Metadata, BucketOf(FollowList.ToInt()))
	assert.Equal(Metadata, BucketOf(TrustedProviderList.ToInt()))
	assert.Equal(None, BucketOf(ZapRequest.ToInt()))
	assert.Equal("metadata", Metadata.String())

	// every persisted kind is in exactly one bucket
	seen := map[int]Bucket{}
	for _, b := range Buckets {
		for _, k := range KindsIn(b) {
			_, dup := seen[k]
			assert.False(dup, "kind %d in two buckets", k)
			seen[k] = b
		}
	}
	assert.Len(seen, len(Persisted()))
	assert.Contains(KindsIn(Metadata), ProfileMetadata.ToInt())
	assert.Equal([]int{0}, Identity())
}
