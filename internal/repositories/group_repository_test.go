package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeMembersKeepsInsertionOrder(t *testing.T) {
	got := dedupeMembers([]string{"creator@x.com", "a@x.com", "creator@x.com", "b@x.com", "a@x.com"})
	assert.Equal(t, []string{"creator@x.com", "a@x.com", "b@x.com"}, got)
}

func TestDedupeMembersDropsEmpty(t *testing.T) {
	got := dedupeMembers([]string{"", "a@x.com", ""})
	assert.Equal(t, []string{"a@x.com"}, got)
}

func TestTransferOnLeaveCreatorHandsOffToNextMember(t *testing.T) {
	remaining, creator := transferOnLeave([]string{"boss@x.com", "a@x.com", "b@x.com"}, "boss@x.com", "boss@x.com")
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, remaining)
	assert.Equal(t, "a@x.com", creator)
}

func TestTransferOnLeaveNonCreatorKeepsCreator(t *testing.T) {
	remaining, creator := transferOnLeave([]string{"boss@x.com", "a@x.com", "b@x.com"}, "boss@x.com", "a@x.com")
	assert.Equal(t, []string{"boss@x.com", "b@x.com"}, remaining)
	assert.Equal(t, "boss@x.com", creator)
}

func TestTransferOnLeaveLastMemberEmptiesGroup(t *testing.T) {
	remaining, creator := transferOnLeave([]string{"boss@x.com"}, "boss@x.com", "boss@x.com")
	assert.Empty(t, remaining)
	assert.Equal(t, "boss@x.com", creator)
}

func TestContainsMember(t *testing.T) {
	members := []string{"a@x.com", "b@x.com"}
	assert.True(t, containsMember(members, "b@x.com"))
	assert.False(t, containsMember(members, "c@x.com"))
}
