package repository_test

import (
	"testing"
	"time"

	"kama_chat_hub/internal/dao/mysql/dbtest"
	"kama_chat_hub/internal/dao/mysql/repository"
	"kama_chat_hub/internal/model"
	"kama_chat_hub/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repos *repository.Repositories, uuid, name string) {
	t.Helper()
	require.NoError(t, repos.User.Create(&model.UserInfo{Uuid: uuid, Username: name, RawPassword: "secret1"}))
}

func seedGroup(t *testing.T, repos *repository.Repositories, uuid string, members ...string) {
	t.Helper()
	require.NoError(t, repos.Conversation.Create(&model.Conversation{Uuid: uuid, Kind: 2, Name: "g", CreatorId: members[0], OwnerId: members[0]}))
	for i, m := range members {
		role := int8(1)
		if i == 0 {
			role = 3
		}
		require.NoError(t, repos.Member.Create(&model.ConversationMember{ConversationUuid: uuid, UserUuid: m, Role: role}))
	}
}

func TestUserSearchEscapesWildcards(t *testing.T) {
	repos, _ := dbtest.Open(t)
	seedUser(t, repos, "U1", "alice")
	seedUser(t, repos, "U2", "al_ice")
	seedUser(t, repos, "U3", "bob")

	users, err := repos.User.Search("al", 20)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repos.User.Search("_", 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "al_ice", users[0].Username)

	u, err := repos.User.FindByUsername("bob")
	require.NoError(t, err)
	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestUserNotFoundIsWrapped(t *testing.T) {
	repos, _ := dbtest.Open(t)
	_, err := repos.User.FindByUuid("nobody")
	assert.True(t, errorx.IsNotFound(err))
}

func TestNextSeqIsMonotonicInsideTransaction(t *testing.T) {
	repos, _ := dbtest.Open(t)
	seedGroup(t, repos, "C1", "U1")

	for want := int64(1); want <= 3; want++ {
		var got int64
		err := repos.Transaction(func(tx *repository.Repositories) error {
			seq, err := tx.Conversation.NextSeq("C1", time.Now())
			got = seq
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := repos.Conversation.NextSeq("missing", time.Now())
	assert.True(t, errorx.IsNotFound(err))
}

func TestMemberSoftDeleteAndRestore(t *testing.T) {
	repos, _ := dbtest.Open(t)
	seedGroup(t, repos, "C1", "U1", "U2")

	require.NoError(t, repos.Member.Delete("C1", "U2"))
	_, err := repos.Member.Find("C1", "U2")
	assert.True(t, errorx.IsNotFound(err))

	old, err := repos.Member.FindAny("C1", "U2")
	require.NoError(t, err)
	assert.Equal(t, "U2", old.UserUuid)

	n, err := repos.Member.Count("C1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repos.Member.Restore("C1", "U2", 2))
	m, err := repos.Member.Find("C1", "U2")
	require.NoError(t, err)
	assert.Equal(t, int8(2), m.Role)

	ids, err := repos.Member.UserIdsByConversation("C1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"U1", "U2"}, ids)
}

func TestMemberListWithUserInfoOrdersByRole(t *testing.T) {
	repos, _ := dbtest.Open(t)
	seedUser(t, repos, "U1", "owner")
	seedUser(t, repos, "U2", "member")
	seedUser(t, repos, "U3", "admin")
	seedGroup(t, repos, "C1", "U1", "U2", "U3")
	require.NoError(t, repos.Member.UpdateRole("C1", "U3", 2))

	list, err := repos.Member.ListWithUserInfo("C1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"owner", "admin", "member"}, []string{list[0].Username, list[1].Username, list[2].Username})
}

func TestMessageListBeforeAndLatest(t *testing.T) {
	repos, _ := dbtest.Open(t)
	seedGroup(t, repos, "C1", "U1")

	for i := 1; i <= 5; i++ {
		err := repos.Transaction(func(tx *repository.Repositories) error {
			seq, err := tx.Conversation.NextSeq("C1", time.Now())
			if err != nil {
				return err
			}
			return tx.Message.Create(&model.Message{
				Uuid: int64(100 + i), ConversationUuid: "C1", Seq: seq,
				SenderId: "U1", SenderName: "u1", Type: "text", Content: "m", SendAt: time.Now(),
			})
		})
		require.NoError(t, err)
	}

	page, err := repos.Message.ListBefore("C1", 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []int64{5, 4}, []int64{page[0].Seq, page[1].Seq})

	page, err = repos.Message.ListBefore("C1", 4, 10)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	latest, err := repos.Message.FindLatest([]string{"C1"})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, int64(105), latest[0].Uuid)
}

func TestMessageRevokeIsConditional(t *testing.T) {
	repos, _ := dbtest.Open(t)
	require.NoError(t, repos.Message.Create(&model.Message{
		Uuid: 1, ConversationUuid: "C1", Seq: 1, SenderId: "U1", SenderName: "u1",
		Type: "image", Content: "a.png", MediaUrl: "/static/files/a.png", SendAt: time.Now(),
	}))

	n, err := repos.Message.MarkRevoked(1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repos.Message.MarkRevoked(1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repos.Message.UpdateContent(1, "edited", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	m, err := repos.Message.FindByUuid(1)
	require.NoError(t, err)
	assert.True(t, m.IsRevoked)
	assert.Empty(t, m.Content)
	assert.Empty(t, m.MediaUrl)
	assert.NotNil(t, m.RevokedAt)
}

func TestFavoriteCursorPagination(t *testing.T) {
	repos, _ := dbtest.Open(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repos.Favorite.Create(&model.FavoriteMessage{
			UserUuid: "U1", MessageUuid: int64(i + 1), ConversationUuid: "C1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	first, err := repos.Favorite.ListBefore("U1", 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, int64(5), first[0].MessageUuid)

	rest, err := repos.Favorite.ListBefore("U1", first[2].ID, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, int64(2), rest[0].MessageUuid)

	require.NoError(t, repos.Favorite.DeleteByMessage(5))
	_, err = repos.Favorite.Find("U1", 5)
	assert.True(t, errorx.IsNotFound(err))
}

func TestPinnedCountAndDelete(t *testing.T) {
	repos, _ := dbtest.Open(t)
	require.NoError(t, repos.Pinned.Create(&model.PinnedMessage{ConversationUuid: "C1", MessageUuid: 1, PinnedBy: "U1"}))
	require.NoError(t, repos.Pinned.Create(&model.PinnedMessage{ConversationUuid: "C1", MessageUuid: 2, PinnedBy: "U1"}))

	n, err := repos.Pinned.Count("C1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	affected, err := repos.Pinned.Delete("C1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repos.Pinned.Delete("C1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestFriendshipPairIsNormalized(t *testing.T) {
	repos, _ := dbtest.Open(t)
	require.NoError(t, repos.Friendship.Create(&model.Friendship{Uuid: "F1", UserA: "U9", UserB: "U1", InitiatedBy: "U9"}))

	f, err := repos.Friendship.FindByPair("U1", "U9")
	require.NoError(t, err)
	assert.Equal(t, "U1", f.UserA)
	assert.Equal(t, "U9", f.UserB)
	assert.Equal(t, "U1", f.Addressee())

	require.NoError(t, repos.Friendship.Accept("F1", time.Now()))
	assert.True(t, errorx.IsNotFound(repos.Friendship.Accept("F1", time.Now())))

	list, err := repos.Friendship.ListBetween("U1", []string{"U9", "U5"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repos.Friendship.Delete("F1"))
	_, err = repos.Friendship.FindByPair("U9", "U1")
	assert.True(t, errorx.IsNotFound(err))
}
