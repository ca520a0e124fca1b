package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorable(t *testing.T) {
	db := newTestDatabase(t)
	users := NewUserService(db.UserRepo())
	ctx := context.Background()
	require.NoError(t, NewAccessService(db.AccessRepo()).EnsureGroupsAndPermissions(ctx))

	admin, err := users.CreateUser(ctx, "admin", "pw", true)
	require.NoError(t, err)
	author, err := users.CreateUser(ctx, "writer", "pw", false)
	require.NoError(t, err)
	reader, err := users.CreateUser(ctx, "reader", "pw", false)
	require.NoError(t, err)
	tester, err := users.CreateUser(ctx, "tester", "pw", false)
	require.NoError(t, err)

	require.NoError(t, users.AddToGroup(ctx, author.ID, models.GroupAuthors))
	require.NoError(t, users.AddToGroup(ctx, author.ID, models.GroupAuthors))
	require.NoError(t, users.AddToGroup(ctx, tester.ID, models.GroupTesters))

	require.True(t, users.IsAuthorable(ctx, admin.ID))
	require.True(t, users.IsAuthorable(ctx, author.ID))
	require.False(t, users.IsAuthorable(ctx, reader.ID))
	require.False(t, users.IsAuthorable(ctx, tester.ID))
	require.False(t, users.IsAuthorable(ctx, uuid.New()))
	require.False(t, users.IsAuthorable(ctx, uuid.Nil))

	found, err := users.FindUser(ctx, author.ID)
	require.NoError(t, err)
	require.Equal(t, "writer", found.Username)

	missing, err := users.FindUser(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGroupMembership(t *testing.T) {
	db := newTestDatabase(t)
	users := NewUserService(db.UserRepo())
	ctx := context.Background()
	require.NoError(t, NewAccessService(db.AccessRepo()).EnsureGroupsAndPermissions(ctx))

	writer, err := users.CreateUser(ctx, "writer", "pw", false)
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, "admin", "pw", true)
	require.NoError(t, err)

	require.ErrorIs(t, users.AddToGroup(ctx, writer.ID, "editors"), ErrGroupNotFound)
	require.ErrorIs(t, users.AddToGroup(ctx, uuid.New(), models.GroupAuthors), ErrUserNotFound)

	require.NoError(t, users.AddToGroup(ctx, writer.ID, models.GroupAuthors))
	require.NoError(t, users.AddToGroup(ctx, writer.ID, models.GroupTesters))
	require.True(t, users.IsAuthorable(ctx, writer.ID))
	require.False(t, users.IsAdmin(ctx, writer.ID))

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "admin", list[0].Username)
	require.True(t, list[0].IsAdmin)
	require.Empty(t, list[0].Groups)
	require.Equal(t, []string{models.GroupAuthors, models.GroupTesters}, list[1].Groups)

	require.NoError(t, users.RemoveFromGroup(ctx, writer.ID, models.GroupAuthors))
	require.NoError(t, users.RemoveFromGroup(ctx, writer.ID, models.GroupAuthors))
	require.False(t, users.IsAuthorable(ctx, writer.ID))
	require.ErrorIs(t, users.RemoveFromGroup(ctx, writer.ID, "editors"), ErrGroupNotFound)

	_, err = users.CreateUser(ctx, " ", "pw", false)
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDatabase(t)
	users := NewUserService(db.UserRepo())
	ctx := context.Background()

	created, err := users.CreateUser(ctx, "gm", "correct horse", false)
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", created.PasswordHash)

	user, err := users.Authenticate(ctx, "gm", "correct horse")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = users.Authenticate(ctx, "gm", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody", "x")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.CreateUser(ctx, "gm", "again", false)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestEnsureAdmin(t *testing.T) {
	db := newTestDatabase(t)
	users := NewUserService(db.UserRepo())
	ctx := context.Background()

	require.NoError(t, users.EnsureAdmin(ctx, "root", "first"))
	require.NoError(t, users.EnsureAdmin(ctx, "root", "second"))

	user, err := users.Authenticate(ctx, "root", "first")
	require.NoError(t, err)
	require.True(t, user.IsAdmin)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := &models.User{ID: uuid.New(), Username: "gm"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	require.Error(t, err)

	expired, err := NewTokenIssuer("secret", -time.Minute).Issue(user)
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	require.Error(t, err)

	_, err = issuer.Parse("not-a-token")
	require.Error(t, err)
}
