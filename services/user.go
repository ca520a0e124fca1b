package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
)

type UserService struct {
	logger zerolog.Logger
	users  *database.UserRepo
}

func NewUserService(users *database.UserRepo) *UserService {
	return &UserService{
		logger: log.With().Str("service", "users").Logger(),
		users:  users,
	}
}

// IsAuthorable reports whether the user may write content: administrators
// and members of the authors group. Lookup failures count as no.
func (s *UserService) IsAuthorable(ctx context.Context, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Msg("could not look up user")
		return false
	}
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}

	member, err := s.users.IsMember(ctx, models.GroupAuthors, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Msg("could not check group membership")
		return false
	}
	return member
}

// FindUser returns the user with id, or nil.
func (s *UserService) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	return user, nil
}

// Authenticate returns the user when password matches.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, username, password string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash), IsAdmin: isAdmin}
	if err := s.users.Add(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// IsAdmin reports whether the user is an administrator. Lookup failures
// count as no.
func (s *UserService) IsAdmin(ctx context.Context, userID uuid.UUID) bool {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Msg("could not look up user")
		return false
	}
	return user != nil && user.IsAdmin
}

// UserView is a user with the groups they belong to.
type UserView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin"`
	Groups   []string  `json:"groups"`
}

func (s *UserService) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	memberships, err := s.users.FindMemberships(ctx)
	if err != nil {
		return nil, fmt.Errorf("find group members: %w", err)
	}

	groups := make(map[uuid.UUID][]string)
	for _, m := range memberships {
		groups[m.UserID] = append(groups[m.UserID], m.GroupID)
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		view := UserView{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, Groups: groups[u.ID]}
		if view.Groups == nil {
			view.Groups = []string{}
		}
		views = append(views, view)
	}
	return views, nil
}

// checkMembership makes sure both sides of a membership exist.
func (s *UserService) checkMembership(ctx context.Context, userID uuid.UUID, groupID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user %s: %w", userID, err)
	}
	if user == nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	exists, err := s.users.GroupExists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("find group %s: %w", groupID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	return nil
}

// AddToGroup puts the user in the group. Adding a member again is a no-op.
func (s *UserService) AddToGroup(ctx context.Context, userID uuid.UUID, groupID string) error {
	if err := s.checkMembership(ctx, userID, groupID); err != nil {
		return err
	}
	if err := s.users.AddMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("add user %s to %s: %w", userID, groupID, err)
	}
	s.logger.Info().Str("userId", userID.String()).Str("group", groupID).Msg("added group member")
	return nil
}

// RemoveFromGroup takes the user out of the group. Removing a non-member is a
// no-op.
func (s *UserService) RemoveFromGroup(ctx context.Context, userID uuid.UUID, groupID string) error {
	if err := s.checkMembership(ctx, userID, groupID); err != nil {
		return err
	}
	removed, err := s.users.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove user %s from %s: %w", userID, groupID, err)
	}
	if removed {
		s.logger.Info().Str("userId", userID.String()).Str("group", groupID).Msg("removed group member")
	}
	return nil
}

// EnsureAdmin creates the administrator account unless the username is taken.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	if _, err := s.CreateUser(ctx, username, password, true); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("created administrator")
	return nil
}
