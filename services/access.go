package services

import (
	"context"
	"fmt"

	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultGroups are created on startup when missing.
var defaultGroups = []models.UserGroup{
	{ID: models.GroupAuthors, DisplayName: "Authors"},
	{ID: models.GroupTesters, DisplayName: "Testers"},
}

type pathPolicy struct {
	path         string
	everyoneRead bool
}

// protectedPaths are reset on every startup: everyone is denied everything,
// the public trees get read back, and authors get full access.
var protectedPaths = []pathPolicy{
	{path: content.AdminPath},
	{path: content.BlogPath, everyoneRead: true},
	{path: content.AssetsPath, everyoneRead: true},
}

type AccessService struct {
	logger zerolog.Logger
	access *database.AccessRepo
}

func NewAccessService(access *database.AccessRepo) *AccessService {
	return &AccessService{
		logger: log.With().Str("service", "access").Logger(),
		access: access,
	}
}

// EnsureGroupsAndPermissions creates the default groups and rewrites the
// entries of the protected paths. It runs in one transaction, so a failure
// leaves the last committed state, and running it again changes nothing.
func (s *AccessService) EnsureGroupsAndPermissions(ctx context.Context) error {
	err := s.access.Transaction(ctx, func(repo *database.AccessRepo) error {
		for _, g := range defaultGroups {
			group := g
			created, err := repo.EnsureGroup(ctx, &group)
			if err != nil {
				return fmt.Errorf("ensure group %s: %w", group.ID, err)
			}
			if created {
				s.logger.Info().Str("group", group.ID).Msg("created group")
			}
		}

		for _, policy := range protectedPaths {
			if err := repo.ClearEntries(ctx, policy.path); err != nil {
				return fmt.Errorf("clear entries of %s: %w", policy.path, err)
			}
			if err := repo.AddEntries(ctx, entriesFor(policy)); err != nil {
				return fmt.Errorf("add entries to %s: %w", policy.path, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("could not set up groups and permissions")
		return err
	}

	s.logger.Info().Msg("groups and permissions are set up")
	return nil
}

func entriesFor(policy pathPolicy) []models.AccessControlEntry {
	entries := []models.AccessControlEntry{
		{Principal: models.PrincipalEveryone, Privilege: models.PrivilegeAll, Allow: false},
	}
	if policy.everyoneRead {
		entries = append(entries, models.AccessControlEntry{Principal: models.PrincipalEveryone, Privilege: models.PrivilegeRead, Allow: true})
	}
	entries = append(entries, models.AccessControlEntry{Principal: models.GroupAuthors, Privilege: models.PrivilegeAll, Allow: true})

	for i := range entries {
		entries[i].Path = policy.path
		entries[i].Position = i
	}
	return entries
}

// ListEntries returns the stored entries ordered by path and position.
func (s *AccessService) ListEntries(ctx context.Context) ([]models.AccessControlEntry, error) {
	return s.access.FindEntries(ctx)
}

func (s *AccessService) ListGroups(ctx context.Context) ([]models.UserGroup, error) {
	return s.access.FindGroups(ctx)
}
