package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun"

	"github.com/edwinbf09/daily-activities/internal/database"
)

type RepositoryTestSuite struct {
	suite.Suite
	db   *bun.DB
	repo *Repository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.OpenSQLite(s.ctx, ":memory:")
	require.NoError(s.T(), err)
	s.db = db
	s.repo = NewRepository(db)
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *RepositoryTestSuite) TestCreateNormalizesEmail() {
	u, err := s.repo.Create(s.ctx, "  Ana@Example.COM ", "hash", "Ana")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ana@example.com", u.Email)

	found, err := s.repo.GetByEmail(s.ctx, "ANA@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, found.ID)
	assert.Equal(s.T(), "hash", found.PasswordHash)
	assert.Nil(s.T(), found.ResetTokenHash)
}

func (s *RepositoryTestSuite) TestCreateDuplicateEmail() {
	_, err := s.repo.Create(s.ctx, "ana@example.com", "hash", "Ana")
	require.NoError(s.T(), err)

	_, err = s.repo.Create(s.ctx, "Ana@example.com", "other", "Ana Again")
	assert.ErrorIs(s.T(), err, ErrDuplicateEmail)
}

func (s *RepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.GetByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.repo.GetByID(s.ctx, uuid.New())
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.repo.GetByResetToken(s.ctx, "digest")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *RepositoryTestSuite) TestResetTokenLifecycle() {
	u, err := s.repo.Create(s.ctx, "luis@example.com", "old-hash", "Luis")
	require.NoError(s.T(), err)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(s.T(), s.repo.SetResetToken(s.ctx, u.ID, "digest-1", expires))

	held, err := s.repo.GetByResetToken(s.ctx, "digest-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, held.ID)
	assert.True(s.T(), held.ResetTokenValid(time.Now()))
	assert.False(s.T(), held.ResetTokenValid(expires.Add(time.Second)))

	// A newer token replaces the older one.
	require.NoError(s.T(), s.repo.SetResetToken(s.ctx, u.ID, "digest-2", expires))
	_, err = s.repo.GetByResetToken(s.ctx, "digest-1")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	// Redeeming with a stale digest changes nothing.
	err = s.repo.ResetPassword(s.ctx, u.ID, "digest-1", "new-hash")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	require.NoError(s.T(), s.repo.ResetPassword(s.ctx, u.ID, "digest-2", "new-hash"))

	after, err := s.repo.GetByID(s.ctx, u.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "new-hash", after.PasswordHash)
	assert.Nil(s.T(), after.ResetTokenHash)
	assert.Nil(s.T(), after.ResetTokenExpires)

	// The token is single use.
	err = s.repo.ResetPassword(s.ctx, u.ID, "digest-2", "newer-hash")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *RepositoryTestSuite) TestSetResetTokenUnknownUser() {
	err := s.repo.SetResetToken(s.ctx, uuid.New(), "digest", time.Now().Add(time.Hour))
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestResetTokenValid(t *testing.T) {
	now := time.Now()
	digest := "d"
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, (&User{}).ResetTokenValid(now))
	assert.False(t, (&User{ResetTokenHash: &digest}).ResetTokenValid(now))
	assert.False(t, (&User{ResetTokenHash: &digest, ResetTokenExpires: &past}).ResetTokenValid(now))
	assert.True(t, (&User{ResetTokenHash: &digest, ResetTokenExpires: &future}).ResetTokenValid(now))
}
