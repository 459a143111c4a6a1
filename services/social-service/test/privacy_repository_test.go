package test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/repository"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
)

type PrivacyRepositoryTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo domain.PrivacySettingsRepository
}

func (suite *PrivacyRepositoryTestSuite) SetupTest() {
	var err error
	suite.db, suite.mock, err = sqlmock.New()
	suite.Require().NoError(err)

	suite.repo = repository.NewPrivacySettingsRepository(postgres.NewPostgresWithDB(suite.db))
}

func (suite *PrivacyRepositoryTestSuite) TearDownTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
	suite.db.Close()
}

func (suite *PrivacyRepositoryTestSuite) TestGet_Success() {
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"user_id", "profile_visibility", "show_activity_to", "leaderboard_visibility", "created_at", "updated_at",
	}).AddRow("alice", "public", "friends_only", "public", now, now)

	suite.mock.ExpectQuery(`SELECT (.+) FROM privacy_settings`).
		WithArgs("alice").
		WillReturnRows(rows)

	settings, err := suite.repo.Get(context.Background(), "alice")

	suite.NoError(err)
	suite.Equal(domain.PrivacyFriendsOnly, settings.ShowActivityTo)
}

func (suite *PrivacyRepositoryTestSuite) TestGet_MissingRowIsNotFound() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM privacy_settings`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "profile_visibility", "show_activity_to", "leaderboard_visibility", "created_at", "updated_at",
		}))

	settings, err := suite.repo.Get(context.Background(), "alice")

	suite.ErrorIs(err, domain.ErrPrivacySettingsNotFound)
	suite.Nil(settings)
}

func (suite *PrivacyRepositoryTestSuite) TestUpsert() {
	settings := domain.DefaultPrivacySettings("alice")

	suite.mock.ExpectExec(`INSERT INTO privacy_settings`).
		WithArgs("alice", "public", "friends_only", "public", settings.CreatedAt, settings.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	suite.NoError(suite.repo.Upsert(context.Background(), settings))
}

func TestPrivacyRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PrivacyRepositoryTestSuite))
}
