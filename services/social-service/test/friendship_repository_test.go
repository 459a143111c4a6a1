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

type FriendshipRepositoryTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo domain.FriendshipRepository
}

func (suite *FriendshipRepositoryTestSuite) SetupTest() {
	var err error
	suite.db, suite.mock, err = sqlmock.New()
	suite.Require().NoError(err)

	suite.repo = repository.NewFriendshipRepository(postgres.NewPostgresWithDB(suite.db))
}

func (suite *FriendshipRepositoryTestSuite) TearDownTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
	suite.db.Close()
}

func (suite *FriendshipRepositoryTestSuite) TestCreatePair_UpsertsBothEdges() {
	edges := domain.NewFriendshipPair("alice", "bob")

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs(edges[0].ID, "alice", "bob", edges[0].CreatedAt, edges[0].UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs(edges[1].ID, "bob", "alice", edges[1].CreatedAt, edges[1].UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	err := suite.repo.CreatePair(context.Background(), edges)

	suite.NoError(err)
}

func (suite *FriendshipRepositoryTestSuite) TestDeletePair_SoftDeletesBothDirections() {
	suite.mock.ExpectExec(`UPDATE friendships`).
		WithArgs("alice", "bob").
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := suite.repo.DeletePair(context.Background(), "alice", "bob")

	suite.NoError(err)
	suite.Equal(2, count)
}

func (suite *FriendshipRepositoryTestSuite) TestDeletePair_NothingToDelete() {
	suite.mock.ExpectExec(`UPDATE friendships`).
		WithArgs("alice", "stranger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	count, err := suite.repo.DeletePair(context.Background(), "alice", "stranger")

	suite.NoError(err)
	suite.Zero(count)
}

func (suite *FriendshipRepositoryTestSuite) TestIsFriend() {
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := suite.repo.IsFriend(context.Background(), "alice", "bob")

	suite.NoError(err)
	suite.True(ok)
}

func (suite *FriendshipRepositoryTestSuite) TestListFriendIDs() {
	rows := sqlmock.NewRows([]string{"friend_id"}).
		AddRow("bob").
		AddRow("carol")

	suite.mock.ExpectQuery(`SELECT friend_id FROM friendships`).
		WithArgs("alice").
		WillReturnRows(rows)

	ids, err := suite.repo.ListFriendIDs(context.Background(), "alice")

	suite.NoError(err)
	suite.Equal([]domain.UserID{"bob", "carol"}, ids)
}

func (suite *FriendshipRepositoryTestSuite) TestListFriendIDsBatch() {
	rows := sqlmock.NewRows([]string{"user_id", "friend_id"}).
		AddRow("alice", "bob").
		AddRow("alice", "carol").
		AddRow("bob", "alice")

	suite.mock.ExpectQuery(`SELECT user_id, friend_id FROM friendships`).
		WillReturnRows(rows)

	result, err := suite.repo.ListFriendIDsBatch(context.Background(), []domain.UserID{"alice", "bob"})

	suite.NoError(err)
	suite.Equal([]domain.UserID{"bob", "carol"}, result["alice"])
	suite.Equal([]domain.UserID{"alice"}, result["bob"])
}

func (suite *FriendshipRepositoryTestSuite) TestListFriendIDsBatch_EmptyInputSkipsQuery() {
	result, err := suite.repo.ListFriendIDsBatch(context.Background(), nil)

	suite.NoError(err)
	suite.Empty(result)
}

func (suite *FriendshipRepositoryTestSuite) TestCountMutualFriends() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("alice", "dave").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := suite.repo.CountMutualFriends(context.Background(), "alice", "dave")

	suite.NoError(err)
	suite.Equal(3, count)
}

func (suite *FriendshipRepositoryTestSuite) TestListMutualFriendIDs() {
	rows := sqlmock.NewRows([]string{"friend_id"}).
		AddRow("bob").
		AddRow("carol")

	suite.mock.ExpectQuery(`SELECT f1.friend_id`).
		WithArgs("alice", "dave", 10).
		WillReturnRows(rows)

	ids, err := suite.repo.ListMutualFriendIDs(context.Background(), "alice", "dave", 10)

	suite.NoError(err)
	suite.Equal([]domain.UserID{"bob", "carol"}, ids)
}

func (suite *FriendshipRepositoryTestSuite) TestListFriends_SkipsNothingAndScansDeletedAt() {
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "friend_id", "created_at", "updated_at", "deleted_at"}).
		AddRow("f-1", "alice", "bob", now, now, nil)

	suite.mock.ExpectQuery(`SELECT id, user_id, friend_id, created_at, updated_at, deleted_at`).
		WithArgs("alice", 50, 0).
		WillReturnRows(rows)

	friendships, err := suite.repo.ListFriends(context.Background(), "alice", 50, 0)

	suite.NoError(err)
	suite.Len(friendships, 1)
	suite.Equal(domain.UserID("bob"), friendships[0].FriendID)
	suite.Nil(friendships[0].DeletedAt)
}

func TestFriendshipRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(FriendshipRepositoryTestSuite))
}
