package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/novacademy/marketing-api/internal/models"
)

func newActionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func actionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "action_type", "target_student_id", "target_group_id", "evaluation_id",
		"action_data", "channels", "status", "results", "metadata", "created_at", "updated_at",
	})
}

func TestActionRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newActionRepoMock(t)
	defer cleanup()

	repo := NewActionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO marketing_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	action := &models.MarketingAction{
		ID:              "a-1",
		ActionType:      models.ActionUpsell,
		TargetStudentID: "s-1",
		TargetGroupID:   "g-1",
		ActionData:      models.ActionData{TargetCourse: "c-1", DiscountPercentage: 20},
		Channels:        models.ActionChannels{WhatsApp: true},
		Status:          models.ActionPending,
		Metadata:        models.ActionMetadata{CreatedBy: "u-1"},
	}
	require.NoError(t, repo.Insert(context.Background(), action))
	require.False(t, action.CreatedAt.IsZero())
	require.False(t, action.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepositoryFindActiveByStudentAndType(t *testing.T) {
	db, mock, cleanup := newActionRepoMock(t)
	defer cleanup()

	repo := NewActionRepository(db)
	now := time.Now()
	rows := actionRows().AddRow(
		"a-1", "upsell", "s-1", "g-1", nil,
		[]byte(`{"targetCourse":"c-1","discountPercentage":20,"originalPrice":1000,"discountedPrice":800,"isBulkCampaign":false}`),
		[]byte(`{"whatsapp":true,"email":false,"sms":false}`),
		"pending",
		[]byte(`{"messageSent":false,"responseReceived":false,"conversion":false}`),
		[]byte(`{"createdBy":"u-1"}`),
		now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("status IN ('pending', 'in_progress')")).
		WithArgs("s-1", "upsell").
		WillReturnRows(rows)

	action, err := repo.FindActiveByStudentAndType(context.Background(), "s-1", models.ActionUpsell)
	require.NoError(t, err)
	require.NotNil(t, action)
	require.Equal(t, "a-1", action.ID)
	require.Equal(t, 20, action.ActionData.DiscountPercentage)
	require.True(t, action.Channels.WhatsApp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepositoryFindActiveNoRows(t *testing.T) {
	db, mock, cleanup := newActionRepoMock(t)
	defer cleanup()

	repo := NewActionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("status IN ('pending', 'in_progress')")).
		WithArgs("s-1", "upsell").
		WillReturnError(sql.ErrNoRows)

	action, err := repo.FindActiveByStudentAndType(context.Background(), "s-1", models.ActionUpsell)
	require.NoError(t, err)
	require.Nil(t, action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newActionRepoMock(t)
	defer cleanup()

	repo := NewActionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM marketing_actions")).
		WithArgs("upsell", "batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	rows := actionRows().AddRow(
		"a-1", "upsell", "s-1", "g-1", nil,
		[]byte(`{"discountPercentage":20,"originalPrice":1000,"discountedPrice":800,"isBulkCampaign":true}`),
		[]byte(`{"whatsapp":true,"email":false,"sms":false}`),
		"completed",
		[]byte(`{"messageSent":true,"responseReceived":false,"conversion":false}`),
		[]byte(`{"createdBy":"u-1","batchId":"batch-1"}`),
		now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("metadata->>'batchId' = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("upsell", "batch-1", 20, 0).
		WillReturnRows(rows)

	actionType := models.ActionUpsell
	actions, total, err := repo.List(context.Background(), models.ActionFilter{
		ActionType: &actionType,
		BatchID:    "batch-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, actions, 1)
	require.Equal(t, "batch-1", actions[0].Metadata.BatchID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newActionRepoMock(t)
	defer cleanup()

	repo := NewActionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("SET status = $2")).
		WithArgs("missing", "completed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.ActionCompleted)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
