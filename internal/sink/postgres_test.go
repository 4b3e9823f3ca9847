package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

func TestPostgresSinkAppendCommitsContactsAndCompletion(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresSinkWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	extracted := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	contact := crawler.ScoredContact{
		ContactCandidate: crawler.ContactCandidate{
			InstitutionID: "example-law",
			FullName:      "Jane Doe",
			FirstName:     "Jane",
			LastName:      "Doe",
			Title:         "Library Director",
			Email:         "jane.doe@law.example.edu",
			Phone:         "215-555-0134",
			SourceURL:     "https://law.example.edu/faculty/jane-doe",
			Provenance:    crawler.EmailObserved,
		},
		MatchedRole:   "Library Director",
		TitleStrength: 100,
		Confidence:    80,
		ExtractedAt:   extracted,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(
			"example-law",
			"Jane Doe",
			"Jane",
			"Doe",
			"Library Director",
			"Library Director",
			100,
			"jane.doe@law.example.edu",
			"observed",
			"215-555-0134",
			80,
			"high",
			"https://law.example.edu/faculty/jane-doe",
			extracted,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO completed_institutions").
		WithArgs("example-law", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Append(context.Background(), "example-law", []crawler.ScoredContact{contact}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkAppendZeroContactsMarksCompletion(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresSinkWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO completed_institutions").
		WithArgs("empty-school", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Append(context.Background(), "empty-school", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkAppendRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresSinkWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(
			"example-law", "", "", "", "", "", 0, "", "", "", 0, "needs-review", "",
			pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("column does not exist"))
	mock.ExpectRollback()

	err = s.Append(context.Background(), "example-law", []crawler.ScoredContact{
		{ContactCandidate: crawler.ContactCandidate{InstitutionID: "example-law"}},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkLoadResumeState(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresSinkWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"institution_id"}).
		AddRow("example-law").
		AddRow("metro-community-college")
	mock.ExpectQuery("SELECT institution_id FROM completed_institutions").
		WillReturnRows(rows)

	completed, err := s.LoadResumeState(context.Background())
	require.NoError(t, err)
	require.Len(t, completed, 2)
	require.Contains(t, completed, "example-law")
	require.Contains(t, completed, "metro-community-college")
	require.NoError(t, mock.ExpectationsWereMet())
}
