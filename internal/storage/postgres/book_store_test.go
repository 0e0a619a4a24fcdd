package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

func sampleRecord() crawler.Record {
	return crawler.Record{
		Title:           "A Light in the Attic",
		Category:        "Poetry",
		Price:           51.77,
		Currency:        "£",
		Rating:          3,
		Availability:    22,
		ImageURL:        "http://books.test/media/attic.jpg",
		Description:     "It's hard to imagine.",
		UPC:             "a897fe39b1053632",
		ProductType:     "Books",
		NumberOfReviews: 0,
	}
}

func TestUpsertInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewBookStoreWithPool(mock, "books")
	require.NoError(t, err)

	rec := sampleRecord()
	mock.ExpectExec("INSERT INTO books").
		WithArgs(
			rec.Title,
			rec.Category,
			rec.Price,
			rec.Currency,
			rec.Rating,
			rec.Availability,
			rec.ImageURL,
			rec.Description,
			rec.UPC,
			rec.ProductType,
			rec.NumberOfReviews,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUnknownRatingBindsNull(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewBookStoreWithPool(mock, "books")
	require.NoError(t, err)

	rec := sampleRecord()
	rec.Rating = crawler.RatingUnknown
	mock.ExpectExec("INSERT INTO books").
		WithArgs(
			rec.Title,
			rec.Category,
			rec.Price,
			rec.Currency,
			nil,
			rec.Availability,
			rec.ImageURL,
			rec.Description,
			rec.UPC,
			rec.ProductType,
			rec.NumberOfReviews,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewBookStoreWithPool(mock, "books")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO books").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection reset"))

	err = store.Upsert(context.Background(), sampleRecord())
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert book")
}

func TestNewBookStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewBookStoreWithPool(nil, "books")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewBookStoreWithPool(mock, "books; DROP TABLE books")
	require.Error(t, err)

	store, err := NewBookStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "books", store.table)
}

func TestNewBookStoreRequiresDSN(t *testing.T) {
	t.Parallel()
	_, err := NewBookStore(context.Background(), Config{})
	require.Error(t, err)
}
