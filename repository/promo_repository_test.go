package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoCreate_UppercasesCode(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPromoRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "promo_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	promo := &models.PromoCode{Code: "eid10", DiscountPercent: 10, ExpiresAt: time.Now().Add(time.Hour), Active: true}
	require.NoError(t, repo.Create(context.Background(), promo))
	assert.Equal(t, "EID10", promo.Code)
}

func TestPromoCreate_Duplicate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPromoRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "promo_codes"`)).
		WillReturnError(uniqueViolation("idx_promo_codes_code"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.PromoCode{Code: "EID10", DiscountPercent: 10, ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, repository.ErrDuplicateCode)
}

func TestPromoFindByCode(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPromoRepository(gormDB)

	expires := time.Now().Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "promo_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "discount_percent", "expires_at", "active"}).
			AddRow(uuid.New(), "EID10", 10.0, expires, true))

	promo, err := repo.FindByCode(context.Background(), " eid10 ")
	require.NoError(t, err)
	assert.Equal(t, 10.0, promo.DiscountPercent)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "promo_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))
	_, err = repo.FindByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPromoFindAll(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPromoRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "promo_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "promo_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "discount_percent"}).
			AddRow(uuid.New(), "A10", 10.0).
			AddRow(uuid.New(), "B20", 20.0))

	promos, total, err := repo.FindAll(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, promos, 2)
}

func TestPromoDelete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPromoRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "promo_codes"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.ErrorIs(t, repo.Delete(context.Background(), "GONE"), repository.ErrNotFound)
}
