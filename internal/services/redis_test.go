package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installment_app_echo/internal/services"
)

type cachedPage struct {
	Page  int      `json:"page"`
	Names []string `json:"names"`
}

func TestGetOrSetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := services.NewRedisCacheFromClient(db)
	ctx := context.Background()

	want := cachedPage{Page: 1, Names: []string{"Laptop"}}
	data, _ := json.Marshal(want)

	mock.ExpectGet("products:page:1").RedisNil()
	mock.ExpectSet("products:page:1", data, time.Minute).SetVal("OK")

	calls := 0
	got, err := services.GetOrSet(cache, ctx, "products:page:1", time.Minute, func() (cachedPage, error) {
		calls++
		return want, nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetOrSetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := services.NewRedisCacheFromClient(db)

	mock.ExpectGet("products:page:2").SetVal(`{"page":2,"names":["Phone"]}`)

	got, err := services.GetOrSet(cache, context.Background(), "products:page:2", time.Minute, func() (cachedPage, error) {
		t.Fatal("callback must not run on a hit")
		return cachedPage{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, cachedPage{Page: 2, Names: []string{"Phone"}}, got)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetOrSetCallbackError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := services.NewRedisCacheFromClient(db)

	mock.ExpectGet("k").RedisNil()

	_, err := services.GetOrSet(cache, context.Background(), "k", time.Minute, func() (cachedPage, error) {
		return cachedPage{}, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetOrSetNilCache(t *testing.T) {
	var cache *services.RedisCache
	got, err := services.GetOrSet(cache, context.Background(), "k", time.Minute, func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.NoError(t, cache.Delete(context.Background(), "k"))
}

func TestDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := services.NewRedisCacheFromClient(db)

	mock.ExpectDel("payment_plans:order:1").SetVal(1)
	require.NoError(t, cache.Delete(context.Background(), "payment_plans:order:1"))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
