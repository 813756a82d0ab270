package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerly/internal/config"
	"grocerly/internal/domain"
	"grocerly/internal/repos"
)

func setupEnv(t *testing.T) config.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "grocerly.db")
	t.Setenv("DB_DSN", dsn)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_FILE", "")
	cfg := config.Load()
	return cfg.DB
}

func TestUsage(t *testing.T) {
	setupEnv(t)
	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"refund"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"advance", "-order", "1"}, &bytes.Buffer{}))
}

func TestAddProduct(t *testing.T) {
	dbCfg := setupEnv(t)

	var out bytes.Buffer
	err := run([]string{"add-product", "-name", "Paneer", "-category", "dairy", "-quantity", "200 g",
		"-price", "90", "-images", "paneer_1.jpg, paneer_2.jpg"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"Paneer" added to dairy`)

	db, err := repos.OpenDB(dbCfg)
	require.NoError(t, err)
	defer db.Close()
	ps, err := repos.NewProductRepo(db).ListByCategory(context.Background(), "dairy")
	require.NoError(t, err)
	require.Len(t, ps, 4)
	assert.Equal(t, domain.ImageList{"paneer_1.jpg", "paneer_2.jpg"}, ps[3].Images)

	assert.Error(t, run([]string{"add-product", "-name", "x"}, &out))
}

func TestAdvance(t *testing.T) {
	dbCfg := setupEnv(t)
	ctx := context.Background()

	db, err := repos.OpenDB(dbCfg)
	require.NoError(t, err)
	uid, err := repos.NewUserRepo(db).Create(ctx, &domain.User{Username: "asha", Email: "a@example.com", ContactNumber: "9876543210", Hash: "x"})
	require.NoError(t, err)
	o := &domain.Order{UserID: uid, ItemTotal: decimal.NewFromInt(40), TotalAmount: decimal.NewFromInt(40)}
	items := []domain.OrderItem{{ProductID: 1, ProductName: "Milk", ProductPrice: decimal.NewFromInt(40), CartQuantity: 1, ItemTotal: decimal.NewFromInt(40)}}
	id, err := repos.NewOrderRepo(db).Create(ctx, o, items, func() string { return "ORD1" }, 1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var out bytes.Buffer
	require.NoError(t, run([]string{"advance", "-order", "1", "-status", "preparing"}, &out))
	assert.Contains(t, out.String(), "is now preparing")
	assert.EqualValues(t, 1, id)

	assert.Error(t, run([]string{"advance", "-order", "1", "-status", "delivered"}, &out))
	assert.Error(t, run([]string{"advance", "-order", "99", "-status", "preparing"}, &out))
}
