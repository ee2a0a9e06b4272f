package database

import (
	"context"
	"testing"

	"catalog-service/internal/store/badgerstore"
	"catalog-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStore_Badger(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreBadger, BadgerPath: t.TempDir()}}

	s, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &badgerstore.Store{}, s)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}

	_, err := OpenStore(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "mongo")
}
