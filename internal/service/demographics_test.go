package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/parcelworks/landscout/internal/cache"
	"github.com/parcelworks/landscout/internal/domain/model"
	"github.com/parcelworks/landscout/internal/mocks"
)

var demoBox = model.BoundingBox{MinLat: 40.6, MinLng: -74.1, MaxLat: 40.8, MaxLng: -73.9}

func TestDemographicsLoadCachesByRoundedBox(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDemographicsClient(ctrl)
	tracts := []model.TractRecord{{TractID: "36061021900", MedianIncome: 98000}}
	client.EXPECT().FetchTracts(gomock.Any(), demoBox).Return(tracts, nil).Times(1)

	svc, err := NewDemographicsService(DemographicsServiceOptions{
		Client: client,
		Cache:  cache.NewBounded(cache.DefaultConfig()),
	})
	require.NoError(t, err)

	first, err := svc.Load(context.Background(), demoBox)
	require.NoError(t, err)
	assert.Equal(t, tracts, first)

	second, err := svc.Load(context.Background(), demoBox)
	require.NoError(t, err)
	assert.Equal(t, tracts, second)

	// An imperceptibly shifted box rounds to the same cache key, so the
	// census client is still called exactly once.
	shifted := demoBox
	shifted.MinLat += 0.00001
	third, err := svc.Load(context.Background(), shifted)
	require.NoError(t, err)
	assert.Equal(t, tracts, third)
}

func TestDemographicsLoadWithoutCacheFetchesEveryTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDemographicsClient(ctrl)
	client.EXPECT().FetchTracts(gomock.Any(), demoBox).
		Return([]model.TractRecord{}, nil).Times(2)

	svc, err := NewDemographicsService(DemographicsServiceOptions{Client: client})
	require.NoError(t, err)

	_, err = svc.Load(context.Background(), demoBox)
	require.NoError(t, err)
	_, err = svc.Load(context.Background(), demoBox)
	require.NoError(t, err)
}

func TestDemographicsLoadRejectsInvalidBox(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDemographicsClient(ctrl)

	svc, err := NewDemographicsService(DemographicsServiceOptions{Client: client})
	require.NoError(t, err)

	_, err = svc.Load(context.Background(), model.BoundingBox{
		MinLat: 40.8, MinLng: -74.1, MaxLat: 40.6, MaxLng: -73.9,
	})
	require.Error(t, err)
	// No FetchTracts expectation: the strict mock proves the client was
	// never contacted.
}

func TestNewDemographicsServiceRequiresClient(t *testing.T) {
	_, err := NewDemographicsService(DemographicsServiceOptions{})
	require.Error(t, err)
}
