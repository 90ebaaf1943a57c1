package rag_test

import (
	"context"
	"errors"
	"testing"

	"docchat/internal/rag"
	"docchat/internal/rag/mocks"

	"go.uber.org/mock/gomock"
)

func TestCachingEmbedder_Embed(t *testing.T) {
	cacheErr := errors.New("database is locked")
	backendErr := errors.New("backend down")

	tests := []struct {
		name    string
		setup   func(next *mocks.MockEmbedder, cache *mocks.MockEmbeddingCache)
		want    []float64
		wantErr error
	}{
		{
			name: "cache hit skips backend",
			setup: func(next *mocks.MockEmbedder, cache *mocks.MockEmbeddingCache) {
				cache.EXPECT().Lookup(gomock.Any(), "embed-model", "text").Return([]float64{1, 2}, true, nil)
			},
			want: []float64{1, 2},
		},
		{
			name: "cache miss embeds and stores",
			setup: func(next *mocks.MockEmbedder, cache *mocks.MockEmbeddingCache) {
				gomock.InOrder(
					cache.EXPECT().Lookup(gomock.Any(), "embed-model", "text").Return(nil, false, nil),
					next.EXPECT().Embed(gomock.Any(), "text").Return([]float64{3}, nil),
					cache.EXPECT().Store(gomock.Any(), "embed-model", "text", []float64{3}).Return(nil),
				)
			},
			want: []float64{3},
		},
		{
			name: "lookup failure falls through to backend",
			setup: func(next *mocks.MockEmbedder, cache *mocks.MockEmbeddingCache) {
				cache.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, cacheErr)
				next.EXPECT().Embed(gomock.Any(), "text").Return([]float64{4}, nil)
				cache.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			want: []float64{4},
		},
		{
			name: "store failure is not fatal",
			setup: func(next *mocks.MockEmbedder, cache *mocks.MockEmbeddingCache) {
				cache.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, nil)
				next.EXPECT().Embed(gomock.Any(), "text").Return([]float64{5}, nil)
				cache.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(cacheErr)
			},
			want: []float64{5},
		},
		{
			name: "backend failure propagates and nothing is stored",
			setup: func(next *mocks.MockEmbedder, cache *mocks.MockEmbeddingCache) {
				cache.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, nil)
				next.EXPECT().Embed(gomock.Any(), "text").Return(nil, backendErr)
			},
			wantErr: backendErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			next := mocks.NewMockEmbedder(ctrl)
			cache := mocks.NewMockEmbeddingCache(ctrl)
			tt.setup(next, cache)

			got, err := rag.NewCachingEmbedder(next, cache, "embed-model").Embed(context.Background(), "text")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Embed() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Embed() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) || got[0] != tt.want[0] {
				t.Errorf("Embed() = %v, want %v", got, tt.want)
			}
		})
	}
}
