package model_test

import (
	"testing"
	"time"

	"file-sharing-server/internal/model"
	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(i int) *int              { return &i }

func TestIsActiveAt(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		limits model.ShareLimits
		want   bool
	}{
		{
			name:   "только срок, ещё не истёк",
			limits: model.ShareLimits{ExpiresAt: ptrTime(now.Add(time.Hour)), IsActive: true},
			want:   true,
		},
		{
			name:   "только срок, истёк",
			limits: model.ShareLimits{ExpiresAt: ptrTime(now.Add(-time.Hour)), IsActive: true},
			want:   false,
		},
		{
			name:   "срок истекает ровно сейчас",
			limits: model.ShareLimits{ExpiresAt: ptrTime(now), IsActive: true},
			want:   false,
		},
		{
			name:   "только лимит, остались скачивания",
			limits: model.ShareLimits{MaxCount: ptrInt(3), UsedCount: 2, IsActive: true},
			want:   true,
		},
		{
			name:   "только лимит, исчерпан",
			limits: model.ShareLimits{MaxCount: ptrInt(3), UsedCount: 3, IsActive: true},
			want:   false,
		},
		{
			name: "лимит исчерпан, хотя срок ещё не вышел",
			limits: model.ShareLimits{
				ExpiresAt: ptrTime(now.Add(time.Hour)),
				MaxCount:  ptrInt(1),
				UsedCount: 1,
				IsActive:  true,
			},
			want: false,
		},
		{
			name: "срок вышел, хотя лимит не исчерпан",
			limits: model.ShareLimits{
				ExpiresAt: ptrTime(now.Add(-time.Minute)),
				MaxCount:  ptrInt(10),
				UsedCount: 0,
				IsActive:  true,
			},
			want: false,
		},
		{
			name:   "отозванный доступ неактивен независимо от ограничений",
			limits: model.ShareLimits{ExpiresAt: ptrTime(now.Add(time.Hour)), IsActive: false},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limits.IsActiveAt(now))
		})
	}
}

// Предикат чистый: повторные вызовы с тем же now дают тот же вердикт
// и не меняют состояние
func TestIsActiveAtIdempotent(t *testing.T) {
	now := time.Now()
	limits := model.ShareLimits{MaxCount: ptrInt(5), UsedCount: 4, IsActive: true}
	before := limits

	for i := 0; i < 100; i++ {
		assert.True(t, limits.IsActiveAt(now))
	}
	assert.Equal(t, before, limits)
}

func TestExpiredByTime(t *testing.T) {
	now := time.Now()

	assert.False(t, model.ShareLimits{IsActive: true}.ExpiredByTime(now))
	assert.False(t, model.ShareLimits{ExpiresAt: ptrTime(now.Add(time.Second))}.ExpiredByTime(now))
	assert.True(t, model.ShareLimits{ExpiresAt: ptrTime(now.Add(-time.Second))}.ExpiredByTime(now))

	// исчерпанный лимит — не временное погашение
	exhausted := model.ShareLimits{MaxCount: ptrInt(1), UsedCount: 1, IsActive: true}
	assert.False(t, exhausted.ExpiredByTime(now))
}
