package core

import (
	"errors"
	"testing"
	"time"
)

func validItem() *Item {
	return &Item{
		Id:        1,
		Kind:      KindText,
		Title:     "a note",
		Status:    StatusPending,
		CreatedAt: time.Now().Add(-time.Minute),
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		wantErr error
	}{
		{
			name:   "valid text item",
			mutate: func(i *Item) {},
		},
		{
			name: "valid link item",
			mutate: func(i *Item) {
				i.Kind = KindLink
				i.SourceURL = "https://example.com"
			},
		},
		{
			name:    "invalid kind",
			mutate:  func(i *Item) { i.Kind = 0 },
			wantErr: ErrInvalidKind,
		},
		{
			name:    "invalid status",
			mutate:  func(i *Item) { i.Status = 99 },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "empty title",
			mutate:  func(i *Item) { i.Title = "" },
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "link without url",
			mutate:  func(i *Item) { i.Kind = KindLink },
			wantErr: ErrMissingSourceURL,
		},
		{
			name:    "future timestamp",
			mutate:  func(i *Item) { i.CreatedAt = time.Now().Add(time.Hour) },
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(item)

			err := ValidateItem(item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateItem() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidItem) {
				t.Errorf("ValidateItem() = %v, want wrapped ErrInvalidItem", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateItem() = %v, want wrapped %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateItem_Nil(t *testing.T) {
	if err := ValidateItem(nil); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("ValidateItem(nil) = %v, want ErrInvalidItem", err)
	}
}

func TestValidateJob(t *testing.T) {
	job := &Job{Id: JobIDForItem(5), ItemId: 5, Kind: KindLink, State: JobReady}
	if err := ValidateJob(job); err != nil {
		t.Errorf("ValidateJob() = %v, want nil", err)
	}

	t.Run("mismatched id", func(t *testing.T) {
		bad := &Job{Id: 123, ItemId: 5, Kind: KindLink}
		if err := ValidateJob(bad); !errors.Is(err, ErrJobItemMismatch) {
			t.Errorf("ValidateJob() = %v, want ErrJobItemMismatch", err)
		}
	})

	t.Run("zero item id", func(t *testing.T) {
		bad := &Job{Id: JobIDForItem(0), ItemId: 0, Kind: KindText}
		if err := ValidateJob(bad); !errors.Is(err, ErrInvalidJob) {
			t.Errorf("ValidateJob() = %v, want ErrInvalidJob", err)
		}
	})

	t.Run("bad kind", func(t *testing.T) {
		bad := &Job{Id: JobIDForItem(5), ItemId: 5, Kind: 42}
		if err := ValidateJob(bad); !errors.Is(err, ErrInvalidKind) {
			t.Errorf("ValidateJob() = %v, want ErrInvalidKind", err)
		}
	})
}
