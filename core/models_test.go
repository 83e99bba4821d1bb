package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestJobIDForItem(t *testing.T) {
	itemID := ID(42)

	id1 := JobIDForItem(itemID)
	id2 := JobIDForItem(itemID)
	if id1 != id2 {
		t.Errorf("JobIDForItem() not deterministic: %d vs %d", id1, id2)
	}

	if JobIDForItem(43) == id1 {
		t.Errorf("JobIDForItem() produced same ID for different items")
	}

	// Job and vector ID spaces must not collide for the same item.
	if VectorIDForItem(itemID) == id1 {
		t.Errorf("JobIDForItem() and VectorIDForItem() collide for item %d", itemID)
	}
}

func TestItemDetail_PrimaryImage(t *testing.T) {
	detail := &ItemDetail{
		Item: &Item{Id: 1, Kind: KindFile},
		Media: []*Media{
			{Id: 10, ItemId: 1, URL: "/files/report.pdf", Type: MediaDocument},
			{Id: 11, ItemId: 1, URL: "/files/photo.png", Type: MediaImage},
			{Id: 12, ItemId: 1, URL: "/files/other.png", Type: MediaImage},
		},
	}

	img := detail.PrimaryImage()
	if img == nil {
		t.Fatal("PrimaryImage() returned nil, want first image media")
	}
	if img.Id != 11 {
		t.Errorf("PrimaryImage() = media %d, want 11", img.Id)
	}

	noImage := &ItemDetail{
		Item:  &Item{Id: 2, Kind: KindFile},
		Media: []*Media{{Id: 20, ItemId: 2, Type: MediaDocument}},
	}
	if noImage.PrimaryImage() != nil {
		t.Error("PrimaryImage() found an image on a document-only item")
	}
}

func TestMUSRoundTrip_Item(t *testing.T) {
	item := Item{
		Id:        7,
		Kind:      KindLink,
		Title:     "An article",
		Summary:   "What the article says",
		SourceURL: "https://example.com/post",
		Status:    StatusProcessed,
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589000, time.UTC),
		UpdatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	bs := make([]byte, ItemMUS.Size(item))
	n := ItemMUS.Marshal(item, bs)
	if n != len(bs) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(bs))
	}

	got, n, err := ItemMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(bs) {
		t.Errorf("Unmarshal consumed %d bytes, want %d", n, len(bs))
	}
	if got != item {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, item)
	}
}

func TestMUSRoundTrip_Job(t *testing.T) {
	job := Job{
		Id:        JobIDForItem(9),
		ItemId:    9,
		Kind:      KindFile,
		Attempt:   2,
		State:     JobReady,
		NextRunAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		LastError: "fetch timed out",
		CreatedAt: time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 5, 1, 11, 30, 0, 0, time.UTC),
	}

	bs := make([]byte, JobMUS.Size(job))
	JobMUS.Marshal(job, bs)

	got, _, err := JobMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got != job {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, job)
	}
}
