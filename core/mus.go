package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-maintained MUS serializers for the persisted domain types. The wire
// layout is field order as declared, ints as varints, strings length-prefixed,
// timestamps as Unix microseconds.
//
// Each serializer exposes the Marshal/Unmarshal/Size triple that
// storage/serialization.go builds on.

// IDMUS serializes an ID.
var IDMUS = idSer{}

type idSer struct{}

func (idSer) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// timeMUS serializes a time.Time as Unix microseconds.
var timeMUS = timeSer{}

type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) int {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func (timeSer) Size(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

// ItemMUS serializes an Item.
var ItemMUS = itemSer{}

type itemSer struct{}

func (itemSer) Marshal(v Item, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += varint.Int.Marshal(int(v.Kind), bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += ord.String.Marshal(v.SourceURL, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (itemSer) Unmarshal(bs []byte) (v Item, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	var kind int
	if kind, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Kind = ItemKind(kind)
	n += n1
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SourceURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status int
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = ItemStatus(status)
	n += n1
	if v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (itemSer) Size(v Item) (size int) {
	size = IDMUS.Size(v.Id)
	size += varint.Int.Size(int(v.Kind))
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Summary)
	size += ord.String.Size(v.SourceURL)
	size += varint.Int.Size(int(v.Status))
	size += timeMUS.Size(v.CreatedAt)
	size += timeMUS.Size(v.UpdatedAt)
	return size
}

// ContentMUS serializes a Content.
var ContentMUS = contentSer{}

type contentSer struct{}

func (contentSer) Marshal(v Content, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ItemId, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.OCRText, bs[n:])
	n += ord.String.Marshal(v.HTML, bs[n:])
	return n
}

func (contentSer) Unmarshal(bs []byte) (v Content, n int, err error) {
	var n1 int
	if v.ItemId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.OCRText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.HTML, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (contentSer) Size(v Content) (size int) {
	size = IDMUS.Size(v.ItemId)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.OCRText)
	size += ord.String.Size(v.HTML)
	return size
}

// MediaMUS serializes a Media.
var MediaMUS = mediaSer{}

type mediaSer struct{}

func (mediaSer) Marshal(v Media, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ItemId, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += varint.Int.Marshal(int(v.Type), bs[n:])
	n += varint.Int.Marshal(v.Width, bs[n:])
	n += varint.Int.Marshal(v.Height, bs[n:])
	return n
}

func (mediaSer) Unmarshal(bs []byte) (v Media, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.ItemId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.URL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var mt int
	if mt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Type = MediaType(mt)
	n += n1
	if v.Width, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Height, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (mediaSer) Size(v Media) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.ItemId)
	size += ord.String.Size(v.URL)
	size += varint.Int.Size(int(v.Type))
	size += varint.Int.Size(v.Width)
	size += varint.Int.Size(v.Height)
	return size
}

// EmbeddingMUS serializes an Embedding.
var EmbeddingMUS = embeddingSer{}

type embeddingSer struct{}

func (embeddingSer) Marshal(v Embedding, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ItemId, bs)
	n += IDMUS.Marshal(v.VectorRef, bs[n:])
	return n
}

func (embeddingSer) Unmarshal(bs []byte) (v Embedding, n int, err error) {
	var n1 int
	if v.ItemId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.VectorRef, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (embeddingSer) Size(v Embedding) int {
	return IDMUS.Size(v.ItemId) + IDMUS.Size(v.VectorRef)
}

// JobMUS serializes a Job.
var JobMUS = jobSer{}

type jobSer struct{}

func (jobSer) Marshal(v Job, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ItemId, bs[n:])
	n += varint.Int.Marshal(int(v.Kind), bs[n:])
	n += varint.Int.Marshal(v.Attempt, bs[n:])
	n += varint.Int.Marshal(int(v.State), bs[n:])
	n += timeMUS.Marshal(v.NextRunAt, bs[n:])
	n += ord.String.Marshal(v.LastError, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (jobSer) Unmarshal(bs []byte) (v Job, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.ItemId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var kind int
	if kind, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Kind = ItemKind(kind)
	n += n1
	if v.Attempt, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var state int
	if state, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.State = JobState(state)
	n += n1
	if v.NextRunAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.LastError, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (jobSer) Size(v Job) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.ItemId)
	size += varint.Int.Size(int(v.Kind))
	size += varint.Int.Size(v.Attempt)
	size += varint.Int.Size(int(v.State))
	size += timeMUS.Size(v.NextRunAt)
	size += ord.String.Size(v.LastError)
	size += timeMUS.Size(v.CreatedAt)
	size += timeMUS.Size(v.UpdatedAt)
	return size
}
