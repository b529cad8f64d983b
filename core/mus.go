package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-composed MUS serializers for the stored record types. The metadata
// value union needs a discriminated encoding, which rules out generated
// per-struct code, so all of the codecs live here.

var (
	stringListSer = ord.NewSliceSer[string](ord.String)
	embeddingSer  = ord.NewSliceSer[float32](varint.Float32)

	// ValueMUS serializes the metadata value union.
	ValueMUS = valueSer{}
	// FieldMUS serializes one metadata field.
	FieldMUS = fieldSer{}
	// MetadataMUS serializes ordered document metadata.
	MetadataMUS = ord.NewSliceSer[Field](FieldMUS)
	// DocumentMUS serializes a Document.
	DocumentMUS = documentSer{}
)

var (
	_ mus.Serializer[Value]    = valueSer{}
	_ mus.Serializer[Field]    = fieldSer{}
	_ mus.Serializer[Document] = documentSer{}
)

type valueSer struct{}

func (valueSer) Marshal(v Value, bs []byte) (n int) {
	n = varint.Int.Marshal(int(v.Kind), bs)
	switch v.Kind {
	case KindNumber:
		n += varint.Float64.Marshal(v.Num, bs[n:])
	case KindStringList:
		n += stringListSer.Marshal(v.List, bs[n:])
	default:
		n += ord.String.Marshal(v.Str, bs[n:])
	}
	return n
}

func (valueSer) Unmarshal(bs []byte) (v Value, n int, err error) {
	kind, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Kind = ValueKind(kind)
	var n1 int
	switch v.Kind {
	case KindString:
		v.Str, n1, err = ord.String.Unmarshal(bs[n:])
	case KindNumber:
		v.Num, n1, err = varint.Float64.Unmarshal(bs[n:])
	case KindStringList:
		v.List, n1, err = stringListSer.Unmarshal(bs[n:])
	default:
		return v, n, fmt.Errorf("unknown metadata value kind %d", kind)
	}
	return v, n + n1, err
}

func (valueSer) Size(v Value) (size int) {
	size = varint.Int.Size(int(v.Kind))
	switch v.Kind {
	case KindNumber:
		size += varint.Float64.Size(v.Num)
	case KindStringList:
		size += stringListSer.Size(v.List)
	default:
		size += ord.String.Size(v.Str)
	}
	return size
}

func (s valueSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type fieldSer struct{}

func (fieldSer) Marshal(f Field, bs []byte) (n int) {
	n = ord.String.Marshal(f.Key, bs)
	n += ValueMUS.Marshal(f.Value, bs[n:])
	return n
}

func (fieldSer) Unmarshal(bs []byte) (f Field, n int, err error) {
	f.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return f, n, err
	}
	var n1 int
	f.Value, n1, err = ValueMUS.Unmarshal(bs[n:])
	return f, n + n1, err
}

func (fieldSer) Size(f Field) int {
	return ord.String.Size(f.Key) + ValueMUS.Size(f.Value)
}

func (s fieldSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type documentSer struct{}

func (documentSer) Marshal(d Document, bs []byte) (n int) {
	n = ord.String.Marshal(d.ID, bs)
	n += varint.Int.Marshal(int(d.SourceType), bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	n += MetadataMUS.Marshal(d.Metadata, bs[n:])
	n += ord.String.Marshal(d.ContentHash, bs[n:])
	n += embeddingSer.Marshal(d.Embedding, bs[n:])
	n += varint.Int64.Marshal(d.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(d.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (documentSer) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return d, n, err
	}
	var st int
	if st, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.SourceType = SourceType(st)
	n += n1
	if d.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var meta []Field
	if meta, n1, err = MetadataMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.Metadata = meta
	n += n1
	if d.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Embedding, n1, err = embeddingSer.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.InsertedAt = time.UnixMicro(micros).UTC()
	n += n1
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.UpdatedAt = time.UnixMicro(micros).UTC()
	return d, n + n1, nil
}

func (documentSer) Size(d Document) (size int) {
	size = ord.String.Size(d.ID)
	size += varint.Int.Size(int(d.SourceType))
	size += ord.String.Size(d.Content)
	size += MetadataMUS.Size(d.Metadata)
	size += ord.String.Size(d.ContentHash)
	size += embeddingSer.Size(d.Embedding)
	size += varint.Int64.Size(d.InsertedAt.UnixMicro())
	size += varint.Int64.Size(d.UpdatedAt.UnixMicro())
	return size
}

func (s documentSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}
