package model

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// EncodeGob serializes a model or transformer to gob bytes.
//
// Example:
//
//	data, err := model.EncodeGob(scaler)
func EncodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeGobTo(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGob decodes gob bytes into the pointer v.
func DecodeGob(data []byte, v any) error {
	return DecodeGobFrom(bytes.NewReader(data), v)
}

// EncodeGobTo writes v to w.
func EncodeGobTo(w io.Writer, v any) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// DecodeGobFrom reads r into the pointer v.
func DecodeGobFrom(r io.Reader, v any) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
