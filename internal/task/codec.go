package task

import "encoding/json"

// JSONCodec implements Codec[T] for any JSON-marshalable T. It is the
// default codec used by driver-constructed tasks unless the caller
// supplies a more specialized one.
type JSONCodec[T any] struct{}

// Encode marshals v to its JSON representation.
func (JSONCodec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode unmarshals s into a T.
func (JSONCodec[T]) Decode(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
