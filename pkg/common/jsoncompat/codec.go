// Package jsoncompat picks the json backend at build time: sonic by
// default, encoding/json with the jsonstd tag.
package jsoncompat

type codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }
