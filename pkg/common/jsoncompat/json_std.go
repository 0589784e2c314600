//go:build jsonstd

package jsoncompat

import "encoding/json"

type std struct{}

func (std) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (std) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

var api codec = std{}
