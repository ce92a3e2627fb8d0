package rpc

import (
	"encoding/json"
)

// jsonCodec lets connect carry the plain Go structs of the models package.
// It takes the "json" name so application/json and connect+json requests use it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
