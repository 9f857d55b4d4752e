package settings

import "github.com/vmihailenco/msgpack/v5"

// Values are stored msgpack-encoded so the stored type survives a round trip.

func encodeValue(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func decodeBool(raw []byte) (bool, error) {
	var v bool
	err := msgpack.Unmarshal(raw, &v)
	return v, err
}

// decodeFloat accepts any msgpack number.
func decodeFloat(raw []byte) (float64, error) {
	var v float64
	err := msgpack.Unmarshal(raw, &v)
	return v, err
}

func decodeAny(raw []byte) (any, error) {
	var v any
	err := msgpack.Unmarshal(raw, &v)
	return v, err
}
