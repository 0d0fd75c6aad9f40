package decode

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// DecodeMap decodes a generic map (typically a parsed JSON object) into T,
// honoring `json` tags so payload structs need only one tag set.
func DecodeMap[T any](in map[string]any) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build decoder")
	}
	if err := dec.Decode(in); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	return &out, nil
}
