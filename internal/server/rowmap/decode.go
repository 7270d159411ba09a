package rowmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// Result is the outcome of a tolerant decode. Value is always usable; a
// non-nil Fault means the payload (or part of it) was discarded.
type Result[T any] struct {
	Value T
	Fault error
}

// maxEncodingDepth bounds how many times a payload may be wrapped in a JSON
// string before it is rejected.
const maxEncodingDepth = 2

var errTooDeep = errors.New("payload encoded too many times")

// DecodeFavorites normalizes a stored favorites payload into a set. Absent
// payloads yield the empty set without a fault; undecodable payloads yield the
// empty set with a fault; syntactically invalid ids are dropped with a fault.
func DecodeFavorites(raw any) Result[models.FavoriteIDs] {
	ids, err := decodeList[string](raw)
	if err != nil {
		return Result[models.FavoriteIDs]{
			Value: models.NewFavoriteIDs(),
			Fault: fmt.Errorf("favorites decode: %w", err),
		}
	}

	set := models.NewFavoriteIDs(ids...)
	valid := models.NewFavoriteIDs()
	var dropped []string
	for _, id := range set {
		if !models.IsValidProductID(id) {
			dropped = append(dropped, id)
			continue
		}
		valid = append(valid, id)
	}

	res := Result[models.FavoriteIDs]{Value: valid}
	if len(dropped) > 0 {
		res.Fault = fmt.Errorf("favorites decode: dropped invalid ids %q", dropped)
	}
	return res
}

// EncodeFavorites produces the stored (JSON text) form of a favorites set.
func EncodeFavorites(ids models.FavoriteIDs) (string, error) {
	if ids == nil {
		ids = models.NewFavoriteIDs()
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeConversations normalizes a conversation aggregate payload, which may
// arrive as JSON text, bytes, a JSON string wrapping JSON text, or an already
// structured sequence. Undecodable payloads become an empty sequence.
func DecodeConversations(raw any) Result[[]models.Conversation] {
	list, err := decodeList[models.Conversation](raw)
	if err != nil {
		return Result[[]models.Conversation]{
			Value: []models.Conversation{},
			Fault: fmt.Errorf("conversations decode: %w", err),
		}
	}
	return Result[[]models.Conversation]{Value: normalizeConversations(list)}
}

func normalizeConversations(list []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, 0, len(list))
	for _, c := range list {
		if c.Messages == nil {
			c.Messages = []models.Message{}
		}
		if c.Users == nil {
			c.Users = []models.UserSummary{}
		}
		out = append(out, c)
	}
	return out
}

func decodeList[T any](raw any) ([]T, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []T:
		return v, nil
	case []byte:
		return decodeText[T](v, 0)
	case json.RawMessage:
		return decodeText[T](v, 0)
	case string:
		return decodeText[T]([]byte(v), 0)
	case *string:
		if v == nil {
			return nil, nil
		}
		return decodeText[T]([]byte(*v), 0)
	case []any:
		// Generic structured form (e.g. decoded elsewhere into maps):
		// round-trip through JSON to get typed values.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return decodeText[T](b, 0)
	default:
		// Named slice types such as models.FavoriteIDs.
		rv := reflect.ValueOf(raw)
		want := reflect.TypeOf([]T(nil))
		if rv.Kind() == reflect.Slice && rv.Type().ConvertibleTo(want) {
			return rv.Convert(want).Interface().([]T), nil
		}
		return nil, fmt.Errorf("unsupported payload type %T", raw)
	}
}

func decodeText[T any](b []byte, depth int) ([]T, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	if b[0] == '"' {
		if depth >= maxEncodingDepth {
			return nil, errTooDeep
		}
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return nil, err
		}
		return decodeText[T]([]byte(inner), depth+1)
	}

	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
