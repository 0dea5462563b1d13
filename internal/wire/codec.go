package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

const (
	typeField    = "type"
	versionField = "v"
)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrNotObject    = errors.New("payload is not a JSON object")
	ErrMissingType  = errors.New("missing type")
	ErrMissingField = errors.New("missing field")
	ErrFieldType    = errors.New("wrong field type")
)

// DecodeError is returned by Decode for every payload it cannot turn into a Message.
// errors.Is(err, ErrMalformed) holds for all of them.
type DecodeError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Kind != "" && e.Field != "":
		return fmt.Sprintf("decode %s: field %q: %v", e.Kind, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("decode: field %q: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("decode: %v", e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrMalformed }

type joinFrame struct {
	Type     Kind   `json:"type"`
	PlayerID string `json:"playerId"`
}

type startFrame struct {
	Type       Kind   `json:"type"`
	OpponentID string `json:"opponentId"`
	Color      string `json:"color,omitempty"`
}

type moveFrame struct {
	Type Kind `json:"type"`
	X    int  `json:"x"`
	Y    int  `json:"y"`
}

// Encode renders m as a single text frame.
// Only an Unknown carrying invalid raw JSON can make it fail.
func Encode(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case Join:
		return json.Marshal(joinFrame{Type: KindJoin, PlayerID: msg.PlayerID})
	case Start:
		return json.Marshal(startFrame{Type: KindStart, OpponentID: msg.OpponentID, Color: msg.Color})
	case Move:
		return json.Marshal(moveFrame{Type: KindMove, X: msg.X, Y: msg.Y})
	case OpponentMove:
		return json.Marshal(moveFrame{Type: KindOpponentMove, X: msg.X, Y: msg.Y})
	case GameOver:
		fields := make(map[string]any, len(msg.Extra)+4)
		for k, v := range msg.Extra {
			fields[k] = v
		}
		if msg.Result != "" {
			fields["result"] = msg.Result
		}
		if msg.Winner != "" {
			fields["winner"] = msg.Winner
		}
		if msg.Reason != "" {
			fields["reason"] = msg.Reason
		}
		fields[typeField] = KindGameOver
		return json.Marshal(fields)
	case Unknown:
		fields := make(map[string]json.RawMessage, len(msg.Fields)+1)
		maps.Copy(fields, msg.Fields)
		typ, _ := json.Marshal(msg.Type)
		fields[typeField] = typ
		return json.Marshal(fields)
	case nil:
		return nil, errors.New("encode: nil message")
	default:
		return nil, fmt.Errorf("encode: unsupported message %T", m)
	}
}

// Decode parses one frame. Unrecognized types come back as Unknown, never as an error.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, &DecodeError{Err: ErrNotObject}
	}

	rawType, ok := fields[typeField]
	if !ok || isNull(rawType) {
		return nil, &DecodeError{Field: typeField, Err: ErrMissingType}
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return nil, &DecodeError{Field: typeField, Err: ErrFieldType}
	}

	kind := Kind(typ)
	switch kind {
	case KindJoin:
		id, err := requireString(kind, fields, "playerId")
		if err != nil {
			return nil, err
		}
		return Join{PlayerID: id}, nil

	case KindStart:
		id, err := requireString(kind, fields, "opponentId")
		if err != nil {
			return nil, err
		}
		color, err := optionalString(kind, fields, "color")
		if err != nil {
			return nil, err
		}
		return Start{OpponentID: id, Color: color}, nil

	case KindMove, KindOpponentMove:
		x, err := requireInt(kind, fields, "x")
		if err != nil {
			return nil, err
		}
		y, err := requireInt(kind, fields, "y")
		if err != nil {
			return nil, err
		}
		if kind == KindMove {
			return Move{X: x, Y: y}, nil
		}
		return OpponentMove{X: x, Y: y}, nil

	case KindGameOver:
		var g GameOver
		var err error
		if g.Result, err = optionalString(kind, fields, "result"); err != nil {
			return nil, err
		}
		if g.Winner, err = optionalString(kind, fields, "winner"); err != nil {
			return nil, err
		}
		if g.Reason, err = optionalString(kind, fields, "reason"); err != nil {
			return nil, err
		}
		for k, v := range fields {
			switch k {
			case typeField, versionField, "result", "winner", "reason":
				continue
			}
			if g.Extra == nil {
				g.Extra = make(map[string]json.RawMessage)
			}
			g.Extra[k] = compact(v)
		}
		return g, nil

	default:
		delete(fields, typeField)
		if len(fields) == 0 {
			fields = nil
		}
		return Unknown{Type: typ, Fields: fields}, nil
	}
}

func requireString(kind Kind, fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", &DecodeError{Kind: kind, Field: name, Err: ErrMissingField}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &DecodeError{Kind: kind, Field: name, Err: ErrFieldType}
	}
	return s, nil
}

func optionalString(kind Kind, fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &DecodeError{Kind: kind, Field: name, Err: ErrFieldType}
	}
	return s, nil
}

// requireInt accepts JSON number literals with no fraction or exponent.
func requireInt(kind Kind, fields map[string]json.RawMessage, name string) (int, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return 0, &DecodeError{Kind: kind, Field: name, Err: ErrMissingField}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, &DecodeError{Kind: kind, Field: name, Err: ErrFieldType}
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, &DecodeError{Kind: kind, Field: name, Err: ErrFieldType}
	}
	i, err := n.Int64()
	if err != nil || int64(int(i)) != i {
		return 0, &DecodeError{Kind: kind, Field: name, Err: ErrFieldType}
	}
	return int(i), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
