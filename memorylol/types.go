package memorylol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// lookupResponse is the body of GET /v1/tw/{handle}.
type lookupResponse struct {
	Accounts []account `json:"accounts"`
}

type account struct {
	IDStr       string      `json:"id_str"`
	ScreenNames screenNames `json:"screen_names"`
}

type screenName struct {
	Name  string
	Dates []string
}

// screenNames keeps the object's key order as sent by the service.
type screenNames []screenName

func (s *screenNames) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("screen_names: expected object, got %v", tok)
	}

	var out screenNames
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		// Dates may be null for handles the service saw without timestamps.
		var dates []string
		if err := dec.Decode(&dates); err != nil {
			return fmt.Errorf("screen_names[%q]: %w", name, err)
		}
		out = append(out, screenName{Name: name, Dates: dates})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}
