package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes the request body into the given struct. Trailing data
// after the first JSON value is rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}
