package api

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request body size for JSON endpoints.
const maxBodyBytes = 64 * 1024

// decodeJSONBody decodes the request body into dest, limiting body size.
func decodeJSONBody(r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dest)
}
