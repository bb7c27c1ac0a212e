// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrBadRequest marks malformed input that never reached the domain layer.
var ErrBadRequest = errors.New("bad request")

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}
	return nil
}

// Created writes {"id": id} with status 201.
func Created(w http.ResponseWriter, id int64) {
	JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// Updated writes {"updated": true}.
func Updated(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// Deleted writes {"deleted": true}.
func Deleted(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
