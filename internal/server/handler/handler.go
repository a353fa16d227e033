// Package handler implements the JSON API the client's remote gateway
// talks to. Every payload field holding bytes (salt, ciphertext, nonce)
// travels base64-encoded; the handlers never decrypt anything.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/cryptox"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/server/auth"
)

type Handler struct {
	gw            gateway.Gateway
	log           logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
}

func New(gw gateway.Gateway, log logging.Logger, jwtSecret []byte, tokenValidity time.Duration) *Handler {
	return &Handler{gw: gw, log: log, jwtSecret: jwtSecret, tokenValidity: tokenValidity}
}

type registerRequest struct {
	Email string `json:"email"`
	Salt  []byte `json:"salt"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type loginResponse struct {
	Salt               []byte   `json:"salt"`
	RecoveryCodeHashes []string `json:"recoveryCodeHashes,omitempty"`
	Token              string   `json:"token"`
}

type recoveryRequest struct {
	Hashes []string `json:"hashes"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Message: msg})
}

// mapError translates gateway sentinel errors to HTTP statuses.
func (h *Handler) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Email == "" || len(req.Salt) != cryptox.SaltSize {
		writeError(w, http.StatusBadRequest, "email and salt are required")
		return
	}

	if err := h.gw.CreateAccount(r.Context(), req.Email, req.Salt); err != nil {
		h.mapError(w, err)
		return
	}

	h.log.Info(r.Context(), "account registered", "email", req.Email)
	w.WriteHeader(http.StatusCreated)
}

// Login returns the account salt and a session token. An unknown account
// yields the same "invalid credentials" answer a wrong password would:
// the server cannot check passwords and must not leak which emails exist.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	acc, err := h.gw.GetAccount(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.mapError(w, err)
		return
	}

	token, err := auth.GenerateToken(acc.Email, h.jwtSecret, h.tokenValidity)
	if err != nil {
		h.log.Error(r.Context(), "token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Salt:               acc.Salt,
		RecoveryCodeHashes: acc.RecoveryCodeHashes,
		Token:              token,
	})
}

func (h *Handler) StoreRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Hashes) == 0 {
		writeError(w, http.StatusBadRequest, "recovery code hashes are required")
		return
	}

	email := emailFromContext(r.Context())
	if err := h.gw.SetRecoveryHashes(r.Context(), email, req.Hashes); err != nil {
		h.mapError(w, err)
		return
	}

	h.log.Info(r.Context(), "recovery hashes stored", "email", email, "count", len(req.Hashes))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	records, err := h.gw.ListRecords(r.Context(), emailFromContext(r.Context()))
	if err != nil {
		h.mapError(w, err)
		return
	}
	if records == nil {
		records = []gateway.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var rec gateway.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(rec.Ciphertext) == 0 || len(rec.Nonce) == 0 || rec.Name == "" {
		writeError(w, http.StatusBadRequest, "ciphertext, iv and name are required")
		return
	}
	if rec.Type != gateway.RecordTypeNote && rec.Type != gateway.RecordTypeFolder {
		writeError(w, http.StatusBadRequest, "type must be note or folder")
		return
	}

	created, err := h.gw.CreateRecord(r.Context(), emailFromContext(r.Context()), rec)
	if err != nil {
		h.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "note id is required")
		return
	}

	var upd gateway.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if (upd.Ciphertext == nil) != (upd.Nonce == nil) {
		writeError(w, http.StatusBadRequest, "ciphertext and iv must be updated together")
		return
	}

	updated, err := h.gw.UpdateRecord(r.Context(), emailFromContext(r.Context()), id, upd)
	if err != nil {
		h.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
