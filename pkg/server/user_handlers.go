// Copyright 2025 Certen Protocol

package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/certen/contract-coordinator/pkg/authgate"
	"github.com/certen/contract-coordinator/pkg/users"
)

// UserHandlers serves the user-directory HTTP surface.
type UserHandlers struct {
	users  *users.Directory
	logger *log.Logger
}

// NewUserHandlers creates the user handler group.
func NewUserHandlers(userDir *users.Directory, logger *log.Logger) *UserHandlers {
	return &UserHandlers{users: userDir, logger: logger}
}

type createUserRequest struct {
	PubKey    string `json:"pubKey"`
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
	UserUUID  string `json:"userUUID"`
}

// HandleCreate serves PUT /user/create.
func (h *UserHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only PUT is allowed")
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := authgate.Verify(authgate.Request{
		Signature: req.Signature,
		Timestamp: req.Timestamp,
		UserUUID:  req.UserUUID,
		PubKey:    req.PubKey,
	}); err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, err.Error())
		return
	}

	u, err := h.users.Create(req.PubKey)
	if err != nil {
		h.logger.Printf("create user: %v", err)
		writeError(w, h.logger, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, u)
}

// HandleGet serves GET /user/:uuid?timestamp&signature.
func (h *UserHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}

	userUUID := strings.TrimPrefix(r.URL.Path, "/user/")
	userUUID = strings.TrimSuffix(userUUID, "/")
	if userUUID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user uuid is required")
		return
	}

	q := r.URL.Query()
	if err := authgate.Verify(authgate.Request{
		Signature: q.Get("signature"),
		Timestamp: q.Get("timestamp"),
		UserUUID:  userUUID,
		PubKey:    q.Get("pubKey"),
	}); err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, err.Error())
		return
	}

	u, err := h.users.Get(userUUID)
	if err != nil {
		if isUsersNotFound(err) {
			writeError(w, h.logger, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Printf("get user: %v", err)
		writeError(w, h.logger, http.StatusInternalServerError, "failed to retrieve user")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, u)
}

func isUsersNotFound(err error) bool {
	return errors.Is(err, users.ErrNotFound)
}
