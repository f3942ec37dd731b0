// Copyright 2025 Certen Protocol

package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/certen/contract-coordinator/pkg/authgate"
	"github.com/certen/contract-coordinator/pkg/contract"
	"github.com/certen/contract-coordinator/pkg/statemachine"
)

// ContractHandlers serves the contract lifecycle HTTP surface.
type ContractHandlers struct {
	machine *statemachine.Machine
	logger  *log.Logger
}

// NewContractHandlers creates the contract handler group.
func NewContractHandlers(machine *statemachine.Machine, logger *log.Logger) *ContractHandlers {
	return &ContractHandlers{machine: machine, logger: logger}
}

type createContractRequest struct {
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
	UserUUID  string `json:"userUUID"`
	PubKey    string `json:"pubKey"`

	Title        string                    `json:"title"`
	Description  string                    `json:"description"`
	Participants []string                  `json:"participants"`
	Steps        []createContractStepInput `json:"steps"`
	ProductID    string                    `json:"productId"`
	LocationID   string                    `json:"locationId"`
}

type createContractStepInput struct {
	Description string `json:"description"`
}

// HandleCreate serves POST /contract.
func (h *ContractHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}

	var req createContractRequest
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

	steps := make([]statemachine.StepInput, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = statemachine.StepInput{Description: s.Description}
	}

	c, err := h.machine.Create(r.Context(), statemachine.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Participants: req.Participants,
		Steps:        steps,
		Creator:      req.PubKey,
		ProductID:    req.ProductID,
		LocationID:   req.LocationID,
	})
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

// HandleGet serves GET /contract/:uuid.
func (h *ContractHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}

	contractUUID := pathParam(r.URL.Path, "/contract/")
	if contractUUID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "contract uuid is required")
		return
	}

	c, err := h.machine.Read(r.Context(), contractUUID)
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

type updateContractRequest struct {
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
	UserUUID  string `json:"userUUID"`
	PubKey    string `json:"pubKey"`

	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Steps       []contract.Step `json:"steps"`
	Status      *string         `json:"status"`
}

// HandleUpdate serves PUT /contract/:uuid.
func (h *ContractHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only PUT is allowed")
		return
	}

	contractUUID := pathParam(r.URL.Path, "/contract/")
	if contractUUID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "contract uuid is required")
		return
	}

	var req updateContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := authgate.VerifyWithContract(authgate.Request{
		Signature: req.Signature,
		Timestamp: req.Timestamp,
		UserUUID:  req.UserUUID,
		PubKey:    req.PubKey,
	}, contractUUID); err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, err.Error())
		return
	}

	patch := statemachine.UpdatePatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.Steps != nil {
		patch.Steps = req.Steps
	}

	c, err := h.machine.Update(r.Context(), contractUUID, req.PubKey, patch)
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

type signStepRequest struct {
	Signature     string `json:"signature"`
	Timestamp     string `json:"timestamp"`
	UserUUID      string `json:"userUUID"`
	PubKey        string `json:"pubKey"`
	StepID        string `json:"stepId"`
	StepSignature string `json:"stepSignature"`
}

type signStepResponse struct {
	StepCompleted  bool `json:"stepCompleted"`
	MagicTriggered bool `json:"magicTriggered"`
}

// HandleSign serves PUT /contract/:uuid/sign.
func (h *ContractHandlers) HandleSign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only PUT is allowed")
		return
	}

	contractUUID := strings.TrimSuffix(pathParam(r.URL.Path, "/contract/"), "/sign")
	if contractUUID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "contract uuid is required")
		return
	}

	var req signStepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := authgate.VerifyWithContract(authgate.Request{
		Signature: req.Signature,
		Timestamp: req.Timestamp,
		UserUUID:  req.UserUUID,
		PubKey:    req.PubKey,
	}, contractUUID); err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, err.Error())
		return
	}

	res, err := h.machine.SignStep(r.Context(), contractUUID, req.PubKey, req.StepID, req.StepSignature, req.Timestamp, req.UserUUID)
	if err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, signStepResponse{
		StepCompleted:  res.StepCompleted,
		MagicTriggered: res.MagicTriggered,
	})
}

type deleteContractRequest struct {
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
	UserUUID  string `json:"userUUID"`
	PubKey    string `json:"pubKey"`
}

// HandleDelete serves DELETE /contract/:uuid.
func (h *ContractHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only DELETE is allowed")
		return
	}

	contractUUID := pathParam(r.URL.Path, "/contract/")
	if contractUUID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "contract uuid is required")
		return
	}

	var req deleteContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := authgate.VerifyWithContract(authgate.Request{
		Signature: req.Signature,
		Timestamp: req.Timestamp,
		UserUUID:  req.UserUUID,
		PubKey:    req.PubKey,
	}, contractUUID); err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.machine.Delete(r.Context(), contractUUID, req.PubKey); err != nil {
		writeError(w, h.logger, statusForError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleList serves GET /contracts?participant=pk.
func (h *ContractHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}

	participant := r.URL.Query().Get("participant")
	summaries, err := h.machine.List(participant)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, summaries)
}

func pathParam(path, prefix string) string {
	trimmed := strings.TrimPrefix(path, prefix)
	trimmed = strings.TrimSuffix(trimmed, "/")
	return strings.Split(trimmed, "/")[0]
}
