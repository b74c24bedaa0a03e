package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/api/dto"
	"github.com/sarelsmotors/garage/internal/api/middleware"
	"github.com/sarelsmotors/garage/internal/api/validation"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/sarelsmotors/garage/pkg/crypto"
	"gorm.io/gorm"
)

var errOrganizationNotFound = errors.New("organization not found")

// Purger schedules asynchronous removal of an organization.
type Purger interface {
	EnqueueOrganizationPurge(ctx context.Context, orgID, requestedBy uuid.UUID) (string, error)
}

type OrganizationHandler struct {
	db            *gorm.DB
	encryptor     *crypto.Encryptor
	purger        Purger
	secureCookies bool
	logger        *slog.Logger
}

func NewOrganizationHandler(db *gorm.DB, encryptor *crypto.Encryptor, purger Purger, secureCookies bool, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		db:            db,
		encryptor:     encryptor,
		purger:        purger,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *OrganizationHandler) load(r *http.Request) (*models.Organization, error) {
	var org models.Organization
	err := h.db.WithContext(r.Context()).
		First(&org, "id = ?", middleware.GetOrganizationID(r.Context())).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errOrganizationNotFound
	}
	return &org, err
}

// Get returns the caller's organization with the account number decrypted.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.load(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	account, err := h.encryptor.DecryptString(org.AccountNumberEnc)
	if err != nil {
		h.logger.Error("failed to decrypt account number", "org_id", org.ID, "error", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewOrganizationDTO(org, account))
}

// UpdateBanking validates and stores banking details. The account number is
// only ever persisted encrypted.
func (h *OrganizationHandler) UpdateBanking(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBankingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	req.BankName = validation.TruncateString(validation.SanitizeString(req.BankName), 100)
	if errs := validation.ValidateBankingDetails(req.BankName, req.BranchCode, req.AccountNumber); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: "Validation failed", Details: errs})
		return
	}

	org, err := h.load(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	account := validation.NormalizeDigits(req.AccountNumber)
	sealed, err := h.encryptor.EncryptString(account)
	if err != nil {
		h.logger.Error("failed to encrypt account number", "org_id", org.ID, "error", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	org.BankName = req.BankName
	org.BranchCode = validation.NormalizeDigits(req.BranchCode)
	org.AccountNumberEnc = sealed

	if err := h.db.WithContext(r.Context()).Model(org).Updates(map[string]interface{}{
		"bank_name":          org.BankName,
		"branch_code":        org.BranchCode,
		"account_number_enc": org.AccountNumberEnc,
	}).Error; err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("banking details updated", "org_id", org.ID, "user_id", middleware.GetUserID(r.Context()))
	writeJSON(w, http.StatusOK, dto.NewOrganizationDTO(org, account))
}

// Delete queues the organization for removal and ends the caller's session.
func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.purger == nil {
		writeError(w, http.StatusServiceUnavailable, "Background jobs are unavailable")
		return
	}

	org, err := h.load(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	taskID, err := h.purger.EnqueueOrganizationPurge(r.Context(), org.ID, middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.ClearSessionCookie(w, h.secureCookies)
	writeJSON(w, http.StatusAccepted, dto.AcceptedResponse{
		Message: "Organization scheduled for deletion",
		TaskID:  taskID,
	})
}
