package dto

import (
	"github.com/sarelsmotors/garage/internal/database/models"
)

type UpdateBankingRequest struct {
	BankName      string `json:"bank_name"`
	BranchCode    string `json:"branch_code"`
	AccountNumber string `json:"account_number"`
}

type OrganizationDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	VATNumber     string `json:"vat_number,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	BranchCode    string `json:"branch_code,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// NewOrganizationDTO takes the account number already decrypted.
func NewOrganizationDTO(o *models.Organization, accountNumber string) OrganizationDTO {
	return OrganizationDTO{
		ID:            o.ID.String(),
		Name:          o.Name,
		Address:       o.Address,
		VATNumber:     o.VATNumber,
		BankName:      o.BankName,
		BranchCode:    o.BranchCode,
		AccountNumber: accountNumber,
	}
}

type DashboardStats struct {
	OpenQuotes     int64 `json:"open_quotes"`
	ActiveJobCards int64 `json:"active_job_cards"`
	UnpaidInvoices int64 `json:"unpaid_invoices"`
}
