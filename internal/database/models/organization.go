package models

// Organization is the tenant root. Deleting it cascades to every
// tenant-scoped row.
type Organization struct {
	Base
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	VATNumber string `gorm:"column:vat_number" json:"vat_number,omitempty"`

	BankName   string `json:"bank_name,omitempty"`
	BranchCode string `json:"branch_code,omitempty"`
	// Age-encrypted, base64 encoded. Use crypto.Encryptor to read it.
	AccountNumberEnc string `gorm:"column:account_number_enc;type:text" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
