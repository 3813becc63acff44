package tx

import (
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

func init() {
	Register(TypeCreateCertificate, func() Transaction { return &CreateCertificate{} })
}

// CreateCertificate mints a Guarantee-of-Origin certificate. Privileged.
type CreateCertificate struct {
	BaseTx

	CertificateID string `json:"certificate_id"`
	OwnerID       string `json:"owner_id"`
	EnergyAmount  uint64 `json:"energy_amount"`
}

// AdminOnly marks the transaction as restricted to the privileged owner.
func (*CreateCertificate) AdminOnly() {}

// TxType returns the transaction type.
func (*CreateCertificate) TxType() Type { return TypeCreateCertificate }

// Validate checks the stateless preconditions.
func (c *CreateCertificate) Validate() error {
	if c.CertificateID == "" {
		return ErrEmptyID
	}
	if c.OwnerID == "" {
		return ErrEmptyOwner
	}
	return nil
}

// Apply stores the certificate unless the id is taken. Existence is decided by
// the store's explicit lookup, so a zero-amount certificate still counts as
// existing.
func (c *CreateCertificate) Apply(ctx *ApplyContext) Result {
	if _, ok := ctx.View.Certificate(c.CertificateID); ok {
		return AlreadyExists
	}

	ctx.View.PutCertificate(ledger.Certificate{
		ID:           c.CertificateID,
		OwnerID:      c.OwnerID,
		EnergyAmount: c.EnergyAmount,
		Consumed:     false,
	})

	ctx.Queue(events.TypeCertificateCreated, events.CertificateCreated{
		ID:           c.CertificateID,
		OwnerID:      c.OwnerID,
		EnergyAmount: c.EnergyAmount,
	})
	ctx.Status = "certificate created"
	return Success
}
