package enums

import "fmt"

// AuditAction labels the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionLeaseCreated         AuditAction = "LEASE_CREATED"
	AuditActionLeaseTerminated      AuditAction = "LEASE_TERMINATED"
	AuditActionPropertyUpdated      AuditAction = "PROPERTY_UPDATED"
	AuditActionPropertyDeleted      AuditAction = "PROPERTY_DELETED"
	AuditActionPaymentCashClaimed   AuditAction = "PAYMENT_CASH_CLAIMED"
	AuditActionPaymentConfirmed     AuditAction = "PAYMENT_CONFIRMED"
	AuditActionPaymentRejected      AuditAction = "PAYMENT_REJECTED"
	AuditActionTicketVendorAssigned AuditAction = "TICKET_VENDOR_ASSIGNED"
	AuditActionTicketVendorResponse AuditAction = "TICKET_VENDOR_RESPONDED"
	AuditActionTicketUpdated        AuditAction = "TICKET_UPDATED"
)

var validAuditActions = []AuditAction{
	AuditActionLeaseCreated,
	AuditActionLeaseTerminated,
	AuditActionPropertyUpdated,
	AuditActionPropertyDeleted,
	AuditActionPaymentCashClaimed,
	AuditActionPaymentConfirmed,
	AuditActionPaymentRejected,
	AuditActionTicketVendorAssigned,
	AuditActionTicketVendorResponse,
	AuditActionTicketUpdated,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
