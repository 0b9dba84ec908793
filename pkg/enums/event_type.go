package enums

// EventType names an integration event written to the outbox and published
// to Pub/Sub.
type EventType string

const (
	EventLeaseActivated   EventType = "lease.activated"
	EventLeaseTerminated  EventType = "lease.terminated"
	EventLeaseExpired     EventType = "lease.expired"
	EventPaymentConfirmed EventType = "payment.confirmed"
	EventPaymentRejected  EventType = "payment.rejected"
	EventTicketAssigned   EventType = "ticket.vendor_assigned"
	EventOccupancySynced  EventType = "occupancy.synced"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// AggregateType names the entity an outbox event is anchored to.
type AggregateType string

const (
	AggregateLease    AggregateType = "lease"
	AggregatePayment  AggregateType = "payment"
	AggregateTicket   AggregateType = "ticket"
	AggregateProperty AggregateType = "property"
)

// String implements fmt.Stringer.
func (a AggregateType) String() string {
	return string(a)
}
