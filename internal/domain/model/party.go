package model

// Party identifies a side of a negotiation or order.
type Party string

const (
	PartyCustomer Party = "CUSTOMER"
	PartyDesigner Party = "DESIGNER"
)

// Other returns the counterparty.
func (p Party) Other() Party {
	if p == PartyCustomer {
		return PartyDesigner
	}
	return PartyCustomer
}

func (p Party) IsValid() bool {
	return p == PartyCustomer || p == PartyDesigner
}
