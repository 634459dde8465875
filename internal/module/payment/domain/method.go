package domain

// Method represents a payment method family.
type Method string

const (
	MethodCard         Method = "card"
	MethodUPI          Method = "upi"
	MethodNetBanking   Method = "netbanking"
	MethodWallet       Method = "wallet"
	MethodEMI          Method = "emi"
	MethodCOD          Method = "cod"
	MethodBankTransfer Method = "banktransfer"
)

// IsOffline returns true for methods collected without a gateway charge.
func (m Method) IsOffline() bool {
	return m == MethodCOD
}

// Valid reports whether m is a known method family.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodNetBanking, MethodWallet, MethodEMI, MethodCOD, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// MethodDetails is a tagged union of method-specific instrument data.
// Exactly one variant is set per confirm call; Method names the active one.
// Collectors validate instrument fields before submission, the orchestrator
// only routes the value through to the adapter.
type MethodDetails struct {
	Method Method `json:"method"`

	Card         *CardDetails         `json:"card,omitempty"`
	UPI          *UPIDetails          `json:"upi,omitempty"`
	NetBanking   *NetBankingDetails   `json:"netbanking,omitempty"`
	Wallet       *WalletDetails       `json:"wallet,omitempty"`
	EMI          *EMIDetails          `json:"emi,omitempty"`
	BankTransfer *BankTransferDetails `json:"bank_transfer,omitempty"`
}

// CardDetails carries the card instrument. Never the full PAN: the number
// field holds what the collector tokenised, responses keep only last4.
type CardDetails struct {
	Number   string `json:"number,omitempty"` // collector input, dropped after confirm
	Last4    string `json:"last4,omitempty"`
	Brand    string `json:"brand,omitempty"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`
}

// UPIDetails carries a UPI instrument.
type UPIDetails struct {
	VPA  string `json:"vpa,omitempty"`  // virtual payment address
	Flow string `json:"flow,omitempty"` // collect, intent
}

// NetBankingDetails carries the chosen bank.
type NetBankingDetails struct {
	BankCode string `json:"bank_code"`
}

// WalletDetails carries the wallet choice.
type WalletDetails struct {
	Provider string `json:"provider"`
	Phone    string `json:"phone,omitempty"`
}

// EMIDetails carries a card paying in instalments.
type EMIDetails struct {
	Last4  string `json:"last4,omitempty"`
	Brand  string `json:"brand,omitempty"`
	Tenure int    `json:"tenure"` // months
}

// BankTransferDetails is an acknowledgement-only variant.
type BankTransferDetails struct{}

// Validate checks that the active variant matches the declared method.
func (d *MethodDetails) Validate() error {
	if !d.Method.Valid() {
		return &Error{Code: "invalid_payment_method", Type: ErrorTypeValidation, Message: "unknown payment method: " + string(d.Method)}
	}
	switch d.Method {
	case MethodCard:
		if d.Card == nil {
			return missingVariant(d.Method)
		}
	case MethodUPI:
		if d.UPI == nil {
			return missingVariant(d.Method)
		}
	case MethodNetBanking:
		if d.NetBanking == nil {
			return missingVariant(d.Method)
		}
	case MethodWallet:
		if d.Wallet == nil {
			return missingVariant(d.Method)
		}
	case MethodEMI:
		if d.EMI == nil {
			return missingVariant(d.Method)
		}
	case MethodCOD, MethodBankTransfer:
		// no payload
	}
	return nil
}

func missingVariant(m Method) *Error {
	return &Error{
		Code:    "invalid_payment_method",
		Type:    ErrorTypeValidation,
		Message: "missing details for payment method: " + string(m),
	}
}

// BillingDetails is optionally attached to card-family payments. Never
// required for UPI or cash-on-delivery.
type BillingDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
