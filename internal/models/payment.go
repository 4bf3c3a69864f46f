package models

// Party is one side of a money movement on a given rail.
type Party struct {
	Phone string
	Name  string
}

// PaymentDetails carries only the fields that are legal for one payment rail.
// The set of variants is closed.
type PaymentDetails interface {
	Method() Method
	attach(tx *Transaction, platform Party)
}

// TelebirrDetails: Phone is the customer's wallet number. TransactionID is the
// receipt id issued by telebirr and is only known up front for deposits.
type TelebirrDetails struct {
	TransactionID string
	Phone         string
	Name          string
}

// CBEDetails: Account is the customer's bank account number.
type CBEDetails struct {
	TransactionID string
	Account       string
	Name          string
}

// CashDetails has no counterparty fields; cash is handed over in person.
type CashDetails struct{}

func (TelebirrDetails) Method() Method { return MethodTelebirr }
func (CBEDetails) Method() Method      { return MethodCBE }
func (CashDetails) Method() Method     { return MethodCash }

func (d TelebirrDetails) attach(tx *Transaction, platform Party) {
	tx.TransactionID = d.TransactionID
	setParties(tx, Party{Phone: d.Phone, Name: d.Name}, platform)
}

func (d CBEDetails) attach(tx *Transaction, platform Party) {
	tx.TransactionID = d.TransactionID
	setParties(tx, Party{Phone: d.Account, Name: d.Name}, platform)
}

func (CashDetails) attach(tx *Transaction, _ Party) {
	tx.TransactionID = ""
	tx.SenderPhone, tx.SenderName = "", ""
	tx.ReceiverPhone, tx.ReceiverName = "", ""
}

// deposits flow customer -> platform, everything else platform -> customer
func setParties(tx *Transaction, customer, platform Party) {
	from, to := customer, platform
	if tx.Type != TxnDeposit {
		from, to = platform, customer
	}
	tx.SenderPhone, tx.SenderName = from.Phone, from.Name
	tx.ReceiverPhone, tx.ReceiverName = to.Phone, to.Name
}

// Attach fills the method and counterparty fields of tx from d.
func Attach(tx *Transaction, d PaymentDetails, platform Party) {
	tx.Method = d.Method()
	d.attach(tx, platform)
}
