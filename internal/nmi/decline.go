package nmi

// declineMessages maps the gateway's numeric response codes to messages the
// payment UI can show directly. The set follows the processor's published
// code table.
var declineMessages = map[string]string{
	"200": "Transaction was declined by processor",
	"201": "Do not honor",
	"202": "Insufficient funds",
	"203": "Over limit",
	"204": "Transaction not allowed",
	"220": "Incorrect payment information",
	"221": "No such card issuer",
	"222": "No card number on file with issuer",
	"223": "Expired card",
	"224": "Invalid expiration date",
	"225": "Invalid card security code",
	"240": "Call issuer for further information",
	"250": "Pickup card",
	"251": "Lost card",
	"252": "Stolen card",
	"253": "Fraudulent card",
	"260": "Declined with further instructions available",
	"300": "Transaction was rejected by gateway",
	"400": "Transaction error returned by processor",
	"410": "Invalid merchant configuration",
	"411": "Merchant account is inactive",
	"420": "Communication error",
	"421": "Communication error with issuer",
	"430": "Duplicate transaction at processor",
	"440": "Processor format error",
	"441": "Invalid transaction information",
	"460": "Processor feature not available",
}

const genericDeclineMessage = "Your payment could not be processed. Please try again."

// DeclineMessage translates a gateway response code into a user-facing
// message. Unknown codes fall back to the gateway's own response text
// verbatim, and a blank text falls back to a generic retry message.
func DeclineMessage(code, responseText string) string {
	if msg, ok := declineMessages[code]; ok {
		return msg
	}
	if responseText != "" {
		return responseText
	}
	return genericDeclineMessage
}
