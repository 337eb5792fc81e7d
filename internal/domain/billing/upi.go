package billing

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// Deep-link schemes per UPI app. BHIM uses the universal upi:// scheme.
var appSchemes = map[string]string{
	AppGPay:    "tez",
	AppPhonePe: "phonepe",
	AppPaytm:   "paytmmp",
	AppBhim:    "upi",
}

// UPIURL builds the payment URL for the given scheme. The note is fixed so
// bank statements group the entries.
func UPIURL(scheme, upiID, amount, transactionID string) string {
	return fmt.Sprintf("%s://pay?pa=%s&am=%s&tn=Appointment%%20Payment&tr=%s",
		scheme, upiID, amount, transactionID)
}

// QRDataURL encodes the universal UPI URL as a PNG data URL for inline
// rendering. Encoding failures fall back to an empty string rather than
// blocking the payment flow; the deep links still work.
func QRDataURL(upiID, amount, transactionID string) string {
	png, err := qrcode.Encode(UPIURL("upi", upiID, amount, transactionID), qrcode.Medium, 250)
	if err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// NewTransactionID generates a payment reference like
// TXN20260901143005A1B2C3D4.
func NewTransactionID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return "TXN" + now.Format("20060102150405") + suffix
}
