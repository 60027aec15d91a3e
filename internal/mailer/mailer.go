// Package mailer sends lifecycle emails over SMTP. Delivery is best
// effort: every send returns an orders.EmailResult and the state machine
// never waits on or rolls back for email.
package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

// Config is the SMTP account and addressing used for all sends.
type Config struct {
	Server     string
	Port       string
	User       string
	Pass       string
	FromAddr   string
	FromName   string
	AdminEmail string
}

// Mailer implements orders.Notifier over plain SMTP.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) send(kind, to, subject, body string) orders.EmailResult {
	result := orders.EmailResult{Type: kind, Recipient: to}

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s",
		m.cfg.FromName, m.cfg.FromAddr, to, subject, body))

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Server)
	err := smtp.SendMail(m.cfg.Server+":"+m.cfg.Port, auth, m.cfg.FromAddr, []string{to}, msg)
	if err != nil {
		log.Printf("[MAIL] [ERROR] %s to %s failed: %v", kind, to, err)
		result.Error = err.Error()
		return result
	}

	result.Sent = true
	return result
}

func itemLines(order *models.Order) string {
	var b strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s x%d — %.2f %s\n", item.Name, item.Quantity,
			item.UnitAmount*float64(item.Quantity), order.Amounts.Currency)
	}
	return b.String()
}

func amountLines(order *models.Order) string {
	a := order.Amounts
	shipping := fmt.Sprintf("%.2f %s", a.ShippingCost, a.Currency)
	if a.IsFreeShipping {
		shipping = "FREE"
	}
	return fmt.Sprintf("Subtotal: %.2f %s\nShipping: %s\nTax: %.2f %s\nTotal: %.2f %s",
		a.Subtotal, a.Currency, shipping, a.TaxAmount, a.Currency, a.FinalTotal, a.Currency)
}

// BuildBankTransferInstructions assembles the instructions body. Split out
// so it can be tested without an SMTP server.
func BuildBankTransferInstructions(order *models.Order, bank orders.BankDetails) string {
	return fmt.Sprintf("Hello %s,\n\n"+
		"Thank you for your order %s. To complete your purchase, please transfer the exact total below:\n\n"+
		"%s\n\n"+
		"Bank: %s\nAccount name: %s\nAccount number: %s\n\n"+
		"After paying, submit your bank transaction reference on the order tracking page so we can verify your payment.\n",
		order.Customer.Name, order.OrderID, amountLines(order),
		bank.BankName, bank.AccountName, bank.AccountNumber)
}

func (m *Mailer) SendBankTransferInstructions(order *models.Order, bank orders.BankDetails) orders.EmailResult {
	subject := fmt.Sprintf("Your order %s — bank transfer instructions", order.OrderID)
	return m.send("bank_transfer_instructions", order.Customer.Email, subject,
		BuildBankTransferInstructions(order, bank))
}

func (m *Mailer) SendOrderConfirmation(order *models.Order) orders.EmailResult {
	subject := fmt.Sprintf("Order %s confirmed", order.OrderID)
	body := fmt.Sprintf("Hello %s,\n\n"+
		"Your payment has been verified and order %s is confirmed.\n\n"+
		"Items:\n%s\n%s\n\nThank you for shopping with us.\n",
		order.Customer.Name, order.OrderID, itemLines(order), amountLines(order))
	return m.send("order_confirmation", order.Customer.Email, subject, body)
}

func (m *Mailer) SendPaymentRejected(order *models.Order, reason string) orders.EmailResult {
	subject := fmt.Sprintf("Order %s — payment could not be verified", order.OrderID)
	body := fmt.Sprintf("Hello %s,\n\n"+
		"We could not verify the bank transfer for order %s.\n",
		order.Customer.Name, order.OrderID)
	if strings.TrimSpace(reason) != "" {
		body += fmt.Sprintf("\nReason: %s\n", reason)
	}
	body += "\nIf you believe this is a mistake, reply to this email with your payment details.\n"
	return m.send("payment_rejected", order.Customer.Email, subject, body)
}

// SendPaymentFailed tells the customer the payment did not go through. The
// diagnostic reason stays in the order record and the logs; customers get a
// generic message.
func (m *Mailer) SendPaymentFailed(order *models.Order, _ string) orders.EmailResult {
	subject := fmt.Sprintf("Order %s — payment failed", order.OrderID)
	body := fmt.Sprintf("Hello %s,\n\n"+
		"Your payment for order %s could not be verified, so the order was not completed. "+
		"You have not been charged for a confirmed order; please place a new order to try again.\n",
		order.Customer.Name, order.OrderID)
	return m.send("payment_failed", order.Customer.Email, subject, body)
}

func (m *Mailer) SendAdminVerificationRequest(order *models.Order) orders.EmailResult {
	subject := fmt.Sprintf("Payment verification needed: order %s", order.OrderID)
	body := fmt.Sprintf("Order %s is awaiting manual verification.\n\n"+
		"Customer: %s <%s> %s\n"+
		"Reference: %s\n"+
		"Claimed amount: %.2f\n"+
		"Order total: %.2f %s\n",
		order.OrderID, order.Customer.Name, order.Customer.Email, order.Customer.Phone,
		order.TransactionReference, order.SubmittedAmount,
		order.Amounts.FinalTotal, order.Amounts.Currency)
	return m.send("admin_verification_request", m.cfg.AdminEmail, subject, body)
}

func (m *Mailer) SendAdminOrderNotice(order *models.Order) orders.EmailResult {
	subject := fmt.Sprintf("Order %s confirmed (%.2f %s)", order.OrderID,
		order.Amounts.FinalTotal, order.Amounts.Currency)
	body := fmt.Sprintf("Order %s was confirmed via %s.\n\n"+
		"Customer: %s <%s>\n\nItems:\n%s\n%s\n",
		order.OrderID, order.Verification.Method,
		order.Customer.Name, order.Customer.Email, itemLines(order), amountLines(order))
	return m.send("admin_order_notice", m.cfg.AdminEmail, subject, body)
}
