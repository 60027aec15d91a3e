package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/pricing"
)

// MinReferenceLength rejects bank references that are almost certainly
// mistyped, before any store lookup happens.
const MinReferenceLength = 5

// VerificationFailedError reports a payment that was checked and found not
// payable: declined, wrong amount, wrong currency. The order has already
// been moved to its terminal failure state when this is returned.
type VerificationFailedError struct {
	Reason string
}

func (e VerificationFailedError) Error() string { return e.Reason }

// guardVerifiable applies the shared transition guards: the order must not
// be verified already and must sit in one of the legal source states.
func guardVerifiable(order *models.Order, legalFrom ...string) error {
	if order.PaymentVerified {
		return ErrAlreadyVerified
	}
	for _, from := range legalFrom {
		if order.Status == from {
			return nil
		}
	}
	return fmt.Errorf("cannot transition order %s from %s: %w", order.OrderID, order.Status, ErrIllegalTransition)
}

// classifyConflict re-reads an order after a lost conditional write and
// reports which guard the winning request satisfied first.
func (s *Service) classifyConflict(ctx context.Context, orderID string) error {
	order, err := s.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return ErrConflict
	}
	if order.PaymentVerified {
		return ErrAlreadyVerified
	}
	return fmt.Errorf("order %s is now %s: %w", orderID, order.Status, ErrIllegalTransition)
}

// failOrder moves an order to its terminal failure state, releases its
// reserved stock, and sends the failure email. Losing the conditional write
// means another request already resolved the order, in which case no side
// effects run.
func (s *Service) failOrder(ctx context.Context, order *models.Order, from []string, to, reason string) {
	now := s.now()
	err := s.store.Transition(ctx, Transition{
		OrderID: order.OrderID,
		From:    from,
		To:      to,
		Set: map[string]interface{}{
			"failureReason": reason,
		},
		Event: models.OrderEvent{Status: to, Note: reason, At: now},
	})
	if err != nil {
		log.Printf("[VERIFY] [WARN] order %s not marked %s (already resolved?): %v", order.OrderID, to, err)
		return
	}

	order.Status = to
	order.FailureReason = reason
	order.UpdatedAt = now

	if err := s.store.ReleaseStock(ctx, order.Items); err != nil {
		log.Printf("[VERIFY] [ERROR] releasing stock for failed order %s: %v", order.OrderID, err)
	}
	if result := s.notifier.SendPaymentFailed(order, reason); !result.Sent {
		log.Printf("[VERIFY] [WARN] failure email for %s not sent: %s", order.OrderID, result.Error)
	}
}

// confirmOrder performs the single legal transition into confirmed. The
// conditional write is the idempotency point: of two racing requests only
// one matches, the other is classified and returned as a guard error.
func (s *Service) confirmOrder(ctx context.Context, order *models.Order, from []string, verification models.OrderVerification, extra map[string]interface{}) error {
	set := map[string]interface{}{
		"paymentVerified": true,
		"verification":    verification,
	}
	for k, v := range extra {
		set[k] = v
	}
	err := s.store.Transition(ctx, Transition{
		OrderID: order.OrderID,
		From:    from,
		To:      models.StatusConfirmed,
		Set:     set,
		Event: models.OrderEvent{
			Status: models.StatusConfirmed,
			Note:   "payment verified via " + verification.Method,
			At:     verification.VerifiedAt,
		},
	})
	if errors.Is(err, ErrConflict) {
		return s.classifyConflict(ctx, order.OrderID)
	}
	if err != nil {
		return err
	}

	order.Status = models.StatusConfirmed
	order.PaymentVerified = true
	order.Verification = verification
	order.UpdatedAt = verification.VerifiedAt
	return nil
}

// sendConfirmationEmails fires the customer confirmation and admin notice.
// Failures are logged and reported, never propagated.
func (s *Service) sendConfirmationEmails(order *models.Order) []EmailResult {
	results := []EmailResult{
		s.notifier.SendOrderConfirmation(order),
		s.notifier.SendAdminOrderNotice(order),
	}
	for _, r := range results {
		if !r.Sent {
			log.Printf("[VERIFY] [WARN] %s email for %s not sent: %s", r.Type, order.OrderID, r.Error)
		}
	}
	return results
}

// VerifyGatewayPayment resolves a gateway order from its tx_ref, asks the
// gateway for the transaction's authoritative status, and either confirms
// the order or fails it. Amounts are recomputed from the stored items;
// nothing reported by the client is trusted.
func (s *Service) VerifyGatewayPayment(ctx context.Context, transactionID, txRef string) (*models.Order, []EmailResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	txRef = strings.TrimSpace(txRef)
	if transactionID == "" || txRef == "" {
		return nil, nil, ValidationError{Msg: "transactionId and txRef are required"}
	}

	order, err := s.store.FindByReference(ctx, txRef, models.PaymentMethodGateway)
	if err != nil {
		return nil, nil, err
	}
	if err := guardVerifiable(order, models.StatusPending); err != nil {
		return nil, nil, err
	}

	from := []string{models.StatusPending}

	result, err := s.verifier.Verify(ctx, transactionID)
	if err != nil {
		// Do not leave the order silently pending: record the failure with
		// the raw error so support can reconcile, and free the stock.
		reason := fmt.Sprintf("gateway verification error: %v", err)
		s.failOrder(ctx, order, from, models.StatusFailed, reason)
		return nil, nil, ExternalServiceError{Service: "payment gateway", Err: err}
	}

	if result.Status != GatewaySuccessStatus {
		reason := fmt.Sprintf("gateway reported status %q for transaction %s", result.Status, transactionID)
		s.failOrder(ctx, order, from, models.StatusFailed, reason)
		return nil, nil, VerificationFailedError{Reason: reason}
	}

	recomputed := pricing.ComputeTotals(order.Items, s.pricing)
	if result.Currency != s.pricing.Currency {
		reason := fmt.Sprintf("currency mismatch: gateway reported %s, expected %s", result.Currency, s.pricing.Currency)
		s.failOrder(ctx, order, from, models.StatusFailed, reason)
		return nil, nil, VerificationFailedError{Reason: reason}
	}
	if !pricing.AmountsEqual(result.Amount, recomputed.FinalTotal) {
		reason := fmt.Sprintf("amount mismatch: gateway reported %.2f, order total is %.2f",
			pricing.RoundUp10(result.Amount), recomputed.FinalTotal)
		log.Printf("[VERIFY] [ERROR] order %s txRef=%s %s", order.OrderID, txRef, reason)
		s.failOrder(ctx, order, from, models.StatusFailed, reason)
		return nil, nil, VerificationFailedError{Reason: reason}
	}

	verification := models.OrderVerification{
		Method:     "gateway",
		VerifiedAt: s.now(),
		VerifiedBy: "system",
	}
	if err := s.confirmOrder(ctx, order, from, verification, map[string]interface{}{
		"gatewayTransactionId": transactionID,
	}); err != nil {
		return nil, nil, err
	}
	order.GatewayTransactionID = transactionID

	log.Printf("[VERIFY] [INFO] order %s confirmed via gateway, amount %.2f %s",
		order.OrderID, recomputed.FinalTotal, result.Currency)
	return order, s.sendConfirmationEmails(order), nil
}

// SubmitReferenceInput is a customer's claim that a bank transfer was made.
type SubmitReferenceInput struct {
	OrderID         string
	Reference       string
	SubmittedAmount float64
	Notes           string
}

// SubmitBankReference records a customer-submitted transfer reference and
// parks the order in pending_verification for an admin to adjudicate. It
// never confirms: bank references cannot be checked against a ledger here,
// so only a human decision moves the order forward.
func (s *Service) SubmitBankReference(ctx context.Context, in SubmitReferenceInput) (*models.Order, EmailResult, error) {
	reference := strings.TrimSpace(in.Reference)
	if len(reference) < MinReferenceLength {
		return nil, EmailResult{}, ValidationError{Msg: fmt.Sprintf("reference must be at least %d characters", MinReferenceLength)}
	}
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		return nil, EmailResult{}, ValidationError{Msg: "orderId is required"}
	}

	order, err := s.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, EmailResult{}, err
	}
	if order.PaymentMethod != models.PaymentMethodBankTransfer {
		return nil, EmailResult{}, fmt.Errorf("order %s is not a bank transfer order: %w", orderID, ErrIllegalTransition)
	}
	if err := guardVerifiable(order, models.StatusPendingPayment, models.StatusPaymentSubmitted); err != nil {
		return nil, EmailResult{}, err
	}

	// One payment must not be claimable by two orders.
	existing, err := s.store.FindByReference(ctx, reference, models.PaymentMethodBankTransfer)
	if err == nil && existing != nil && existing.OrderID != orderID {
		log.Printf("[VERIFY] [WARN] reference %q already claimed by order %s, rejected for %s",
			reference, existing.OrderID, orderID)
		return nil, EmailResult{}, ErrDuplicateReference
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, EmailResult{}, err
	}

	now := s.now()
	set := map[string]interface{}{
		"transactionReference": reference,
	}
	if in.SubmittedAmount > 0 {
		set["submittedAmount"] = in.SubmittedAmount
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		set["customerNotes"] = notes
	}

	err = s.store.Transition(ctx, Transition{
		OrderID: orderID,
		From:    []string{models.StatusPendingPayment, models.StatusPaymentSubmitted},
		To:      models.StatusPendingVerification,
		Set:     set,
		Event: models.OrderEvent{
			Status: models.StatusPendingVerification,
			Note:   "transfer reference submitted by customer",
			At:     now,
		},
	})
	if errors.Is(err, ErrConflict) {
		return nil, EmailResult{}, s.classifyConflict(ctx, orderID)
	}
	if err != nil {
		return nil, EmailResult{}, err
	}

	order.Status = models.StatusPendingVerification
	order.TransactionReference = reference
	order.SubmittedAmount = in.SubmittedAmount
	order.CustomerNotes = strings.TrimSpace(in.Notes)
	order.UpdatedAt = now

	result := s.notifier.SendAdminVerificationRequest(order)
	if !result.Sent {
		log.Printf("[VERIFY] [WARN] admin verification email for %s not sent: %s", orderID, result.Error)
	}

	log.Printf("[VERIFY] [INFO] order %s moved to pending_verification, reference=%s", orderID, reference)
	return order, result, nil
}

// MarkProofSubmitted records an uploaded proof-of-payment file, the
// alternate entry into the verification pipeline.
func (s *Service) MarkProofSubmitted(ctx context.Context, orderID, proofPath string) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ValidationError{Msg: "orderId is required"}
	}

	order, err := s.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentMethodBankTransfer {
		return nil, fmt.Errorf("order %s is not a bank transfer order: %w", orderID, ErrIllegalTransition)
	}
	if err := guardVerifiable(order, models.StatusPendingPayment); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.store.Transition(ctx, Transition{
		OrderID: orderID,
		From:    []string{models.StatusPendingPayment},
		To:      models.StatusPaymentSubmitted,
		Set:     map[string]interface{}{"proofPath": proofPath},
		Event: models.OrderEvent{
			Status: models.StatusPaymentSubmitted,
			Note:   "proof of payment uploaded",
			At:     now,
		},
	})
	if errors.Is(err, ErrConflict) {
		return nil, s.classifyConflict(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	order.Status = models.StatusPaymentSubmitted
	order.ProofPath = proofPath
	order.UpdatedAt = now

	if result := s.notifier.SendAdminVerificationRequest(order); !result.Sent {
		log.Printf("[VERIFY] [WARN] admin verification email for %s not sent: %s", orderID, result.Error)
	}
	return order, nil
}

// Adjudication actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// AdjudicateInput is an admin's decision on a parked bank-transfer order.
type AdjudicateInput struct {
	OrderID    string
	Action     string
	Notes      string
	VerifiedBy string
}

// Adjudicate applies a human approve/reject decision to an order sitting in
// pending_verification (or payment_submitted, the proof-upload entry). This
// is the only path that confirms a bank-transfer order.
func (s *Service) Adjudicate(ctx context.Context, in AdjudicateInput) (*models.Order, []EmailResult, error) {
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		return nil, nil, ValidationError{Msg: "orderId is required"}
	}
	if in.Action != ActionApprove && in.Action != ActionReject {
		return nil, nil, ValidationError{Msg: `action must be "approve" or "reject"`}
	}

	order, err := s.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.PaymentMethod != models.PaymentMethodBankTransfer {
		return nil, nil, fmt.Errorf("order %s is not a bank transfer order: %w", orderID, ErrIllegalTransition)
	}
	if err := guardVerifiable(order, models.StatusPendingVerification, models.StatusPaymentSubmitted); err != nil {
		return nil, nil, err
	}

	from := []string{models.StatusPendingVerification, models.StatusPaymentSubmitted}
	notes := strings.TrimSpace(in.Notes)
	verifiedBy := strings.TrimSpace(in.VerifiedBy)
	if verifiedBy == "" {
		verifiedBy = "admin"
	}
	now := s.now()

	if in.Action == ActionReject {
		err = s.store.Transition(ctx, Transition{
			OrderID: orderID,
			From:    from,
			To:      models.StatusPaymentRejected,
			Set: map[string]interface{}{
				"rejectionReason": notes,
				"verification": models.OrderVerification{
					Method:     "manual",
					Notes:      notes,
					VerifiedAt: now,
					VerifiedBy: verifiedBy,
				},
			},
			Event: models.OrderEvent{Status: models.StatusPaymentRejected, Note: notes, At: now},
		})
		if errors.Is(err, ErrConflict) {
			return nil, nil, s.classifyConflict(ctx, orderID)
		}
		if err != nil {
			return nil, nil, err
		}

		order.Status = models.StatusPaymentRejected
		order.RejectionReason = notes
		order.UpdatedAt = now

		if relErr := s.store.ReleaseStock(ctx, order.Items); relErr != nil {
			log.Printf("[ADJUDICATE] [ERROR] releasing stock for rejected order %s: %v", orderID, relErr)
		}
		result := s.notifier.SendPaymentRejected(order, notes)
		if !result.Sent {
			log.Printf("[ADJUDICATE] [WARN] rejection email for %s not sent: %s", orderID, result.Error)
		}
		log.Printf("[ADJUDICATE] [INFO] order %s rejected by %s", orderID, verifiedBy)
		return order, []EmailResult{result}, nil
	}

	// Approval still re-derives the total: stored amounts drifting from the
	// stored items means something tampered with the document, and that must
	// block confirmation rather than be waved through.
	recomputed := pricing.ComputeTotals(order.Items, s.pricing)
	if !pricing.AmountsEqual(recomputed.FinalTotal, order.Amounts.FinalTotal) {
		log.Printf("[ADJUDICATE] [ERROR] order %s stored total %.2f does not match recomputed %.2f",
			orderID, order.Amounts.FinalTotal, recomputed.FinalTotal)
		return nil, nil, VerificationFailedError{
			Reason: "stored order total does not match its items; order cannot be approved",
		}
	}

	verification := models.OrderVerification{
		Method:     "manual",
		Notes:      notes,
		VerifiedAt: now,
		VerifiedBy: verifiedBy,
	}
	if err := s.confirmOrder(ctx, order, from, verification, nil); err != nil {
		return nil, nil, err
	}

	log.Printf("[ADJUDICATE] [INFO] order %s approved by %s", orderID, verifiedBy)
	return order, s.sendConfirmationEmails(order), nil
}

// ExpireStaleOrders marks orders stuck in an initial pending state beyond
// maxAge as expired and frees their stock. Run periodically from main.
func (s *Service) ExpireStaleOrders(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	stale, err := s.store.FindStale(ctx, []string{models.StatusPending, models.StatusPendingPayment}, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		order := &stale[i]
		err := s.store.Transition(ctx, Transition{
			OrderID: order.OrderID,
			From:    []string{models.StatusPending, models.StatusPendingPayment},
			To:      models.StatusExpired,
			Set:     map[string]interface{}{"failureReason": "payment window elapsed"},
			Event:   models.OrderEvent{Status: models.StatusExpired, Note: "payment window elapsed", At: s.now()},
		})
		if err != nil {
			// Lost to a concurrent verification; leave it alone.
			continue
		}
		if relErr := s.store.ReleaseStock(ctx, order.Items); relErr != nil {
			log.Printf("[EXPIRE] [ERROR] releasing stock for expired order %s: %v", order.OrderID, relErr)
		}
		expired++
	}
	if expired > 0 {
		log.Printf("[EXPIRE] [INFO] expired %d stale orders", expired)
	}
	return expired, nil
}
