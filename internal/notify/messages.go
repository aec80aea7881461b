package notify

import (
	"fmt"
	"strings"

	"github.com/freelancehub/wallet-ledger/internal/domain"
	"github.com/freelancehub/wallet-ledger/internal/models"
)

func payoutRequestedMessage(to string, freelancer models.User, args PayoutRequestedArgs) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A new payout request is waiting for review.\n\n")
	fmt.Fprintf(&b, "Request: #%d\n", args.PayoutRequestID)
	fmt.Fprintf(&b, "Freelancer: %s <%s>\n", freelancer.Name, freelancer.Email)
	fmt.Fprintf(&b, "Amount: %s\n", domain.FormatAmount(args.Amount))
	fmt.Fprintf(&b, "Bank account: %s\n", args.BankAccountDetails)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Payout request #%d for %s", args.PayoutRequestID, domain.FormatAmount(args.Amount)),
		Body:    b.String(),
	}
}

func payoutProcessedMessage(to, name string, args PayoutProcessedArgs) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	switch args.Status {
	case domain.PayoutStatusRejected:
		fmt.Fprintf(&b, "Your payout request #%d for %s was rejected.\n", args.PayoutRequestID, domain.FormatAmount(args.Amount))
		if args.AdminNotes != "" {
			fmt.Fprintf(&b, "Reason: %s\n", args.AdminNotes)
		}
		fmt.Fprintf(&b, "The amount has been returned to your wallet.\n")
	default:
		fmt.Fprintf(&b, "Your payout request #%d for %s has been paid.\n", args.PayoutRequestID, domain.FormatAmount(args.Amount))
		if args.ReferenceNumber != "" {
			fmt.Fprintf(&b, "Transfer reference: %s\n", args.ReferenceNumber)
		}
	}
	fmt.Fprintf(&b, "Bank account: %s\n", args.BankAccountDetails)

	subject := fmt.Sprintf("Payout request #%d paid", args.PayoutRequestID)
	if args.Status == domain.PayoutStatusRejected {
		subject = fmt.Sprintf("Payout request #%d rejected", args.PayoutRequestID)
	}
	return Message{To: to, Subject: subject, Body: b.String()}
}

func orderCompletedMessage(to, name string, args OrderCompletedArgs) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Order %s has been completed.\n", args.OrderNumber)
	fmt.Fprintf(&b, "Order total: %s\n", domain.FormatAmount(args.TotalAmount))
	fmt.Fprintf(&b, "Credited to your wallet: %s\n", domain.FormatAmount(args.Credited))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s completed", args.OrderNumber),
		Body:    b.String(),
	}
}
