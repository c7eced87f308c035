package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// MidtransGateway authorizes installments through the Midtrans Core API
type MidtransGateway struct {
	CoreClient coreapi.Client
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var c coreapi.Client
	c.New(serverKey, env)

	return &MidtransGateway{CoreClient: c}
}

// midtransOrderID is unique per attempt since Midtrans refuses reused order ids.
func midtransOrderID(orderID, customerID uint) string {
	return fmt.Sprintf("order-%d-cust-%d-%s", orderID, customerID, uuid.NewString()[:8])
}

// Authorize charges the installment as a bank transfer.
// The Core API client has no context support, so ctx only gates the call.
func (g *MidtransGateway) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthorizeResult{Message: fmt.Sprintf("payment gateway unreachable: %v", err)}, nil
	}

	charge := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeBankTransfer,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  midtransOrderID(req.OrderID, req.CustomerID),
			GrossAmt: req.Amount.IntPart(),
		},
		BankTransfer: &coreapi.BankTransferDetails{
			Bank: midtrans.BankBca,
		},
	}

	resp, mErr := g.CoreClient.ChargeTransaction(charge)
	if mErr != nil {
		return AuthorizeResult{Message: fmt.Sprintf("midtrans charge error: %s", mErr.Message)}, nil
	}

	raw, _ := json.Marshal(resp)
	result := AuthorizeResult{
		Success:       midtransAccepted(resp.StatusCode, resp.TransactionStatus),
		TransactionID: resp.TransactionID,
		Message:       resp.StatusMessage,
		Raw:           raw,
	}
	if result.Success && result.TransactionID == "" {
		result.Success = false
		result.Message = "midtrans accepted the charge without a transaction id"
	}
	return result, nil
}

// midtransAccepted reports whether a charge response means the money is secured or on its way.
func midtransAccepted(statusCode, transactionStatus string) bool {
	if statusCode != "200" && statusCode != "201" {
		return false
	}
	switch transactionStatus {
	case "capture", "settlement", "pending":
		return true
	}
	return false
}
