package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	pubtools "github.com/interledger/publisher-tools"
	"github.com/interledger/publisher-tools/openpay"
)

// pay drives one interactive payment from the command line: it builds a
// quote, prints the consent URL, waits for the interact_ref pasted from the
// redirect, and finalizes.
func run() error {
	ctx := context.Background()

	configPath := flag.String("config", "pubtools.yaml", "path to the YAML config file")
	sender := flag.String("sender", "", "sender wallet address")
	receiver := flag.String("receiver", "", "receiver wallet address")
	amount := flag.Float64("amount", 0, "amount to send, in the sender's currency")
	note := flag.String("note", "", "optional payment note")
	flag.Parse()

	if *sender == "" || *receiver == "" || *amount <= 0 {
		return fmt.Errorf("sender, receiver and a positive amount are required")
	}

	data, err := os.ReadFile(*configPath)
	if err != nil {
		return err
	}
	cfg, err := pubtools.ParseConfig(data)
	if err != nil {
		return err
	}

	client, err := pubtools.New(cfg)
	if err != nil {
		return err
	}

	quote, err := client.BuildQuote(ctx, openpay.QuoteParams{
		SenderAddress:   *sender,
		ReceiverAddress: *receiver,
		Amount:          *amount,
		Note:            *note,
	})
	if err != nil {
		return err
	}

	debit, err := client.DisplayAmount(quote.Quote.DebitAmount)
	if err != nil {
		return err
	}
	receive, err := client.DisplayAmount(quote.Quote.ReceiveAmount)
	if err != nil {
		return err
	}
	fmt.Printf("You send %s, %s receives %s\n", debit.Formatted, quote.Receiver.ID, receive.Formatted)

	session, err := client.RequestOutgoingGrant(ctx, openpay.OutgoingGrantRequest{
		Sender:               quote.Sender,
		Quote:                quote.Quote,
		IncomingPaymentGrant: quote.IncomingPaymentGrant,
		Note:                 *note,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Approve the payment at:\n  %s\n", session.OutgoingGrant.RedirectURL)
	fmt.Print("Paste the interact_ref from the redirect: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	interactRef := strings.TrimSpace(line)
	if interactRef == "" {
		fmt.Println("No interact_ref, abandoning the payment.")
		return client.AbandonPayment(ctx, session.PaymentID)
	}

	result, err := client.FinalizePayment(ctx, session.PaymentID, interactRef)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("payment failed: %s: %s", result.Error.Code, result.Error.Message)
	}
	for _, w := range result.Warnings {
		fmt.Println("warning:", w)
	}
	fmt.Println("Payment sent.")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
