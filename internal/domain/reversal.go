package domain

import "fmt"

// BuildReversal derives the request that undoes a completed transaction.
// Each entry keeps its account and amount and flips its side. An empty
// description falls back to "Reversal of transaction <id>".
func BuildReversal(original *Transaction, entries []*Entry, description string) (TransactionRequest, error) {
	if original.Status != TransactionStatusCompleted {
		return TransactionRequest{}, fmt.Errorf("%w with status %s", ErrNotReversible, original.Status)
	}
	if len(entries) == 0 {
		return TransactionRequest{}, fmt.Errorf("%w: %s", ErrNothingToReverse, original.ID)
	}

	if description == "" {
		description = "Reversal of transaction " + original.ID
	}

	metadata := map[string]string{
		MetadataOriginalTransactionID: original.ID,
		MetadataReverseOperation:      "true",
	}
	for k, v := range original.Metadata {
		if _, taken := metadata[k]; !taken {
			metadata[k] = v
		}
	}

	reversed := make([]EntryRequest, len(entries))
	for i, e := range entries {
		reversed[i] = EntryRequest{
			AccountID:   e.AccountID,
			EntryType:   string(e.Type.Opposite()),
			Amount:      e.Amount,
			Description: "Reversal: " + e.Description,
		}
	}

	return TransactionRequest{
		ReferenceID: ReversalReferencePrefix + original.ID,
		Description: description,
		Currency:    original.Currency,
		Entries:     reversed,
		Metadata:    metadata,
	}, nil
}
