package storage

import "errors"

// ErrDepositNotFound is returned when no deposit matches the given ID or token.
var ErrDepositNotFound = errors.New("deposit not found")

// ErrAccountNotFound is returned when a trading account does not exist under
// the requesting user's partition.
var ErrAccountNotFound = errors.New("trading account not found")

// ErrDepositNotCancellable is returned when a deposit cannot be cancelled,
// e.g. because payment has already been observed or it is terminal.
var ErrDepositNotCancellable = errors.New("deposit not in a cancellable state")

// ErrDepositAlreadyCrediting is returned when the settlement lock is held by
// a concurrent handler or the deposit is already terminal.
var ErrDepositAlreadyCrediting = errors.New("deposit is already being credited")

// ErrDepositTerminal is returned when a mutation is attempted against a
// deposit that has already reached a terminal state.
var ErrDepositTerminal = errors.New("deposit is in a terminal state")

// ErrDuplicateWebhookEvent is returned when an identical webhook delivery
// has already been recorded in the dedup ledger.
var ErrDuplicateWebhookEvent = errors.New("webhook event already recorded")
