package session

import "errors"

var (
	ErrNotFound = errors.New("session not found")

	// ErrProvisioningFailed covers launch failures and timeouts. No session
	// record exists when it is returned, so Start is safe to retry.
	ErrProvisioningFailed = errors.New("failed to provision game server")

	// ErrTeardownFailed means the stop call failed for a reason other than
	// "task already gone". The session stays active so a retry can find it.
	ErrTeardownFailed = errors.New("failed to tear down game server")

	// ErrActiveSessionExists surfaces the store's uniqueness guarantee when
	// two Starts race; the loser resolves it by returning the winner's row.
	ErrActiveSessionExists = errors.New("workspace already has an active session")
)
