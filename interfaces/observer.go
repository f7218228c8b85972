package interfaces

// DataObserver is notified after every accepted mutation (result upsert,
// clear, catalog upload). The host uses it to refresh its own view of the
// ledger without polling.
type DataObserver interface {
	DataChanged()
}

// RosterObserver is notified when the number of live connected clients
// changes: a previously unseen peer arrives or the stale sweep drops one.
type RosterObserver interface {
	ClientCountChanged(count int)
}
