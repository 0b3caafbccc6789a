// Package store defines the two storage boundaries of the lounge: the
// waiting-list store holding the ordered queue of visitors, and the
// examination store holding the audit trail of provider/visitor assignments.
// The two commit independently; the lounge coordinator is the only writer
// that spans both. A small identity directory resolves user IDs to display
// names for read models.
package store
