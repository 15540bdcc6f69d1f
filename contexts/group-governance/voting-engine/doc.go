// Package votingengine implements group governance voting inside the
// group-governance context.
//
// The module owns the vote lifecycle (DRAFT, ACTIVE, CLOSED), ballot casting
// with proxy support against a frozen eligibility snapshot, tally reads, and
// outcome resolution under SIMPLE, TWO_THIRDS, and UNANIMOUS majority rules.
// Vote-related events flow through an outbox-backed relay; group membership
// arrives as consumed events feeding a local projection. Business rules live
// in the application/domain layers behind ports and adapters.
package votingengine
