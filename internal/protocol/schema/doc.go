// Package schema owns the outbound request catalog and the generic builder.
//
// Ownership boundary:
// - operation descriptors (opcode, name, ordered field schema)
// - the capability table mapping features to minimum server versions
// - per-field and per-operation validation hooks
// - flattening of structured payloads (contracts, orders, filters) into Args
// - building the ordered, version-filtered field list for one call
package schema
