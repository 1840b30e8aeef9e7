// Package domain models EPICSA field-collected climate observations.
//
// # Data Source
//
// Observations arrive from volunteer observers ("contacts") over an SMS/chat
// platform flow. Each submission carries one measurement for one station and
// one logical date. The platform retries freely and observers resend freely,
// so the same observation is frequently submitted more than once.
//
// # Measurement Conventions
//
// Measurement types:
//
//	rainfall  daily accumulated rainfall in millimetres (non-negative)
//	t_max     daily maximum temperature in degrees Celsius
//	t_min     daily minimum temperature in degrees Celsius
//
// Missing-value tokens:
//
//	Observers report "no data" with one of: m, na, nan, missing
//	(case-insensitive, surrounding whitespace ignored). These normalize to an
//	explicit missing value, distinct from a parse failure.
//
// Parse failures:
//
//	A value that is neither a missing token nor a number is kept verbatim and
//	the submission is accepted with the advisory warning "Value is not a
//	number.". Rejecting it would break the confirm-before-correct flow the
//	platform drives, so acceptance-with-warning is the contract.
//
// Measurement values are an explicit three-way union (numeric, missing,
// unparsed). Business logic never encodes "missing" as floating-point NaN;
// consistency checks skip non-numeric values by tag, not by NaN comparison.
//
// # Record Lifecycle
//
// At most one live (non-obsolete) record should exist per (contact, date,
// measurement type). Corrections never delete: the old record is flagged
// obsolete and linked forward to its replacement via ObsoletedBy, preserving
// a full audit trail. Obsolescence is monotonic.
package domain
