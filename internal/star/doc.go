// Package star builds the dimensional model: customer, product, and
// date dimensions plus the sales fact table, and the derived reporting
// extracts (OLAP cube, customer lifetime value ranking).
//
// Surrogate keys are assigned from a monotonic counter starting at 1 in
// first-seen order of the scrubbed input. Keys are unique and stable
// within a single run only; a rerun from scratch may assign different
// keys, so downstream joins must go through the natural keys persisted
// alongside them.
//
// Day-of-week convention: Monday=0 through Sunday=6, everywhere a
// day-of-week ordinal appears.
package star
