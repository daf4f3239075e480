// Package dataset provides the in-memory tabular structure that carries
// raw and scrubbed rows through the ETL pipeline.
//
// A Table is an ordered sequence of named-field records. Cells start as
// strings exactly as read from the source file and become typed values
// (int64, float64, time.Time) only through an explicit Coerce call with
// a declared Kind. There is no automatic type inference: every
// conversion rule is visible at the call site, which keeps failure
// modes like silently-mistyped key columns out of the pipeline.
//
// Example:
//
//	t, err := dataset.New("customers", []string{"customer_id", "name"})
//	t.AppendRow([]any{"17", "Ada"})
//	v, err := dataset.Coerce("17", dataset.KindInt) // int64(17)
package dataset
