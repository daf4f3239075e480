// Package pipeline orchestrates one full warehouse refresh: read the
// raw extracts, scrub them, build the dimensional model, write the
// reporting extracts, and replace the warehouse tables.
//
// The orchestrator owns the pipeline's failure policy. Bad data never
// stops a run: a missing or malformed source skips that source's
// downstream steps, rejected rows are counted and reported, and a
// failed table load leaves the previous contents in place. Run never
// returns an error; the run report carries the outcome.
package pipeline
