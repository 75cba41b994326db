// Package sockenstudie turns Sockenstudie survey exports into deterministic,
// render-ready aggregates.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/sockenstudie/helpers"
//	    "github.com/spektr-org/sockenstudie/schema"
//	)
//
//	ds, err := helpers.ParseCSV(data)
//	cfg := schema.Default()
//	snap := cfg.Engine().FilterAndAggregate(ds.View(), "schueler")
//
// The engine package holds the aggregators and never fails: malformed cells
// drop out of their own statistic. Surveys are described declaratively by the
// schema package. The server and cmd packages are outer surfaces that hand
// snapshots to presentation layers; they never render.
package sockenstudie
