// shipgate is the main CLI: verdict (compute the gate decision), override
// (manage threshold exceptions), temporal (inspect chronic findings), and
// weights (govern the category weight table).
//
// Usage:
//
//	shipgate verdict --findings=<path> [--health=<path>] [--mode=pr] -o <artifact>
//	shipgate override add --approved-by=<who> --scope="max_highs: 10" --ttl=24h --reason=<why>
//	shipgate temporal list [--db=<path>]
//	shipgate weights show
package main
