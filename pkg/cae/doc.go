/*
Package cae is the context assimilation engine: it parses a transfer
manifest (spec.md 6) into an ordered list of TransferSpec entries,
schedules them respecting depends_on edges, and for each entry reads
its src, chunks the stream, and calls cte.PutBlob against dst with a
monotonically increasing offset.

Manifest parsing follows the teacher's apply-command style (gopkg.in/
yaml.v3 into a plain Go struct) but expands src_token/dst_token with
os.Expand so ${VAR} references resolve against the process environment
at ingest time rather than at manifest-authoring time.
*/
package cae
