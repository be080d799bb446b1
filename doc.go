/*
Package fliplot provides an in-memory database of digital simulation traces.

A trace, usually parsed from a VCD file with package vcd, is turned into a
SimDB: a path indexed set of modules and signals. Each signal owns a sparse,
time ordered list of value changes that can be queried by time or by index and
decoded on demand in any radix supported by package radix (binary, hex, signed
or unsigned fixed-point, single and double precision floats).

On top of point queries, objects support transition search (next or previous
rising, falling or any edge from a cursor time), bit range slicing with Verilog
part-select semantics, and the synthesis of virtual buses from a selection of
single bit signals.

The database is not safe for concurrent use. It lives in process memory for the
lifetime of a loaded trace and is never persisted.

*/
package fliplot
