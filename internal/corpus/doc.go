// Package corpus extracts worked examples from documents.
//
// # Markdown Format
//
// An example is assembled from two labelled fenced blocks:
//
//	Input:
//	```text
//	literal runner input
//	```
//
//	Expected output:
//	```text
//	literal expected output
//	```
//
// Input blocks and expected-output blocks are collected separately, each in
// document order. The i-th input block and the i-th expected-output block form
// example #i; the two blocks need not be adjacent. Block contents are trimmed of
// surrounding whitespace and blank lines, internal whitespace is kept verbatim.
//
// # YAML Format
//
// Files ending in .yaml or .yml are read as a list of examples:
//
//	examples:
//	  - input: |
//	      literal runner input
//	    expected: |
//	      literal expected output
//
// # Mismatch
//
// A document whose input and expected-output counts differ is rejected as a
// whole with a *MismatchError; no partial corpus is returned.
package corpus
