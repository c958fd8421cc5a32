// Package collision aggregates the CSV logs written by the collision-warning
// simulation and extracts the metrics reported by the analyser.
//
// Loading and typing are separate steps. LoadTable concatenates every file
// matching a glob into one Table without interpreting its columns; Records
// gives the warning log its typed view. Analyze then reduces the records to
// Metrics, which is pure data: rendering and export live in other packages.
//
// SubCauseCode severities:
//
//	0  no danger
//	1  warning   (TTC below the warning threshold)
//	2  critical  (TTC below the critical threshold)
package collision
