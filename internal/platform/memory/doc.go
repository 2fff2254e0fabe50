// Package memory provides in-process implementations of the store interfaces.
//
// Store keeps committed state in maps guarded by a RWMutex. A unit of work
// stages its writes and applies them in one step when the work function
// succeeds. Records read with GetForUpdate stay locked by key until the unit
// of work ends, so concurrent answers on the same learner and level are
// serialized while other keys proceed in parallel.
//
// QuestionPool serves level content from fixtures and is used for local runs
// and tests.
package memory
